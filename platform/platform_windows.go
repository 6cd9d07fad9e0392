//go:build windows
// +build windows

package platform

import (
	"os"
	"path/filepath"
)

func getDataDir() string {
	appDataDir := os.Getenv("APPDATA")
	if appDataDir == "" {
		// Fallback for missing APPDATA
		return filepath.Join(UserHomeDir(), AppDisplayName)
	}
	return filepath.Join(appDataDir, AppDisplayName)
}

func ensureExecutable(path string) error {
	// On Windows, executability is determined by file extension, not permissions
	return nil
}

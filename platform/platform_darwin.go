//go:build darwin
// +build darwin

package platform

import (
	"os"
	"path/filepath"
)

func getDataDir() string {
	// On macOS, use ~/Library/Application Support/.kailexcraft2D
	return filepath.Join(UserHomeDir(), "Library", "Application Support", AppDisplayName)
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode()|0111)
}

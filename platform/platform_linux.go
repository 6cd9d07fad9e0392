//go:build linux
// +build linux

package platform

import (
	"os"
	"path/filepath"
)

func getDataDir() string {
	// Follow XDG Base Directory Specification
	xdgDataHome := os.Getenv("XDG_DATA_HOME")
	if xdgDataHome != "" {
		return filepath.Join(xdgDataHome, AppName)
	}
	return filepath.Join(UserHomeDir(), ".local", "share", AppName)
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode()|0111)
}

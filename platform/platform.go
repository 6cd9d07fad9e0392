// Package platform provides cross-platform utilities for the application
// home directory and OS-specific file permissions.
package platform

import (
	"os"
	"path/filepath"
)

// AppName is the application name used for directory naming
const AppName = "kailexcraft2D"

// AppDisplayName is the display name used on Windows and macOS
const AppDisplayName = ".kailexcraft2D"

// HomeEnv overrides the data directory when set.
const HomeEnv = "KAILEX_HOME"

// GetDataDir returns the application home directory.
// Windows: %APPDATA%\.kailexcraft2D
// macOS: ~/Library/Application Support/.kailexcraft2D
// Linux: ~/.local/share/kailexcraft2D
// KAILEX_HOME takes precedence on every platform.
func GetDataDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Clean(dir)
	}
	return getDataDir()
}

// EnsureExecutable ensures a file has executable permissions.
// On Windows, this is a no-op.
func EnsureExecutable(path string) error {
	return ensureExecutable(path)
}

// UserHomeDir returns the user's home directory with proper fallbacks.
func UserHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

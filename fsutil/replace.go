package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// rename is replaced in tests.
var rename = os.Rename

// ReplaceFile moves a finished download onto cached. A previous cached copy
// is parked next to it as cached+".old" and put back if the move fails.
func ReplaceFile(download, cached string) error {
	if download == "" || cached == "" {
		return fmt.Errorf("failed to replace file: empty path")
	}
	if filepath.Clean(download) == filepath.Clean(cached) {
		return fmt.Errorf("failed to replace %s: download and target are the same file", cached)
	}
	info, err := os.Stat(download)
	if err != nil {
		return fmt.Errorf("failed to stat download: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("failed to replace %s: %s is not a regular file", cached, download)
	}

	parked := cached + ".old"
	if err := os.Remove(parked); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove leftover %s: %w", parked, err)
	}

	hadCached := true
	if err := rename(cached, parked); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to set aside %s: %w", cached, err)
		}
		hadCached = false
	}

	if err := rename(download, cached); err != nil {
		if hadCached {
			if restoreErr := rename(parked, cached); restoreErr != nil {
				return fmt.Errorf("failed to move download into place (%v) and to restore %s: %w", err, cached, restoreErr)
			}
		}
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	if hadCached {
		if err := os.Remove(parked); err != nil {
			log.Printf("fsutil: failed to remove %s: %v", parked, err)
		}
	}
	return nil
}

// Package fsutil holds the filesystem primitives the pack pipeline is built
// on: size walks, emptiness checks, and context-aware tree copy, move and
// delete.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// ErrNotDirectory is returned when a directory operation is given a file.
var ErrNotDirectory = errors.New("not a directory")

// PathSize returns the size of a file, or the recursive size of a directory.
// With ignoreErrors, unreadable entries below a directory count as zero.
func PathSize(path string, ignoreErrors bool) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return DirSize(path, ignoreErrors)
	}
	return info.Size(), nil
}

// DirSize sums the sizes of all regular files below path.
func DirSize(path string, ignoreErrors bool) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}

	var size int64
	walkErr := filepath.WalkDir(path, func(child string, entry fs.DirEntry, err error) error {
		if err != nil {
			if ignoreErrors {
				return nil
			}
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		fileInfo, err := entry.Info()
		if err != nil {
			if ignoreErrors {
				return nil
			}
			log.Printf("fsutil: failed to get size of %s: %v", child, err)
			return err
		}
		size += fileInfo.Size()
		return nil
	})
	if walkErr != nil {
		return size, fmt.Errorf("failed to walk %s: %w", path, walkErr)
	}
	return size, nil
}

// IsEmpty reports whether path holds no content: a directory without
// entries, or a zero-byte file.
func IsEmpty(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return info.Size() == 0, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// ListNames returns the names of the first-level entries of dir.
func ListNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// SizeOfEntries sums the sizes of the named first-level entries that
// currently exist below dir. Missing entries are skipped.
func SizeOfEntries(dir string, names []string) (int64, error) {
	var sum int64
	for _, name := range names {
		size, err := PathSize(filepath.Join(dir, name), true)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return -1, err
		}
		sum += size
	}
	return sum, nil
}

// EnsureDir resolves rel below parent and creates it as a directory when
// it does not exist yet.
func EnsureDir(parent, rel string) (string, error) {
	path := filepath.Join(parent, rel)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return path, nil
}

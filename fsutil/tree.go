package fsutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	return nil
}

// CopyDirContent copies every entry of srcDir into dstDir, recursively.
// Existing files in dstDir are never overwritten.
func CopyDirContent(ctx context.Context, srcDir, dstDir string) error {
	if err := requireDir(srcDir); err != nil {
		return err
	}
	if err := requireDir(dstDir); err != nil {
		return err
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())

		if entry.IsDir() {
			if err := os.Mkdir(dst, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dst, err)
			}
			if err := CopyDirContent(ctx, src, dst); err != nil {
				return err
			}
			continue
		}
		if err := CopyFile(ctx, src, dst); err != nil {
			return err
		}
	}
	return nil
}

// CopyFile copies a single regular file. dst must not exist.
func CopyFile(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := CopyContext(ctx, out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

// DeleteDir removes dir and everything below it. A missing dir is not an
// error; a file in its place is.
func DeleteDir(ctx context.Context, dir string) error {
	info, err := os.Lstat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		child := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := DeleteDir(ctx, child); err != nil {
				return err
			}
			continue
		}
		if err := os.Remove(child); err != nil {
			return fmt.Errorf("failed to delete %s: %w", child, err)
		}
	}
	if err := os.Remove(dir); err != nil {
		return fmt.Errorf("failed to delete %s: %w", dir, err)
	}
	return nil
}

// MoveDirContent moves every entry of srcDir into dstDir and removes srcDir
// afterwards. Entries are renamed when possible and copied across devices.
func MoveDirContent(ctx context.Context, srcDir, dstDir string) error {
	if err := requireDir(srcDir); err != nil {
		return err
	}
	if err := requireDir(dstDir); err != nil {
		return err
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())

		if _, err := os.Lstat(dst); err == nil {
			return fmt.Errorf("failed to move %s: %w", src, os.ErrExist)
		}

		err := os.Rename(src, dst)
		if err == nil {
			continue
		}
		if !errors.Is(err, syscall.EXDEV) {
			return fmt.Errorf("failed to move %s: %w", src, err)
		}

		// Cross-device: fall back to copy then delete.
		if entry.IsDir() {
			if err := os.Mkdir(dst, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dst, err)
			}
			if err := MoveDirContent(ctx, src, dst); err != nil {
				return err
			}
			continue
		}
		if err := CopyFile(ctx, src, dst); err != nil {
			return err
		}
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("failed to delete %s: %w", src, err)
		}
	}
	return DeleteDir(ctx, srcDir)
}

package downloads

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"

	"github.com/MilitaerMilitz/2D-Kailexcraft/fsutil"
	"github.com/MilitaerMilitz/2D-Kailexcraft/platform"
)

var (
	// ErrNotArchive is returned when a file fails the archive probe.
	ErrNotArchive = errors.New("not a valid archive")
	// ErrUnsafePath is returned for entries that resolve outside the
	// extraction directory.
	ErrUnsafePath = errors.New("entry is outside of the target dir")
)

// Format identifies the archive container.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatSevenZip
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatSevenZip:
		return "7z"
	default:
		return "unknown"
	}
}

// DetectFormat opens path as a ZIP archive, then as a 7z archive, and
// closes it again immediately. Directories and missing files are never
// archives.
func DetectFormat(path string) (Format, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: %s: %v", ErrNotArchive, path, err)
	}
	if info.IsDir() {
		return FormatUnknown, fmt.Errorf("%w: %s is a directory", ErrNotArchive, path)
	}

	if zr, err := zip.OpenReader(path); err == nil {
		zr.Close()
		return FormatZip, nil
	}
	if sr, err := sevenzip.OpenReader(path); err == nil {
		sr.Close()
		return FormatSevenZip, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrNotArchive, path)
}

// IsArchive reports whether path passes the archive probe.
func IsArchive(path string) bool {
	_, err := DetectFormat(path)
	return err == nil
}

// entryNames lists every entry name of the archive in stored order.
func entryNames(path string) ([]string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatZip:
		reader, err := zip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open zip archive: %w", err)
		}
		defer reader.Close()
		names := make([]string, 0, len(reader.File))
		for _, file := range reader.File {
			names = append(names, file.Name)
		}
		return names, nil
	default:
		reader, err := sevenzip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open 7z archive: %w", err)
		}
		defer reader.Close()
		names := make([]string, 0, len(reader.File))
		for _, file := range reader.File {
			names = append(names, file.Name)
		}
		return names, nil
	}
}

// FirstLevelEntries returns the distinct top-level names of the archive,
// in the order they first appear. Names are cleaned first, so
// "./assets/a.png" counts under "assets".
func FirstLevelEntries(archivePath string) ([]string, error) {
	names, err := entryNames(archivePath)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	for _, name := range names {
		first := strings.SplitN(path.Clean("/" + filepath.ToSlash(name))[1:], "/", 2)[0]
		if first == "" || first == "." || first == ".." || seen[first] {
			continue
		}
		seen[first] = true
		out = append(out, first)
	}
	return out, nil
}

// SafeJoin resolves name below destDir and rejects names that escape it.
func SafeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, name)
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// validateNames rejects the whole archive before anything is written when a
// single entry would land outside destDir.
func validateNames(destDir string, names []string) error {
	for _, name := range names {
		if _, err := SafeJoin(destDir, name); err != nil {
			return err
		}
	}
	return nil
}

// ExtractArchive extracts a ZIP or 7z archive into destDir.
func ExtractArchive(ctx context.Context, archivePath, destDir string) error {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return err
	}
	if format == FormatSevenZip {
		return Extract7z(ctx, archivePath, destDir)
	}
	return ExtractZip(ctx, archivePath, destDir)
}

// ExtractZip extracts a ZIP archive to the destination directory.
func ExtractZip(ctx context.Context, archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	if err := validateNames(destDir, names); err != nil {
		return err
	}

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		destPath, _ := SafeJoin(destDir, file.Name)
		info := file.FileInfo()

		if info.IsDir() {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			log.Printf("downloads: skipping symlink entry %s", file.Name)
			continue
		}
		if destPath == filepath.Clean(destDir) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, file.Name)
		}

		// Windows-created archives may omit directory entries
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		if err := extractEntry(ctx, file.Open, file.Name, destPath, info.Mode()); err != nil {
			return err
		}
	}

	return nil
}

// Extract7z extracts a 7z archive to the destination directory.
func Extract7z(ctx context.Context, archivePath, destDir string) error {
	reader, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	if err := validateNames(destDir, names); err != nil {
		return err
	}

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		destPath, _ := SafeJoin(destDir, file.Name)
		info := file.FileInfo()

		if info.IsDir() {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}
		if destPath == filepath.Clean(destDir) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, file.Name)
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		if err := extractEntry(ctx, file.Open, file.Name, destPath, info.Mode()); err != nil {
			return err
		}
	}

	return nil
}

func extractEntry(ctx context.Context, open func() (io.ReadCloser, error), name, destPath string, mode os.FileMode) error {
	rc, err := open()
	if err != nil {
		return fmt.Errorf("failed to open %s in archive: %w", name, err)
	}
	defer rc.Close()

	outFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	if _, err := fsutil.CopyContext(ctx, outFile, rc); err != nil {
		outFile.Close()
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}

	// Set executable permission on Unix-like systems
	if mode&0111 != 0 {
		if err := platform.EnsureExecutable(destPath); err != nil {
			log.Printf("downloads: failed to mark %s executable: %v", destPath, err)
		}
	}
	return nil
}

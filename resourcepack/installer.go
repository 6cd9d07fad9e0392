package resourcepack

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/MilitaerMilitz/2D-Kailexcraft/appconfig"
	"github.com/MilitaerMilitz/2D-Kailexcraft/fsutil"
	"github.com/MilitaerMilitz/2D-Kailexcraft/progress"
	"github.com/MilitaerMilitz/2D-Kailexcraft/settings"
)

const checksumPrefix = "blake2b-256:"

// Installer keeps a cached copy of the default pack archive in the pack
// directory.
type Installer struct {
	packDir string
	source  appconfig.DefaultPackConfig
	fetcher progress.Fetcher
	monitor *progress.Monitor
}

func NewInstaller(packDir string, source appconfig.DefaultPackConfig, fetcher progress.Fetcher, monitor *progress.Monitor) *Installer {
	return &Installer{
		packDir: packDir,
		source:  source,
		fetcher: fetcher,
		monitor: monitor,
	}
}

// CachedPath is where the default archive lives once installed.
func (i *Installer) CachedPath() string {
	return filepath.Join(i.packDir, DefaultPackName)
}

// Installed reports whether the cached archive exists with the expected
// size and, when configured, the expected checksum.
func (i *Installer) Installed() (bool, error) {
	info, err := os.Stat(i.CachedPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() || info.Size() != i.source.ZipSize {
		return false, nil
	}
	if i.source.Checksum == "" {
		return true, nil
	}
	if err := verifyChecksum(i.CachedPath(), i.source.Checksum); err != nil {
		if errors.Is(err, progress.ErrIntegrityMismatch) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Install downloads the default pack unless a valid copy is cached. A
// stale copy is removed first; a failed download leaves no cached copy.
func (i *Installer) Install(ctx context.Context) error {
	installed, err := i.Installed()
	if err != nil {
		return &progress.OpError{Kind: progress.ErrIOFailure, Op: "install", Path: i.CachedPath(), Err: err}
	}
	if installed {
		log.Printf("resourcepack: default pack already installed at %s", i.CachedPath())
		return nil
	}

	if err := os.Remove(i.CachedPath()); err != nil && !os.IsNotExist(err) {
		return &progress.OpError{Kind: progress.ErrIOFailure, Op: "install", Path: i.CachedPath(), Err: err}
	}
	if err := os.MkdirAll(i.packDir, 0755); err != nil {
		return &progress.OpError{Kind: progress.ErrIOFailure, Op: "install", Path: i.packDir, Err: err}
	}

	tempPath := filepath.Join(i.packDir, uuid.New().String()+settings.PartSuffix)
	task, err := progress.NewDownload(i.fetcher, i.source.URL, tempPath, i.source.ZipSize)
	if err != nil {
		return err
	}

	log.Printf("resourcepack: downloading default pack from %s", i.source.URL)
	if err := progress.Run(ctx, i.monitor, task, "Downloading assets"); err != nil {
		removeTemp(tempPath)
		return err
	}

	if err := i.verify(tempPath); err != nil {
		removeTemp(tempPath)
		return err
	}

	if i.monitor != nil {
		i.monitor.Report("Renaming files", -1)
	}
	if err := fsutil.ReplaceFile(tempPath, i.CachedPath()); err != nil {
		removeTemp(tempPath)
		return &progress.OpError{Kind: progress.ErrIOFailure, Op: "rename", Path: tempPath, Err: err}
	}
	log.Printf("resourcepack: default pack installed at %s", i.CachedPath())
	return nil
}

func (i *Installer) verify(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &progress.OpError{Kind: progress.ErrIOFailure, Op: "verify", Path: path, Err: err}
	}
	if info.Size() != i.source.ZipSize {
		return &progress.OpError{
			Kind: progress.ErrIntegrityMismatch,
			Op:   "verify",
			Path: i.source.URL,
			Err:  fmt.Errorf("downloaded %d bytes, expected %d", info.Size(), i.source.ZipSize),
		}
	}
	if i.source.Checksum != "" {
		return verifyChecksum(path, i.source.Checksum)
	}
	return nil
}

// verifyChecksum compares the file against "blake2b-256:<hex>".
func verifyChecksum(path, want string) error {
	if !strings.HasPrefix(want, checksumPrefix) {
		return &progress.OpError{Kind: progress.ErrInvalidArgument, Op: "verify", Path: path, Err: fmt.Errorf("unsupported checksum %q", want)}
	}
	expected := strings.ToLower(strings.TrimPrefix(want, checksumPrefix))

	f, err := os.Open(path)
	if err != nil {
		return &progress.OpError{Kind: progress.ErrIOFailure, Op: "verify", Path: path, Err: err}
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return err
	}
	if _, err := io.Copy(h, f); err != nil {
		return &progress.OpError{Kind: progress.ErrIOFailure, Op: "verify", Path: path, Err: err}
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != expected {
		return &progress.OpError{
			Kind: progress.ErrIntegrityMismatch,
			Op:   "verify",
			Path: path,
			Err:  fmt.Errorf("checksum %s, expected %s", got, expected),
		}
	}
	return nil
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("resourcepack: failed to remove %s: %v", path, err)
	}
}

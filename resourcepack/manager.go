// Package resourcepack installs the default pack and applies packs to the
// resource directory, reporting each step through a progress.Monitor.
package resourcepack

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/MilitaerMilitz/2D-Kailexcraft/appconfig"
	"github.com/MilitaerMilitz/2D-Kailexcraft/downloads"
	"github.com/MilitaerMilitz/2D-Kailexcraft/fsutil"
	"github.com/MilitaerMilitz/2D-Kailexcraft/journal"
	"github.com/MilitaerMilitz/2D-Kailexcraft/progress"
	"github.com/MilitaerMilitz/2D-Kailexcraft/settings"
)

const (
	// ResourceDir holds the unpacked content of the active pack.
	ResourceDir = "resource"
	// PackDir holds cached archives and loose pack directories.
	PackDir = "resourcepack"
	// DefaultPackName is the cached default archive.
	DefaultPackName = settings.DefaultPack

	stagingPrefix = ".staging-"
)

// Config wires a Manager to its collaborators.
type Config struct {
	Home        string
	DefaultPack appconfig.DefaultPackConfig
	Settings    *settings.Store
	// Monitor may be nil, in which case steps run without progress output.
	Monitor *progress.Monitor
	// Journal may be nil.
	Journal *journal.Journal
	// Client defaults to one built from DefaultPack.S3.
	Client *downloads.Client
}

// Manager applies packs to the resource directory. Calls are not mutually
// excluded; two concurrent applies race on the same directory.
type Manager struct {
	home      string
	source    appconfig.DefaultPackConfig
	settings  *settings.Store
	monitor   *progress.Monitor
	journal   *journal.Journal
	client    *downloads.Client
	installer *Installer
}

// Result describes a finished apply.
type Result struct {
	Pack string
	// Skipped is set when the pack was already active and nothing changed.
	Skipped bool
}

func NewManager(c Config) (*Manager, error) {
	if c.Home == "" {
		return nil, fmt.Errorf("%w: home directory not set", progress.ErrInvalidArgument)
	}
	if c.Settings == nil {
		return nil, fmt.Errorf("%w: settings store not set", progress.ErrInvalidArgument)
	}
	client := c.Client
	if client == nil {
		client = downloads.NewClient(c.DefaultPack.S3)
	}

	m := &Manager{
		home:     c.Home,
		source:   c.DefaultPack,
		settings: c.Settings,
		monitor:  c.Monitor,
		journal:  c.Journal,
		client:   client,
	}
	m.installer = NewInstaller(filepath.Join(c.Home, PackDir), c.DefaultPack, client, c.Monitor)
	return m, nil
}

// Validate resolves rel below the home directory and creates it as a
// directory when missing.
func (m *Manager) Validate(rel string) (string, error) {
	path, err := fsutil.EnsureDir(m.home, rel)
	if err != nil {
		return "", &progress.OpError{Kind: progress.ErrIOFailure, Op: "validate", Path: rel, Err: err}
	}
	return path, nil
}

// PackPath returns the location of a named pack in the pack directory.
func (m *Manager) PackPath(name string) string {
	return filepath.Join(m.home, PackDir, name)
}

// ResourcePath returns the resource directory.
func (m *Manager) ResourcePath() string {
	return filepath.Join(m.home, ResourceDir)
}

// Installer returns the default pack installer.
func (m *Manager) Installer() *Installer { return m.installer }

// InstallDefaultPack makes sure the default archive is cached.
func (m *Manager) InstallDefaultPack(ctx context.Context) error {
	entry := m.journal.Begin(ctx, journal.KindInstall, DefaultPackName)
	err := m.installer.Install(ctx)
	m.finish(ctx, entry, false, err)
	m.refresh()
	return err
}

// ApplyDefaultPack applies the default pack, installing it first if needed.
func (m *Manager) ApplyDefaultPack(ctx context.Context, force bool) (Result, error) {
	return m.ApplyPack(ctx, m.PackPath(DefaultPackName), force)
}

// ApplyPack replaces the content of the resource directory with the pack
// at path, which is an archive or a directory. The active pack is only
// updated once the transfer succeeded; a failed transfer leaves the
// resource directory cleared or partially filled.
//
// When the pack is already active and force is false, the resource and
// pack directories are left untouched. The run is still recorded as
// Skipped in the journal, which is the only write on that path.
func (m *Manager) ApplyPack(ctx context.Context, path string, force bool) (Result, error) {
	name := filepath.Base(path)
	entry := m.journal.Begin(ctx, journal.KindApply, name)

	var (
		res Result
		err error
	)
	if name == DefaultPackName {
		res, err = m.applyDefault(ctx, force)
	} else {
		res, err = m.apply(ctx, path, force)
	}
	m.finish(ctx, entry, res.Skipped, err)
	return res, err
}

// ApplyPackAsync runs ApplyPack on its own goroutine and resolves the
// returned signal with its error.
func (m *Manager) ApplyPackAsync(ctx context.Context, path string, force bool) *progress.Signal {
	signal := progress.NewSignal()
	go func() {
		_, err := m.ApplyPack(ctx, path, force)
		signal.Resolve(err)
	}()
	return signal
}

func (m *Manager) apply(ctx context.Context, path string, force bool) (Result, error) {
	name := filepath.Base(path)
	res := Result{Pack: name}

	info, err := os.Stat(path)
	if err != nil {
		return res, &progress.OpError{Kind: progress.ErrInvalidArgument, Op: "apply", Path: path, Err: err}
	}
	if !info.IsDir() && !downloads.IsArchive(path) {
		return res, &progress.OpError{Kind: progress.ErrInvalidArgument, Op: "apply", Path: path, Err: downloads.ErrNotArchive}
	}

	resourceDir, err := m.Validate(ResourceDir)
	if err != nil {
		return res, err
	}
	if m.alreadyActive(resourceDir, path, force, -1) {
		res.Skipped = true
		return res, nil
	}

	if err := m.clear(ctx, resourceDir); err != nil {
		return res, err
	}

	var task progress.Task
	if info.IsDir() {
		task, err = progress.NewCopy(path, resourceDir)
	} else {
		task, err = progress.NewExtract(path, resourceDir)
	}
	if err != nil {
		return res, err
	}
	if err := progress.Run(ctx, m.monitor, task, "Applying pack"); err != nil {
		return res, err
	}

	m.commit(name)
	return res, nil
}

func (m *Manager) applyDefault(ctx context.Context, force bool) (Result, error) {
	res := Result{Pack: DefaultPackName}

	resourceDir, err := m.Validate(ResourceDir)
	if err != nil {
		return res, err
	}
	packDir, err := m.Validate(PackDir)
	if err != nil {
		return res, err
	}

	if err := m.installer.Install(ctx); err != nil {
		return res, err
	}
	m.refresh()

	wantSize := int64(-1)
	if m.source.UnzippedSize > 0 {
		wantSize = m.source.UnzippedSize
	}
	if m.alreadyActive(resourceDir, m.installer.CachedPath(), force, wantSize) {
		res.Skipped = true
		return res, nil
	}

	if err := m.clear(ctx, resourceDir); err != nil {
		return res, err
	}

	archive := m.installer.CachedPath()
	if !m.source.StripRootFolder() {
		task, err := progress.NewExtract(archive, resourceDir)
		if err != nil {
			return res, err
		}
		if err := progress.Run(ctx, m.monitor, task, "Extracting assets"); err != nil {
			return res, err
		}
		m.commit(DefaultPackName)
		return res, nil
	}

	staging := filepath.Join(packDir, stagingPrefix+uuid.New().String())
	if err := os.Mkdir(staging, 0755); err != nil {
		return res, &progress.OpError{Kind: progress.ErrIOFailure, Op: "stage", Path: staging, Err: err}
	}
	defer func() {
		if err := fsutil.DeleteDir(context.WithoutCancel(ctx), staging); err != nil {
			log.Printf("resourcepack: failed to remove staging dir %s: %v", staging, err)
		}
	}()

	task, err := progress.NewExtract(archive, staging)
	if err != nil {
		return res, err
	}
	if err := progress.Run(ctx, m.monitor, task, "Extracting assets"); err != nil {
		return res, err
	}

	root, err := singleRoot(staging)
	if err != nil {
		return res, err
	}
	move, err := progress.NewMove(root, resourceDir)
	if err != nil {
		return res, err
	}
	if err := progress.Run(ctx, m.monitor, move, "Moving files"); err != nil {
		return res, err
	}

	m.commit(DefaultPackName)
	return res, nil
}

// singleRoot returns the only directory inside dir, or dir itself when the
// extracted archive had no single root folder.
func singleRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &progress.OpError{Kind: progress.ErrIOFailure, Op: "stage", Path: dir, Err: err}
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

// alreadyActive reports whether applying the pack at path would change
// nothing. A wantSize of -1 skips the size comparison.
func (m *Manager) alreadyActive(resourceDir, path string, force bool, wantSize int64) bool {
	if force || !m.settings.IsPackActive(path) {
		return false
	}
	empty, err := fsutil.IsEmpty(resourceDir)
	if err != nil || empty {
		return false
	}
	if wantSize >= 0 {
		size, err := fsutil.DirSize(resourceDir, false)
		if err != nil || size != wantSize {
			return false
		}
	}
	log.Printf("resourcepack: %s is already active", filepath.Base(path))
	return true
}

// clear deletes the content of resourceDir and recreates it empty.
func (m *Manager) clear(ctx context.Context, resourceDir string) error {
	empty, err := fsutil.IsEmpty(resourceDir)
	if err != nil {
		return &progress.OpError{Kind: progress.ErrIOFailure, Op: "clear", Path: resourceDir, Err: err}
	}
	if empty {
		return nil
	}

	task, err := progress.NewDelete(resourceDir)
	if err != nil {
		return err
	}
	if err := progress.Run(ctx, m.monitor, task, "Deleting old files"); err != nil {
		return err
	}
	if err := os.MkdirAll(resourceDir, 0755); err != nil {
		return &progress.OpError{Kind: progress.ErrIOFailure, Op: "clear", Path: resourceDir, Err: err}
	}
	return nil
}

func (m *Manager) commit(name string) {
	m.settings.SetActivePack(name)
	log.Printf("resourcepack: %s is now active", name)
}

func (m *Manager) refresh() {
	if err := m.settings.Refresh(); err != nil {
		log.Printf("resourcepack: failed to refresh pack list: %v", err)
	}
}

// DownloadPack downloads rawURL into the pack directory and returns the
// stored name. A negative size is looked up from the source.
func (m *Manager) DownloadPack(ctx context.Context, rawURL string, size int64) (string, error) {
	if _, err := downloads.ParseURL(rawURL); err != nil {
		return "", &progress.OpError{Kind: progress.ErrInvalidArgument, Op: "download", Path: rawURL, Err: err}
	}
	packDir, err := m.Validate(PackDir)
	if err != nil {
		return "", err
	}

	name := m.client.RemoteFileName(ctx, rawURL)
	if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, settings.PartSuffix) {
		name = uuid.New().String() + ".zip"
	}
	if size < 0 {
		size = m.client.ContentLength(ctx, rawURL)
	}

	entry := m.journal.Begin(ctx, journal.KindDownload, name)
	dest := filepath.Join(packDir, name)
	err = m.download(ctx, rawURL, dest, size)
	m.finish(ctx, entry, false, err)
	if err != nil {
		return "", err
	}

	m.refresh()
	return name, nil
}

func (m *Manager) download(ctx context.Context, rawURL, dest string, size int64) error {
	task, err := progress.NewDownload(m.client, rawURL, dest, size)
	if err != nil {
		return err
	}
	log.Printf("resourcepack: downloading %s (%s)", rawURL, downloads.FormatBytes(size))
	if err := progress.Run(ctx, m.monitor, task, "Downloading pack"); err != nil {
		removeTemp(dest)
		return err
	}
	return nil
}

func (m *Manager) finish(ctx context.Context, entry *journal.Entry, skipped bool, err error) {
	switch {
	case err == nil && skipped:
		m.journal.Finish(ctx, entry, journal.StateSkipped, "already active")
	case err == nil:
		m.journal.Finish(ctx, entry, journal.StateSucceeded, "")
	case errors.Is(err, progress.ErrInterrupted) || errors.Is(err, progress.ErrPreempted):
		m.journal.Finish(ctx, entry, journal.StateInterrupted, err.Error())
	default:
		m.journal.Finish(ctx, entry, journal.StateFailed, err.Error())
	}
}

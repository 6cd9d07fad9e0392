package cli

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"

	"github.com/MilitaerMilitz/2D-Kailexcraft/appconfig"
	"github.com/MilitaerMilitz/2D-Kailexcraft/exitcode"
	"github.com/MilitaerMilitz/2D-Kailexcraft/journal"
	"github.com/MilitaerMilitz/2D-Kailexcraft/progress"
	"github.com/MilitaerMilitz/2D-Kailexcraft/resourcepack"
	"github.com/MilitaerMilitz/2D-Kailexcraft/settings"
	"github.com/MilitaerMilitz/2D-Kailexcraft/ui"
)

// session holds everything a command needs, loaded from the home directory.
type session struct {
	ctx      context.Context
	cancel   context.CancelFunc
	stop     context.CancelFunc
	cfg      appconfig.Config
	settings *settings.Store
	journal  *journal.Journal
	monitor  *progress.Monitor
	manager  *resourcepack.Manager
	tui      *ui.TUI
}

func openSession(app *AppContext) (*session, error) {
	dir := app.Opts.Home
	if dir == "" {
		dir = appconfig.DefaultConfigDir()
	}
	cfg, _, err := appconfig.LoadFrom(dir)
	if err != nil {
		return nil, withExitCode(exitcode.InvalidConfig, err)
	}

	store, err := settings.Load(
		filepath.Join(cfg.HomeDir, settings.FileName),
		filepath.Join(cfg.HomeDir, resourcepack.PackDir),
	)
	if err != nil {
		return nil, withExitCode(exitcode.InvalidConfig, err)
	}

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		log.Printf("cli: journal unavailable: %v", err)
		j = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
	ctx, cancel := context.WithCancel(ctx)

	s := &session{
		ctx:      ctx,
		cancel:   cancel,
		stop:     stop,
		cfg:      cfg,
		settings: store,
		journal:  j,
	}

	var sink progress.Sink
	switch {
	case app.Opts.Quiet:
	case !app.Opts.Plain && isTerminal(app.IO.Out):
		s.tui = ui.NewTUI(app.IO.In, app.IO.Out, cancel)
		sink = s.tui
	default:
		sink = ui.NewLogSink(app.IO.ErrOut)
	}
	s.monitor = progress.NewMonitor(sink, cfg.MonitorInterval())

	s.manager, err = resourcepack.NewManager(resourcepack.Config{
		Home:        cfg.HomeDir,
		DefaultPack: cfg.DefaultPack,
		Settings:    store,
		Monitor:     s.monitor,
		Journal:     j,
	})
	if err != nil {
		s.close()
		return nil, withExitCode(exitcode.InvalidConfig, err)
	}
	return s, nil
}

// run executes fn with the progress display up.
func (s *session) run(fn func(ctx context.Context) error) error {
	if s.tui != nil {
		s.tui.Start()
	}
	err := fn(s.ctx)
	if s.tui != nil {
		s.tui.Finish(err)
	}
	return withKindCode(err)
}

// close persists settings and releases resources.
func (s *session) close() {
	s.monitor.Stop()
	if err := s.settings.Save(); err != nil {
		log.Printf("cli: failed to save settings: %v", err)
	}
	if err := s.journal.Close(); err != nil {
		log.Printf("cli: failed to close journal: %v", err)
	}
	s.cancel()
	s.stop()
}

// Package daemon wires the widget engine to the platform shell, the config
// file and the control socket.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/taskbarwidget/internal/config"
	"github.com/1broseidon/taskbarwidget/internal/dispatch"
	"github.com/1broseidon/taskbarwidget/internal/ipc"
	"github.com/1broseidon/taskbarwidget/internal/platform"
	"github.com/1broseidon/taskbarwidget/internal/textmetrics"
	"github.com/1broseidon/taskbarwidget/internal/widget"
)

const (
	surfaceTitle    = "taskbarwidget"
	shutdownTimeout = 2 * time.Second
)

// ErrNoShell means the platform shell is not open, either before start or
// after shutdown.
var ErrNoShell = errors.New("platform shell is not open")

// ShellFactory creates the platform shell. It runs on the dispatcher thread.
type ShellFactory func(platform.Options, *slog.Logger) (platform.Shell, error)

// Options holds daemon options.
type Options struct {
	// ConfigPath is watched for changes and re-read on RELOAD. Empty uses
	// the default location.
	ConfigPath string
	// SocketPath overrides the control socket location.
	SocketPath string
	NewShell   ShellFactory
	// Level, when set, follows log_level across reloads.
	Level  *slog.LevelVar
	Logger *slog.Logger
}

// Daemon owns the dispatcher and everything that runs on it.
type Daemon struct {
	opts Options
	disp *dispatch.Dispatcher

	// Only touched on the dispatcher after Run has started.
	cfg      *config.Config
	shell    platform.Shell
	measurer textmetrics.Measurer
	widget   *widget.Widget

	logger *slog.Logger
}

var _ ipc.Backend = (*Daemon)(nil)

// New creates a daemon for cfg.
func New(cfg *config.Config, opts Options) *Daemon {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewShell == nil {
		opts.NewShell = platform.NewShell
	}
	d := &Daemon{
		opts:   opts,
		cfg:    cfg,
		logger: opts.Logger.With("component", "daemon"),
	}
	d.disp = dispatch.New(dispatch.Config{
		Pump:   d.pump,
		Logger: opts.Logger.With("component", "dispatcher"),
	})
	return d
}

func (d *Daemon) pump() {
	if d.shell != nil {
		d.shell.Pump()
	}
}

func (d *Daemon) configPath() (string, error) {
	if d.opts.ConfigPath != "" {
		return d.opts.ConfigPath, nil
	}
	return config.DefaultConfigPath()
}

// Run starts the widget and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	dispCtx, stopDispatcher := context.WithCancel(context.Background())
	go d.disp.Run(dispCtx)
	defer func() {
		stopDispatcher()
		<-d.disp.Done()
	}()

	var startErr error
	if err := d.disp.Invoke(ctx, func() { startErr = d.start() }); err != nil {
		return err
	}
	if startErr != nil {
		return startErr
	}
	defer d.shutdown()

	if d.cfg.IPC.Enabled {
		srv, err := ipc.NewServer(d.opts.SocketPath, d, d.opts.Logger)
		if err != nil {
			return err
		}
		if err := srv.Start(); err != nil {
			return err
		}
		defer srv.Stop()
	}

	if path, err := d.configPath(); err != nil {
		d.logger.Warn("config watching disabled", "error", err)
	} else {
		watcher := config.NewWatcher(path, 0, d.opts.Logger)
		go func() {
			err := watcher.Run(ctx, func(cfg *config.Config) {
				d.disp.Post(dispatch.Normal, func() { d.apply(cfg) })
			})
			if err != nil {
				d.logger.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	d.logger.Info("taskbar widget running")
	<-ctx.Done()
	d.logger.Info("shutting down")
	return nil
}

// start runs on the dispatcher: the shell and the surface must be created on
// the thread that pumps their messages.
func (d *Daemon) start() error {
	shell, err := d.opts.NewShell(platform.Options{
		MainTaskbarClass:      d.cfg.Shell.MainTaskbarClass,
		SecondaryTaskbarClass: d.cfg.Shell.SecondaryTaskbarClass,
		DesktopClasses:        d.cfg.Shell.DesktopClasses,
		SurfaceTitle:          surfaceTitle,
	}, d.opts.Logger)
	if err != nil {
		return fmt.Errorf("failed to open shell: %w", err)
	}
	d.shell = shell

	d.measurer = textmetrics.New(textmetrics.Options{
		Family: d.cfg.Tuning.FontFamily,
		File:   d.cfg.Tuning.FontFile,
		Size:   d.cfg.Tuning.FontSize,
	}, d.opts.Logger)

	d.widget = widget.New(d.cfg, widget.Deps{
		Shell:     shell,
		Scheduler: d.disp,
		Measurer:  d.measurer,
		View:      widget.LogView{Logger: d.opts.Logger.With("component", "view")},
		Logger:    d.opts.Logger,
	})

	h, err := shell.CreateSurface()
	if err != nil {
		d.closeShell()
		return fmt.Errorf("failed to create widget surface: %w", err)
	}
	if err := d.widget.AttachSurface(h); err != nil {
		d.closeShell()
		return fmt.Errorf("failed to attach widget surface: %w", err)
	}
	return nil
}

func (d *Daemon) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := d.disp.Invoke(ctx, func() {
		d.widget.Shutdown()
		d.closeShell()
	})
	if err != nil {
		d.logger.Warn("shutdown incomplete", "error", err)
	}
}

func (d *Daemon) closeShell() {
	if d.measurer != nil {
		if err := d.measurer.Close(); err != nil {
			d.logger.Debug("failed to release text measurer", "error", err)
		}
		d.measurer = nil
	}
	if d.shell != nil {
		if err := d.shell.Close(); err != nil {
			d.logger.Warn("failed to close shell", "error", err)
		}
		d.shell = nil
	}
}

// apply runs on the dispatcher.
func (d *Daemon) apply(cfg *config.Config) {
	if d.widget == nil {
		return
	}
	if d.opts.Level != nil {
		d.opts.Level.Set(ParseLevel(cfg.LogLevel))
	}
	if cfg.Tuning.FontFamily != d.cfg.Tuning.FontFamily ||
		cfg.Tuning.FontFile != d.cfg.Tuning.FontFile ||
		cfg.Tuning.FontSize != d.cfg.Tuning.FontSize {
		d.logger.Info("font changes take effect after restart")
	}
	if cfg.IPC.Enabled != d.cfg.IPC.Enabled {
		d.logger.Info("ipc.enabled takes effect after restart")
	}
	d.cfg = cfg
	d.widget.Reconfigure(cfg)
}

// invoke runs fn on the dispatcher and waits for it.
func (d *Daemon) invoke(ctx context.Context, fn func()) error {
	err := d.disp.Invoke(ctx, fn)
	if errors.Is(err, dispatch.ErrStopped) {
		return fmt.Errorf("widget is shutting down: %w", err)
	}
	return err
}

// UpdateContent applies a media content update.
func (d *Daemon) UpdateContent(ctx context.Context, c widget.Content) error {
	return d.invoke(ctx, func() { d.widget.UpdateContent(c) })
}

// UpdateTimeline applies a timeline-only refresh.
func (d *Daemon) UpdateTimeline(ctx context.Context, tl widget.Timeline) error {
	return d.invoke(ctx, func() { d.widget.UpdateTimeline(tl) })
}

// Status reports the widget state.
func (d *Daemon) Status(ctx context.Context) (widget.Status, error) {
	var st widget.Status
	err := d.invoke(ctx, func() { st = d.widget.Status() })
	return st, err
}

// Reload re-reads the config file and applies it. Invalid files are
// rejected and the running configuration is kept.
func (d *Daemon) Reload(ctx context.Context) error {
	path, err := d.configPath()
	if err != nil {
		return err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return err
	}
	return d.invoke(ctx, func() { d.apply(res.Config) })
}

// Monitors lists the shell's monitors and the configured selection.
func (d *Daemon) Monitors(ctx context.Context) ([]platform.Monitor, int, error) {
	var (
		monitors []platform.Monitor
		selected int
		err      error
	)
	if ierr := d.invoke(ctx, func() {
		if d.shell == nil {
			err = ErrNoShell
			return
		}
		monitors, err = d.shell.Monitors()
		selected = d.cfg.Widget.Monitor
	}); ierr != nil {
		return nil, 0, ierr
	}
	return monitors, selected, err
}

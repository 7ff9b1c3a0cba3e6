// Package widget owns the embedded widget's state record and drives the
// geometry, visibility and clock timers on the dispatcher.
package widget

import (
	"log/slog"
	"time"

	"github.com/1broseidon/taskbarwidget/internal/config"
	"github.com/1broseidon/taskbarwidget/internal/dispatch"
	"github.com/1broseidon/taskbarwidget/internal/embedding"
	"github.com/1broseidon/taskbarwidget/internal/placement"
	"github.com/1broseidon/taskbarwidget/internal/platform"
	"github.com/1broseidon/taskbarwidget/internal/probe"
	"github.com/1broseidon/taskbarwidget/internal/recovery"
	"github.com/1broseidon/taskbarwidget/internal/taskbar"
	"github.com/1broseidon/taskbarwidget/internal/textmetrics"
	"github.com/1broseidon/taskbarwidget/internal/visibility"
)

// Deps are the widget's collaborators.
type Deps struct {
	Shell     platform.Shell
	Scheduler dispatch.Scheduler
	Measurer  textmetrics.Measurer
	View      View
	// Recreate replaces a lost surface. Nil uses the built-in path: destroy
	// the old surface, create a new one and attach it.
	Recreate recovery.RecreateFunc
	Now      func() time.Time
	Logger   *slog.Logger
}

// state is the single owned record. It is only touched on the dispatcher.
type state struct {
	title         string
	artist        string
	artistVisible bool
	icon          []byte
	paused        bool
	hasMedia      bool
	controls      Controls

	contentVisible   bool
	controlsRendered bool
	timeRendered     bool
	timeText         string
	lastTimeline     *Timeline
	animate          bool

	taskbar       platform.Handle
	isMain        bool
	placed        bool
	rect          platform.Rect
	availableText float64
	visible       bool
}

// Widget is the embedded widget engine. Every method must run on the
// dispatcher that owns Deps.Scheduler.
type Widget struct {
	cfg   *config.Config
	shell platform.Shell
	sched dispatch.Scheduler
	view  View
	now   func() time.Time

	locator  *taskbar.Locator
	embed    *embedding.Controller
	probe    *probe.Probe
	tray     *probe.TrayCache
	calc     *placement.Calculator
	detector *visibility.Detector
	monitor  visibility.Monitor
	recovery *recovery.Manager

	geometryTimer   dispatch.Timer
	visibilityTimer dispatch.Timer
	clockTimer      dispatch.Timer

	st     state
	logger *slog.Logger
}

// New wires a widget. No timers run until a surface is attached.
func New(cfg *config.Config, deps Deps) *Widget {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	view := deps.View
	if view == nil {
		view = nopView{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	w := &Widget{
		cfg:    cfg,
		shell:  deps.Shell,
		sched:  deps.Scheduler,
		view:   view,
		now:    now,
		logger: logger.With("component", "widget"),
	}
	w.locator = taskbar.NewLocator(deps.Shell, deps.Shell, locatorClasses(cfg), logger)
	w.embed = embedding.NewController(deps.Shell, logger)
	w.probe = probe.New(deps.Shell, logger)
	w.tray = probe.NewTrayCache(deps.Shell, cfg.Shell.TrayNotifyClass)
	w.calc = placement.NewCalculator(deps.Shell, w.probe, w.tray, placement.NewTextCache(deps.Measurer), cfg, logger)
	w.detector = visibility.NewDetector(deps.Shell, cfg.Shell.IgnoredForegroundClasses, logger)

	recreate := deps.Recreate
	if recreate == nil {
		recreate = w.recreateSurface
	}
	w.recovery = recovery.NewManager(deps.Scheduler, recreate, cfg.Timing.RecoveryDelay, cfg.Timing.MaxRecoveryAttempts, logger)

	w.newTimers()
	w.st.contentVisible = !cfg.Widget.HideCompletely
	return w
}

func locatorClasses(cfg *config.Config) taskbar.Classes {
	return taskbar.Classes{Main: cfg.Shell.MainTaskbarClass, Secondary: cfg.Shell.SecondaryTaskbarClass}
}

func (w *Widget) newTimers() {
	w.geometryTimer = w.sched.NewTimer(w.cfg.Timing.GeometryInterval, w.geometryTick)
	w.visibilityTimer = w.sched.NewTimer(w.cfg.Timing.VisibilityInterval, w.visibilityTick)
	w.clockTimer = w.sched.NewTimer(w.cfg.Timing.ClockInterval, w.clockTick)
}

// AttachSurface takes ownership of a new widget surface and starts the
// periodic work when the widget is active.
func (w *Widget) AttachSurface(h platform.Handle) error {
	if err := w.embed.Attach(h); err != nil {
		return err
	}
	w.st.placed = false
	w.st.visible = false
	w.logger.Info("surface attached", "surface", h)

	if w.cfg.Widget.Active() && !w.recovery.Exhausted() {
		w.startTimers()
		w.sched.Post(dispatch.Normal, w.geometryTick)
	}
	return nil
}

// Surface returns the attached surface, or zero.
func (w *Widget) Surface() platform.Handle {
	return w.embed.Surface()
}

// Shutdown stops all timers and destroys the surface.
func (w *Widget) Shutdown() {
	w.stopTimers()
	if h := w.embed.Detach(); h != 0 {
		if err := w.shell.DestroySurface(h); err != nil {
			w.logger.Warn("failed to destroy surface", "error", err)
		}
	}
}

func (w *Widget) recreateSurface() error {
	if old := w.embed.Detach(); old != 0 {
		if err := w.shell.DestroySurface(old); err != nil {
			w.logger.Debug("failed to destroy lost surface", "error", err)
		}
	}
	h, err := w.shell.CreateSurface()
	if err != nil {
		return err
	}
	return w.AttachSurface(h)
}

func (w *Widget) startTimers() {
	if !w.geometryTimer.Enabled() {
		w.geometryTimer.Start()
	}
	if !w.visibilityTimer.Enabled() {
		w.visibilityTimer.Start()
	}
}

func (w *Widget) stopTimers() {
	w.geometryTimer.Stop()
	w.visibilityTimer.Stop()
	w.clockTimer.Stop()
}

// requestGeometry queues a geometry pass behind any pending normal work.
func (w *Widget) requestGeometry() {
	w.sched.Post(dispatch.Background, w.geometryTick)
}

func (w *Widget) geometryTick() {
	if !w.cfg.Widget.Active() {
		return
	}
	if w.embed.IsLost() {
		w.handleLoss()
		return
	}

	monitors, err := w.shell.Monitors()
	if err != nil {
		w.logger.Warn("failed to enumerate monitors", "error", err)
		return
	}
	tb, isMain := w.locator.Resolve(w.cfg.Widget.Monitor, monitors)

	switch w.embed.Embed(tb) {
	case embedding.Lost:
		w.handleLoss()
		return
	case embedding.Skipped:
		w.logger.Debug("taskbar unavailable, skipping tick")
		return
	}

	w.sched.Post(dispatch.Background, func() { w.place(tb, isMain) })
}

func (w *Widget) handleLoss() {
	w.stopTimers()
	w.st.placed = false
	w.st.visible = false
	w.recovery.HandleLoss()
}

func (w *Widget) place(tb platform.Handle, isMain bool) {
	if w.embed.IsLost() || !w.cfg.Widget.Active() {
		return
	}
	wc := w.cfg.Widget
	res, ok := w.calc.Compute(placement.Input{
		Taskbar:         tb,
		IsMain:          isMain,
		Monitor:         wc.Monitor,
		Style:           wc.Style,
		Alignment:       wc.Alignment,
		AutoPadding:     wc.AutoPadding,
		DynamicPosition: wc.DynamicPosition,
		ManualOffset:    wc.ManualOffset,
		Title:           w.st.title,
		Artist:          w.st.artist,
		ShowTime:        wc.ShowTime && w.st.timeRendered,
		ShowControls:    wc.ControlsEnabled && w.st.controlsRendered,
	})
	if !ok {
		return
	}
	if err := w.shell.Place(w.embed.Surface(), res.Client); err != nil {
		w.logger.Warn("failed to place surface", "error", err)
		return
	}

	moved := !w.st.placed || res.Client != w.st.rect
	w.st.taskbar = tb
	w.st.isMain = isMain
	w.st.rect = res.Client
	w.st.placed = true
	if moved || res.AvailableText != w.st.availableText {
		w.st.availableText = res.AvailableText
		w.logger.Debug("surface placed", "rect", res.Client, "main", isMain)
		w.render()
	}
	w.applyVisibility()
}

func (w *Widget) policy() visibility.Policy {
	return visibility.Policy{
		HideOnMaximized:     w.cfg.Widget.HideOnMaximized,
		DisableIfFullscreen: w.cfg.Widget.DisableIfFullscreen,
	}
}

func (w *Widget) visibilityTick() {
	p := w.policy()
	if !p.Enabled() || !w.cfg.Widget.Active() {
		if w.monitor.Release() {
			w.applyVisibility()
		}
		return
	}

	var target *platform.Monitor
	monitors, err := w.shell.Monitors()
	if err == nil {
		if tb, _ := w.locator.Resolve(w.cfg.Widget.Monitor, monitors); tb != 0 {
			if m, ok := w.shell.MonitorFromWindow(tb); ok {
				target = &m
			}
		}
	}

	switch w.monitor.Update(w.detector.ShouldHide(p, target)) {
	case visibility.Hide:
		w.logger.Debug("foreground covers taskbar, hiding")
		w.applyVisibility()
	case visibility.Show:
		w.logger.Debug("foreground no longer covers taskbar, showing")
		w.applyVisibility()
	}
}

// applyVisibility shows or hides the surface when the effective visibility
// changed.
func (w *Widget) applyVisibility() {
	want := w.cfg.Widget.Active() && w.st.contentVisible && w.st.placed && !w.monitor.Hidden()
	if want == w.st.visible {
		return
	}
	h := w.embed.Surface()
	if h == 0 {
		return
	}
	if err := w.shell.Show(h, want); err != nil {
		w.logger.Warn("failed to change surface visibility", "visible", want, "error", err)
		return
	}
	w.st.visible = want
}

func (w *Widget) clockTick() {
	if !w.cfg.Widget.ShowTime || w.st.lastTimeline == nil || w.st.paused {
		w.clockTimer.Stop()
		return
	}
	w.st.timeText = w.st.lastTimeline.Format(w.now(), w.st.paused)
	w.render()
	// The readout width can change, e.g. 9:59 -> 10:00.
	w.requestGeometry()
}

func (w *Widget) render() {
	w.view.Render(w.snapshot())
	w.st.animate = false
}

func (w *Widget) snapshot() Snapshot {
	wc := w.cfg.Widget
	return Snapshot{
		Visible:         w.st.visible,
		Style:           wc.Style,
		Title:           w.st.title,
		Artist:          w.st.artist,
		ArtistVisible:   w.st.artistVisible,
		Icon:            w.st.icon,
		Placeholder:     !w.st.hasMedia || len(w.st.icon) == 0 || w.st.paused,
		Paused:          w.st.paused,
		Controls:        w.st.controls,
		ControlsVisible: wc.ControlsEnabled && w.st.controlsRendered,
		TimeText:        w.st.timeText,
		TimeVisible:     wc.ShowTime && w.st.timeRendered,
		AvailableText:   w.st.availableText,
		Animate:         w.st.animate,
	}
}

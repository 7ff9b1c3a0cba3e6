package widget

import (
	"github.com/1broseidon/taskbarwidget/internal/config"
	"github.com/1broseidon/taskbarwidget/internal/platform"
)

// UpdateContent applies a media content update.
func (w *Widget) UpdateContent(c Content) {
	w.st.paused = c.Status != StatusPlaying

	if !w.cfg.Widget.Active() {
		w.stopTimers()
		w.applyVisibility()
		return
	}
	if !w.recovery.Exhausted() {
		w.startTimers()
	}

	if c.IsNoMedia() {
		w.clearContent()
		return
	}

	wc := w.cfg.Widget
	if wc.ControlsEnabled && c.Controls != nil {
		w.st.controls = *c.Controls
	} else {
		w.st.controls = Controls{}
	}

	title, artist := c.Title, c.Artist
	if title == "" {
		title = NoMedia
	}
	if artist == "" {
		artist = NoMedia
	}
	sameTrack := w.st.hasMedia && w.st.title == title && w.st.artist == artist
	if wc.Animated && w.st.title != title && w.st.artist != artist {
		w.st.animate = true
	}

	w.st.title = title
	w.st.artist = artist
	w.st.artistVisible = c.Artist != ""
	w.st.icon = c.Icon
	w.st.hasMedia = true
	w.st.controlsRendered = wc.ControlsEnabled

	if wc.ShowTime {
		tl := c.Timeline
		if tl == nil && sameTrack {
			tl = w.st.lastTimeline
		}
		w.applyTimeline(tl)
	} else {
		w.st.lastTimeline = nil
		w.st.timeRendered = false
		w.st.timeText = ""
		w.clockTimer.Stop()
	}

	w.st.contentVisible = true
	w.applyVisibility()
	w.render()
	w.requestGeometry()
}

func (w *Widget) clearContent() {
	w.st.hasMedia = false
	w.clockTimer.Stop()

	w.st.title = ""
	w.st.artist = ""
	w.st.artistVisible = false
	w.st.icon = nil
	w.st.controls = Controls{}
	w.st.controlsRendered = false
	w.st.lastTimeline = nil
	w.st.timeRendered = false
	w.st.timeText = ""

	if w.cfg.Widget.HideCompletely {
		w.st.contentVisible = false
		w.applyVisibility()
		return
	}

	w.st.contentVisible = true
	w.render()
	w.requestGeometry()
	w.applyVisibility()
}

// applyTimeline shows tl when it is long enough and runs the clock while
// playing.
func (w *Widget) applyTimeline(tl *Timeline) {
	if tl == nil || !tl.Displayable() {
		w.st.lastTimeline = nil
		w.clockTimer.Stop()
		w.st.timeRendered = false
		w.st.timeText = ""
		return
	}
	w.st.lastTimeline = tl
	w.st.timeRendered = true
	w.st.timeText = tl.Format(w.now(), w.st.paused)

	if w.st.paused {
		if w.clockTimer.Enabled() {
			w.logger.Debug("stopping clock", "paused", true)
			w.clockTimer.Stop()
		}
		return
	}
	if !w.clockTimer.Enabled() {
		w.logger.Debug("starting clock", "paused", false)
		w.clockTimer.Start()
	}
}

// UpdateTimeline replaces the timeline snapshot without touching the rest of
// the content.
func (w *Widget) UpdateTimeline(tl Timeline) {
	if !w.cfg.Widget.ShowTime || !w.cfg.Widget.Active() {
		return
	}
	wasRendered := w.st.timeRendered
	if w.st.hasMedia {
		w.applyTimeline(&tl)
	} else {
		w.st.lastTimeline = &tl
	}
	w.render()
	if wasRendered != w.st.timeRendered || w.st.timeRendered {
		w.requestGeometry()
	}
}

// Reconfigure applies a new configuration.
func (w *Widget) Reconfigure(cfg *config.Config) {
	old := w.cfg
	w.cfg = cfg

	if old.Widget.Monitor != cfg.Widget.Monitor {
		w.logger.Info("monitor selection changed", "from", old.Widget.Monitor, "to", cfg.Widget.Monitor)
		w.probe.Invalidate()
		w.tray.Invalidate()
	}
	w.locator.SetClasses(locatorClasses(cfg))
	w.calc.SetConfig(cfg)
	w.detector.SetIgnored(cfg.Shell.IgnoredForegroundClasses)
	w.recovery.SetLimits(cfg.Timing.RecoveryDelay, cfg.Timing.MaxRecoveryAttempts)

	if old.Timing.GeometryInterval != cfg.Timing.GeometryInterval ||
		old.Timing.VisibilityInterval != cfg.Timing.VisibilityInterval ||
		old.Timing.ClockInterval != cfg.Timing.ClockInterval {
		clockOn := w.clockTimer.Enabled()
		w.stopTimers()
		w.newTimers()
		if clockOn {
			w.clockTimer.Start()
		}
	}

	if !cfg.Widget.Active() {
		w.stopTimers()
		w.applyVisibility()
		return
	}

	if !cfg.Widget.ShowTime {
		w.st.lastTimeline = nil
		w.st.timeRendered = false
		w.st.timeText = ""
		w.clockTimer.Stop()
	}
	if !cfg.Widget.ControlsEnabled {
		w.st.controlsRendered = false
		w.st.controls = Controls{}
	}
	if !w.st.hasMedia {
		w.st.contentVisible = !cfg.Widget.HideCompletely
	}

	if !w.recovery.Exhausted() && w.embed.Surface() != 0 {
		w.startTimers()
	}
	w.applyVisibility()
	w.render()
	w.requestGeometry()
}

// Status is a point-in-time view of the widget for diagnostics.
type Status struct {
	Active             bool             `json:"active"`
	Visible            bool             `json:"visible"`
	HiddenForMaximized bool             `json:"hidden_for_maximized"`
	Embedded           bool             `json:"embedded"`
	Surface            uint64           `json:"surface"`
	Taskbar            uint64           `json:"taskbar"`
	IsMainTaskbar      bool             `json:"is_main_taskbar"`
	Monitor            int              `json:"monitor"`
	Rect               platform.Rect    `json:"rect"`
	Style              config.Style     `json:"style"`
	Alignment          config.Alignment `json:"alignment"`
	Title              string           `json:"title"`
	Artist             string           `json:"artist"`
	Paused             bool             `json:"paused"`
	TimeText           string           `json:"time_text,omitempty"`
	RecoveryAttempts   int              `json:"recovery_attempts"`
	RecoveryExhausted  bool             `json:"recovery_exhausted"`
	GeometryTimer      bool             `json:"geometry_timer"`
	VisibilityTimer    bool             `json:"visibility_timer"`
	ClockTimer         bool             `json:"clock_timer"`
}

// Status reports the current state.
func (w *Widget) Status() Status {
	return Status{
		Active:             w.cfg.Widget.Active(),
		Visible:            w.st.visible,
		HiddenForMaximized: w.monitor.Hidden(),
		Embedded:           w.st.placed && !w.embed.IsLost(),
		Surface:            uint64(w.embed.Surface()),
		Taskbar:            uint64(w.st.taskbar),
		IsMainTaskbar:      w.st.isMain,
		Monitor:            w.cfg.Widget.Monitor,
		Rect:               w.st.rect,
		Style:              w.cfg.Widget.Style,
		Alignment:          w.cfg.Widget.Alignment,
		Title:              w.st.title,
		Artist:             w.st.artist,
		Paused:             w.st.paused,
		TimeText:           w.st.timeText,
		RecoveryAttempts:   w.recovery.Attempts(),
		RecoveryExhausted:  w.recovery.Exhausted(),
		GeometryTimer:      w.geometryTimer.Enabled(),
		VisibilityTimer:    w.visibilityTimer.Enabled(),
		ClockTimer:         w.clockTimer.Enabled(),
	}
}

// Package visibility decides when the widget must step aside for a
// maximized or fullscreen foreground window.
package visibility

import (
	"log/slog"

	"github.com/1broseidon/taskbarwidget/internal/platform"
)

// Host is the slice of the shell the detector reads.
type Host interface {
	ForegroundWindow() platform.Handle
	ClassName(h platform.Handle) string
	MonitorFromWindow(h platform.Handle) (platform.Monitor, bool)
	ShowState(h platform.Handle) (platform.ShowState, bool)
	NotificationState() (platform.NotificationState, error)
}

// Policy selects which signals hide the widget.
type Policy struct {
	HideOnMaximized     bool
	DisableIfFullscreen bool
}

// Enabled reports whether any signal is active.
func (p Policy) Enabled() bool {
	return p.HideOnMaximized || p.DisableIfFullscreen
}

// Detector reads foreground window and shell notification state.
type Detector struct {
	host    Host
	ignored map[string]struct{}
	logger  *slog.Logger
}

// NewDetector creates a detector that never treats the given window classes
// as covering the taskbar.
func NewDetector(host Host, ignoredClasses []string, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Detector{host: host, logger: logger.With("component", "fullscreen-detector")}
	d.SetIgnored(ignoredClasses)
	return d
}

// SetIgnored replaces the ignored window classes.
func (d *Detector) SetIgnored(classes []string) {
	d.ignored = make(map[string]struct{}, len(classes))
	for _, c := range classes {
		d.ignored[c] = struct{}{}
	}
}

func (d *Detector) notificationState() (platform.NotificationState, bool) {
	state, err := d.host.NotificationState()
	if err != nil {
		d.logger.Warn("failed to query notification state", "error", err)
		return 0, false
	}
	return state, true
}

// ExclusiveFullscreen reports whether an exclusive fullscreen application is
// running. Query failures report false.
func (d *Detector) ExclusiveFullscreen() bool {
	state, ok := d.notificationState()
	return ok && state == platform.NotificationRunningD3DFullscreen
}

// ForegroundCovering reports whether the foreground window on target is
// maximized or fullscreen. A nil target accepts any monitor.
func (d *Detector) ForegroundCovering(target *platform.Monitor) bool {
	fg := d.host.ForegroundWindow()
	if fg == 0 {
		return false
	}
	if _, skip := d.ignored[d.host.ClassName(fg)]; skip {
		return false
	}
	if target != nil {
		m, ok := d.host.MonitorFromWindow(fg)
		if !ok || m.DeviceID != target.DeviceID {
			return false
		}
	}

	if state, ok := d.host.ShowState(fg); ok && state == platform.ShowMaximized {
		return true
	}
	state, ok := d.notificationState()
	if !ok {
		return false
	}
	return state == platform.NotificationRunningD3DFullscreen || state == platform.NotificationPresentationMode
}

// ShouldHide combines both signals under p.
func (d *Detector) ShouldHide(p Policy, target *platform.Monitor) bool {
	if p.HideOnMaximized && d.ForegroundCovering(target) {
		return true
	}
	return p.DisableIfFullscreen && d.ExclusiveFullscreen()
}

// Package taskbar resolves the shell taskbar surface for a selected monitor.
package taskbar

import (
	"log/slog"

	"github.com/1broseidon/taskbarwidget/internal/platform"
)

// Classes names the shell taskbar window classes.
type Classes struct {
	Main      string
	Secondary string
}

// Locator resolves taskbar surfaces. It holds no cached handles; shell
// windows are looked up fresh on every call.
type Locator struct {
	windows  platform.Windows
	displays platform.Displays
	classes  Classes
	logger   *slog.Logger
}

// NewLocator creates a locator over the given shell primitives.
func NewLocator(windows platform.Windows, displays platform.Displays, classes Classes, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		windows:  windows,
		displays: displays,
		classes:  classes,
		logger:   logger.With("component", "taskbar-locator"),
	}
}

// SetClasses replaces the class names used for lookups.
func (l *Locator) SetClasses(classes Classes) {
	l.classes = classes
}

// SelectMonitor clamps index into monitors. ok is false when there are none.
func SelectMonitor(index int, monitors []platform.Monitor) (platform.Monitor, bool) {
	if len(monitors) == 0 {
		return platform.Monitor{}, false
	}
	if index < 0 {
		index = 0
	}
	if index > len(monitors)-1 {
		index = len(monitors) - 1
	}
	return monitors[index], true
}

// Resolve returns the taskbar surface on the selected monitor and whether it
// is the main taskbar. It never fails: when no secondary taskbar matches, the
// main taskbar is returned, and a zero handle means nothing could be found.
func (l *Locator) Resolve(selection int, monitors []platform.Monitor) (platform.Handle, bool) {
	main := l.windows.FindWindow(l.classes.Main)

	selected, ok := SelectMonitor(selection, monitors)
	if !ok || len(monitors) == 1 {
		return main, true
	}
	if main != 0 && l.onMonitor(main, selected) {
		return main, true
	}

	if len(monitors) == 2 {
		h := l.windows.FindWindow(l.classes.Secondary)
		if h != 0 && l.onMonitor(h, selected) {
			return h, false
		}
		l.logger.Debug("secondary taskbar not on selected monitor, using main", "monitor", selected.DeviceID)
		return main, true
	}

	match := func(h platform.Handle) bool {
		return l.windows.ClassName(h) == l.classes.Secondary && l.onMonitor(h, selected)
	}

	var found platform.Handle
	// Secondary taskbars are normally created on the main taskbar's thread.
	if main != 0 {
		if thread := l.windows.WindowThread(main); thread != 0 {
			l.windows.EnumThreadWindows(thread, func(h platform.Handle) bool {
				if match(h) {
					found = h
					return false
				}
				return true
			})
		}
	}
	if found == 0 {
		l.windows.EnumWindows(func(h platform.Handle) bool {
			if match(h) {
				found = h
				return false
			}
			return true
		})
	}
	if found != 0 {
		return found, false
	}

	l.logger.Debug("no taskbar on selected monitor, using main", "monitor", selected.DeviceID)
	return main, true
}

func (l *Locator) onMonitor(h platform.Handle, m platform.Monitor) bool {
	got, ok := l.displays.MonitorFromWindow(h)
	return ok && got.DeviceID == m.DeviceID
}

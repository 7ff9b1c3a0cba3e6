//go:build linux

package platform

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/taskbarwidget/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
)

const (
	windowTypeDock    = "_NET_WM_WINDOW_TYPE_DOCK"
	windowTypeDesktop = "_NET_WM_WINDOW_TYPE_DESKTOP"

	stateHidden        = "_NET_WM_STATE_HIDDEN"
	stateFullscreen    = "_NET_WM_STATE_FULLSCREEN"
	stateMaximizedVert = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateMaximizedHorz = "_NET_WM_STATE_MAXIMIZED_HORZ"

	surfaceClass = "TaskbarWidgetSurface"
)

// LinuxShell maps an EWMH desktop onto the Shell interface. Dock windows
// stand in for taskbars: the dock on the primary monitor reports the main
// taskbar class and docks elsewhere report the secondary class. Desktop
// windows report the first configured desktop class. There is no automation
// tree, so element probes come back empty.
type LinuxShell struct {
	conn   *x11.Connection
	opts   Options
	logger *slog.Logger
}

var _ Shell = (*LinuxShell)(nil)

// NewShell returns the shell adapter for the running platform.
func NewShell(opts Options, logger *slog.Logger) (Shell, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxShell(conn, opts, logger), nil
}

// NewLinuxShell wraps an existing X11 connection.
func NewLinuxShell(conn *x11.Connection, opts Options, logger *slog.Logger) *LinuxShell {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinuxShell{conn: conn, opts: opts, logger: logger.With("component", "shell")}
}

func (s *LinuxShell) FindWindow(class string) Handle {
	for _, w := range s.conn.TopLevelWindows() {
		if s.classOf(w) == class {
			return Handle(w)
		}
	}
	return 0
}

func (s *LinuxShell) FindChildWindow(parent Handle, class string) Handle {
	for _, w := range s.conn.Children(xproto.Window(parent)) {
		if s.conn.WindowClass(w) == class {
			return Handle(w)
		}
	}
	return 0
}

func (s *LinuxShell) ClassName(h Handle) string {
	return s.classOf(xproto.Window(h))
}

// WindowThread returns the owning process id; X11 has no thread affinity.
func (s *LinuxShell) WindowThread(h Handle) uint32 {
	return s.conn.WindowPID(xproto.Window(h))
}

func (s *LinuxShell) EnumThreadWindows(thread uint32, fn func(Handle) bool) {
	if thread == 0 {
		return
	}
	for _, w := range s.conn.TopLevelWindows() {
		if s.conn.WindowPID(w) != thread {
			continue
		}
		if !fn(Handle(w)) {
			return
		}
	}
}

func (s *LinuxShell) EnumWindows(fn func(Handle) bool) {
	for _, w := range s.conn.TopLevelWindows() {
		if !fn(Handle(w)) {
			return
		}
	}
}

func (s *LinuxShell) IsWindow(h Handle) bool {
	return s.conn.Exists(xproto.Window(h))
}

func (s *LinuxShell) WindowRect(h Handle) (Rect, bool) {
	g, ok := s.conn.WindowGeometry(xproto.Window(h))
	if !ok {
		return Rect{}, false
	}
	return Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}, true
}

func (s *LinuxShell) Monitors() ([]Monitor, error) {
	monitors, err := s.conn.GetMonitors()
	if err != nil {
		return nil, err
	}
	out := make([]Monitor, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, Monitor{
			DeviceID: m.Name,
			Bounds:   Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height},
			Primary:  m.Primary,
		})
	}
	return out, nil
}

func (s *LinuxShell) MonitorFromWindow(h Handle) (Monitor, bool) {
	rect, ok := s.WindowRect(h)
	if !ok {
		return Monitor{}, false
	}
	monitors, err := s.Monitors()
	if err != nil {
		return Monitor{}, false
	}
	return NearestMonitor(monitors, rect)
}

func (s *LinuxShell) DPI(Handle) int {
	return s.conn.DPI()
}

func (s *LinuxShell) Parent(h Handle) Handle {
	return Handle(s.conn.Parent(xproto.Window(h)))
}

func (s *LinuxShell) SetParent(child, parent Handle) error {
	if !s.IsWindow(child) {
		return ErrWindowGone
	}
	target := xproto.Window(parent)
	if target == 0 {
		target = s.conn.Root
	}
	if err := s.conn.Reparent(xproto.Window(child), target); err != nil {
		return fmt.Errorf("reparent %#x: %w", child, err)
	}
	return nil
}

// MakeChild marks the surface override-redirect so the window manager never
// frames or moves it once it lives inside the dock.
func (s *LinuxShell) MakeChild(h Handle) error {
	if !s.IsWindow(h) {
		return ErrWindowGone
	}
	return s.conn.SetOverrideRedirect(xproto.Window(h))
}

func (s *LinuxShell) SetHitTestable(h Handle) error {
	if !s.IsWindow(h) {
		return ErrWindowGone
	}
	return s.conn.SelectPointerEvents(xproto.Window(h))
}

// InstallMessageFilter accepts the filter for interface parity. X11 delivers
// no accessibility, IME or window-position negotiation to this client, so
// there is nothing to route through it.
func (s *LinuxShell) InstallMessageFilter(h Handle, _ func(uint32) bool) error {
	if !s.IsWindow(h) {
		return ErrWindowGone
	}
	return nil
}

func (s *LinuxShell) ScreenToClient(h Handle, p Point) (Point, bool) {
	x, y, ok := s.conn.TranslateFromRoot(xproto.Window(h), p.X, p.Y)
	if !ok {
		return Point{}, false
	}
	return Point{X: x, Y: y}, true
}

func (s *LinuxShell) Place(h Handle, r Rect) error {
	w := xproto.Window(h)
	if err := s.conn.MoveResizeWindow(w, r.X, r.Y, r.Width, r.Height); err != nil {
		return fmt.Errorf("configure %#x: %w", h, err)
	}
	return nil
}

func (s *LinuxShell) Show(h Handle, visible bool) error {
	if !s.IsWindow(h) {
		return ErrWindowGone
	}
	return s.conn.SetMapped(xproto.Window(h), visible)
}

func (s *LinuxShell) ForegroundWindow() Handle {
	w, err := s.conn.GetActiveWindow()
	if err != nil {
		return 0
	}
	return Handle(w)
}

func (s *LinuxShell) ShowState(h Handle) (ShowState, bool) {
	if !s.IsWindow(h) {
		return ShowNormal, false
	}
	states := s.conn.WindowStates(xproto.Window(h))
	switch {
	case states[stateHidden]:
		return ShowMinimized, true
	case states[stateMaximizedVert] && states[stateMaximizedHorz]:
		return ShowMaximized, true
	default:
		return ShowNormal, true
	}
}

// NotificationState reports a fullscreen foreground window as the exclusive
// fullscreen state, the closest EWMH equivalent.
func (s *LinuxShell) NotificationState() (NotificationState, error) {
	active, err := s.conn.GetActiveWindow()
	if err != nil || active == 0 {
		return NotificationAcceptsNotifications, nil
	}
	if s.conn.WindowStates(active)[stateFullscreen] {
		return NotificationRunningD3DFullscreen, nil
	}
	return NotificationAcceptsNotifications, nil
}

func (s *LinuxShell) CreateSurface() (Handle, error) {
	w, err := s.conn.CreateOverrideWindow(surfaceClass, s.opts.SurfaceTitle)
	if err != nil {
		return 0, fmt.Errorf("create widget surface: %w", err)
	}
	return Handle(w), nil
}

func (s *LinuxShell) DestroySurface(h Handle) error {
	if !s.IsWindow(h) {
		return nil
	}
	return s.conn.DestroyWindow(xproto.Window(h))
}

func (s *LinuxShell) Automation() Automation { return nil }

func (s *LinuxShell) Pump() {
	if n := s.conn.DrainEvents(); n > 0 {
		s.logger.Debug("drained x11 events", "count", n)
	}
}

func (s *LinuxShell) Close() error {
	s.conn.Close()
	return nil
}

func (s *LinuxShell) classOf(w xproto.Window) string {
	switch {
	case s.conn.HasWindowType(w, windowTypeDock):
		if m, ok := s.MonitorFromWindow(Handle(w)); ok && !m.Primary {
			return s.opts.SecondaryTaskbarClass
		}
		return s.opts.MainTaskbarClass
	case s.conn.HasWindowType(w, windowTypeDesktop) && len(s.opts.DesktopClasses) > 0:
		return s.opts.DesktopClasses[0]
	default:
		return s.conn.WindowClass(w)
	}
}

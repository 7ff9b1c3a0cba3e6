package platform

import "errors"

// Handle is a platform-neutral window handle. Zero means "no window".
type Handle uintptr

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// CenterX returns the horizontal midpoint.
func (r Rect) CenterX() int { return r.X + r.Width/2 }

// Point is a position in screen or client coordinates.
type Point struct {
	X int
	Y int
}

// Monitor describes a physical display. DeviceID is stable for the lifetime
// of an enumeration pass and is what monitor matching compares.
type Monitor struct {
	DeviceID string
	Bounds   Rect
	Primary  bool
}

// ShowState is the restore state of a top-level window.
type ShowState int

const (
	ShowNormal ShowState = iota
	ShowMinimized
	ShowMaximized
)

func (s ShowState) String() string {
	switch s {
	case ShowMinimized:
		return "minimized"
	case ShowMaximized:
		return "maximized"
	default:
		return "normal"
	}
}

// NotificationState mirrors the shell's user notification state values.
type NotificationState int

const (
	NotificationNotPresent NotificationState = iota + 1
	NotificationBusy
	NotificationRunningD3DFullscreen
	NotificationPresentationMode
	NotificationAcceptsNotifications
	NotificationQuietTime
	NotificationApp
)

func (s NotificationState) String() string {
	switch s {
	case NotificationNotPresent:
		return "not-present"
	case NotificationBusy:
		return "busy"
	case NotificationRunningD3DFullscreen:
		return "d3d-fullscreen"
	case NotificationPresentationMode:
		return "presentation-mode"
	case NotificationAcceptsNotifications:
		return "accepts-notifications"
	case NotificationQuietTime:
		return "quiet-time"
	case NotificationApp:
		return "app"
	default:
		return "unknown"
	}
}

var (
	// ErrWindowNotFound means a window lookup matched nothing.
	ErrWindowNotFound = errors.New("window not found")

	// ErrWindowGone means the handle no longer refers to a live window.
	ErrWindowGone = errors.New("window is gone or invalid")

	// ErrElementStale means a cached automation element no longer exists.
	ErrElementStale = errors.New("automation element not available")

	// ErrUnsupported means the running platform has no shell adapter.
	ErrUnsupported = errors.New("platform not supported")
)

// Windows covers window topology queries.
type Windows interface {
	FindWindow(class string) Handle
	FindChildWindow(parent Handle, class string) Handle
	ClassName(h Handle) string
	WindowThread(h Handle) uint32
	// EnumThreadWindows calls fn for each top-level window owned by thread
	// until fn returns false.
	EnumThreadWindows(thread uint32, fn func(Handle) bool)
	EnumWindows(fn func(Handle) bool)
	IsWindow(h Handle) bool
	WindowRect(h Handle) (Rect, bool)
}

// Displays covers monitor enumeration and scaling.
type Displays interface {
	Monitors() ([]Monitor, error)
	// MonitorFromWindow returns the monitor nearest to the window.
	MonitorFromWindow(h Handle) (Monitor, bool)
	DPI(h Handle) int
}

// Embedder covers reparenting of the widget surface.
type Embedder interface {
	Parent(h Handle) Handle
	SetParent(child, parent Handle) error
	// MakeChild clears the top-level popup bit and sets the child bit.
	MakeChild(h Handle) error
	// SetHitTestable makes empty regions of the surface receive pointer events.
	SetHitTestable(h Handle) error
	// InstallMessageFilter routes every message for h through suppress;
	// messages for which it returns true are swallowed.
	InstallMessageFilter(h Handle, suppress func(msg uint32) bool) error
}

// Placer positions the widget surface inside its parent.
type Placer interface {
	ScreenToClient(h Handle, p Point) (Point, bool)
	// Place applies a client-space rectangle without z-order, activation or
	// visibility changes.
	Place(h Handle, r Rect) error
	Show(h Handle, visible bool) error
}

// Foreground covers the signals used by fullscreen detection.
type Foreground interface {
	ForegroundWindow() Handle
	ShowState(h Handle) (ShowState, bool)
	NotificationState() (NotificationState, error)
}

// Surfaces creates and destroys the widget's own window.
type Surfaces interface {
	CreateSurface() (Handle, error)
	DestroySurface(h Handle) error
}

// Automation is targeted access to the shell's accessibility tree.
type Automation interface {
	// FindByAutomationID returns the first descendant of root with the given
	// automation id, or (nil, nil) when there is none.
	FindByAutomationID(root Handle, id string) (Element, error)
	// FindButtons returns all button-typed descendants of root.
	FindButtons(root Handle) ([]Element, error)
}

// Element is a live reference into the automation tree.
type Element interface {
	// BoundingRect returns ErrElementStale when the element is gone.
	BoundingRect() (Rect, error)
	Release()
}

// Shell is everything the widget engine needs from the desktop shell.
type Shell interface {
	Windows
	Displays
	Embedder
	Placer
	Foreground
	Surfaces

	// Automation returns nil when the platform exposes no automation tree.
	Automation() Automation
	// Pump drains pending window-system events. It must run on the thread
	// that created the surfaces.
	Pump()
	Close() error
}

// Options configures shell adapters.
type Options struct {
	MainTaskbarClass      string
	SecondaryTaskbarClass string
	DesktopClasses        []string
	SurfaceTitle          string
}

func containsPoint(r Rect, x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// NearestMonitor returns the monitor containing the center of r, falling back
// to the monitor with the closest center.
func NearestMonitor(monitors []Monitor, r Rect) (Monitor, bool) {
	if len(monitors) == 0 {
		return Monitor{}, false
	}
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	for _, m := range monitors {
		if containsPoint(m.Bounds, cx, cy) {
			return m, true
		}
	}
	best := monitors[0]
	bestDist := -1
	for _, m := range monitors {
		dx := m.Bounds.X + m.Bounds.Width/2 - cx
		dy := m.Bounds.Y + m.Bounds.Height/2 - cy
		d := dx*dx + dy*dy
		if bestDist < 0 || d < bestDist {
			best, bestDist = m, d
		}
	}
	return best, true
}

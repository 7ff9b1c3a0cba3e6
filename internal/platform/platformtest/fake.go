// Package platformtest provides an in-memory platform.Shell for tests.
package platformtest

import (
	"github.com/1broseidon/taskbarwidget/internal/platform"
)

// Window is a fake top-level or child window.
type Window struct {
	Class     string
	Thread    uint32
	Rect      platform.Rect
	Parent    platform.Handle
	Child     bool
	Visible   bool
	ShowState platform.ShowState
}

// Shell is a scriptable platform.Shell. It is not safe for concurrent use.
type Shell struct {
	Windows  map[platform.Handle]*Window
	Order    []platform.Handle
	Monitor  []platform.Monitor
	DPIValue int

	Foreground      platform.Handle
	Notification    platform.NotificationState
	NotificationErr error

	Auto *Automation

	Filters     map[platform.Handle]func(uint32) bool
	HitTestable map[platform.Handle]bool
	Placed      map[platform.Handle]platform.Rect
	ShowCalls   []bool

	PlaceCalls     int
	SetParentCalls int
	MakeChildCalls int
	CreateErr      error
	Created        int
	Destroyed      int
	Pumps          int

	next platform.Handle
}

var _ platform.Shell = (*Shell)(nil)

// New returns an empty fake shell at 96 DPI.
func New() *Shell {
	return &Shell{
		Windows:      make(map[platform.Handle]*Window),
		DPIValue:     96,
		Notification: platform.NotificationAcceptsNotifications,
		Filters:      make(map[platform.Handle]func(uint32) bool),
		HitTestable:  make(map[platform.Handle]bool),
		Placed:       make(map[platform.Handle]platform.Rect),
		next:         0x100,
	}
}

// AddWindow registers w and returns its handle.
func (s *Shell) AddWindow(w Window) platform.Handle {
	s.next += 0x10
	h := s.next
	cp := w
	s.Windows[h] = &cp
	s.Order = append(s.Order, h)
	return h
}

// Remove destroys h.
func (s *Shell) Remove(h platform.Handle) {
	delete(s.Windows, h)
	for i, o := range s.Order {
		if o == h {
			s.Order = append(s.Order[:i], s.Order[i+1:]...)
			break
		}
	}
}

func (s *Shell) FindWindow(class string) platform.Handle {
	for _, h := range s.Order {
		w := s.Windows[h]
		if w.Class == class && w.Parent == 0 {
			return h
		}
	}
	return 0
}

func (s *Shell) FindChildWindow(parent platform.Handle, class string) platform.Handle {
	for _, h := range s.Order {
		w := s.Windows[h]
		if w.Parent == parent && w.Class == class {
			return h
		}
	}
	return 0
}

func (s *Shell) ClassName(h platform.Handle) string {
	if w, ok := s.Windows[h]; ok {
		return w.Class
	}
	return ""
}

func (s *Shell) WindowThread(h platform.Handle) uint32 {
	if w, ok := s.Windows[h]; ok {
		return w.Thread
	}
	return 0
}

func (s *Shell) EnumThreadWindows(thread uint32, fn func(platform.Handle) bool) {
	for _, h := range append([]platform.Handle(nil), s.Order...) {
		w := s.Windows[h]
		if w == nil || w.Parent != 0 || w.Thread != thread {
			continue
		}
		if !fn(h) {
			return
		}
	}
}

func (s *Shell) EnumWindows(fn func(platform.Handle) bool) {
	for _, h := range append([]platform.Handle(nil), s.Order...) {
		w := s.Windows[h]
		if w == nil || w.Parent != 0 {
			continue
		}
		if !fn(h) {
			return
		}
	}
}

func (s *Shell) IsWindow(h platform.Handle) bool {
	_, ok := s.Windows[h]
	return ok
}

func (s *Shell) WindowRect(h platform.Handle) (platform.Rect, bool) {
	w, ok := s.Windows[h]
	if !ok {
		return platform.Rect{}, false
	}
	return w.Rect, true
}

func (s *Shell) Monitors() ([]platform.Monitor, error) {
	return append([]platform.Monitor(nil), s.Monitor...), nil
}

func (s *Shell) MonitorFromWindow(h platform.Handle) (platform.Monitor, bool) {
	w, ok := s.Windows[h]
	if !ok {
		return platform.Monitor{}, false
	}
	return platform.NearestMonitor(s.Monitor, w.Rect)
}

func (s *Shell) DPI(platform.Handle) int { return s.DPIValue }

func (s *Shell) Parent(h platform.Handle) platform.Handle {
	if w, ok := s.Windows[h]; ok {
		return w.Parent
	}
	return 0
}

func (s *Shell) SetParent(child, parent platform.Handle) error {
	s.SetParentCalls++
	w, ok := s.Windows[child]
	if !ok {
		return platform.ErrWindowGone
	}
	w.Parent = parent
	return nil
}

func (s *Shell) MakeChild(h platform.Handle) error {
	s.MakeChildCalls++
	w, ok := s.Windows[h]
	if !ok {
		return platform.ErrWindowGone
	}
	w.Child = true
	return nil
}

func (s *Shell) SetHitTestable(h platform.Handle) error {
	s.HitTestable[h] = true
	return nil
}

func (s *Shell) InstallMessageFilter(h platform.Handle, suppress func(uint32) bool) error {
	s.Filters[h] = suppress
	return nil
}

// ScreenToClient treats the window origin as the client origin.
func (s *Shell) ScreenToClient(h platform.Handle, p platform.Point) (platform.Point, bool) {
	w, ok := s.Windows[h]
	if !ok {
		return platform.Point{}, false
	}
	return platform.Point{X: p.X - w.Rect.X, Y: p.Y - w.Rect.Y}, true
}

func (s *Shell) Place(h platform.Handle, r platform.Rect) error {
	s.PlaceCalls++
	if _, ok := s.Windows[h]; !ok {
		return platform.ErrWindowGone
	}
	s.Placed[h] = r
	return nil
}

func (s *Shell) Show(h platform.Handle, visible bool) error {
	s.ShowCalls = append(s.ShowCalls, visible)
	w, ok := s.Windows[h]
	if !ok {
		return platform.ErrWindowGone
	}
	w.Visible = visible
	return nil
}

func (s *Shell) ForegroundWindow() platform.Handle { return s.Foreground }

func (s *Shell) ShowState(h platform.Handle) (platform.ShowState, bool) {
	w, ok := s.Windows[h]
	if !ok {
		return platform.ShowNormal, false
	}
	return w.ShowState, true
}

func (s *Shell) NotificationState() (platform.NotificationState, error) {
	return s.Notification, s.NotificationErr
}

func (s *Shell) CreateSurface() (platform.Handle, error) {
	if s.CreateErr != nil {
		return 0, s.CreateErr
	}
	s.Created++
	return s.AddWindow(Window{Class: "TaskbarWidgetSurface"}), nil
}

func (s *Shell) DestroySurface(h platform.Handle) error {
	s.Destroyed++
	s.Remove(h)
	return nil
}

func (s *Shell) Automation() platform.Automation {
	if s.Auto == nil {
		return nil
	}
	return s.Auto
}

func (s *Shell) Pump() { s.Pumps++ }

func (s *Shell) Close() error { return nil }

// Automation is a fake automation tree keyed by automation id.
type Automation struct {
	ByID    map[string]*Element
	Buttons []*Element
	Err     error
	Lookups int
}

// NewAutomation returns an empty tree.
func NewAutomation() *Automation {
	return &Automation{ByID: make(map[string]*Element)}
}

func (a *Automation) FindByAutomationID(_ platform.Handle, id string) (platform.Element, error) {
	a.Lookups++
	if a.Err != nil {
		return nil, a.Err
	}
	e, ok := a.ByID[id]
	if !ok {
		return nil, nil
	}
	return e, nil
}

func (a *Automation) FindButtons(platform.Handle) ([]platform.Element, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	out := make([]platform.Element, 0, len(a.Buttons))
	for _, b := range a.Buttons {
		out = append(out, b)
	}
	return out, nil
}

// Element is a fake automation element.
type Element struct {
	Rect     platform.Rect
	Stale    bool
	Err      error
	Released bool
}

func (e *Element) BoundingRect() (platform.Rect, error) {
	if e.Stale {
		return platform.Rect{}, platform.ErrElementStale
	}
	if e.Err != nil {
		return platform.Rect{}, e.Err
	}
	return e.Rect, nil
}

func (e *Element) Release() { e.Released = true }

//go:build windows

package platform

import (
	"fmt"
	"log/slog"
	"runtime"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

var (
	user32  = windows.NewLazySystemDLL("user32.dll")
	shell32 = windows.NewLazySystemDLL("shell32.dll")

	procFindWindowExW                = user32.NewProc("FindWindowExW")
	procEnumWindows                  = user32.NewProc("EnumWindows")
	procEnumThreadWindows            = user32.NewProc("EnumThreadWindows")
	procEnumDisplayMonitors          = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW              = user32.NewProc("GetMonitorInfoW")
	procGetWindowPlacement           = user32.NewProc("GetWindowPlacement")
	procGetAncestor                  = user32.NewProc("GetAncestor")
	procGetDesktopWindow             = user32.NewProc("GetDesktopWindow")
	procSHQueryUserNotificationState = shell32.NewProc("SHQueryUserNotificationState")
)

const (
	surfaceClassName = "TaskbarWidgetSurface"

	gaParent = 1

	wsExToolWindow = 0x00000080
	wsExNoActivate = 0x08000000

	swpNoZOrder         = 0x0004
	swpNoActivate       = 0x0010
	swpAsyncWindowPos   = 0x4000
	monitorInfoFPrimary = 0x1

	swHide           = 0
	swShowMinimized  = 2
	swShowMaximized  = 3
	swShowNoActivate = 4

	wmNCHitTest = 0x0084
	htClient    = 1
)

type monitorInfoEx struct {
	CbSize    uint32
	RcMonitor win.RECT
	RcWork    win.RECT
	DwFlags   uint32
	SzDevice  [32]uint16
}

type windowPlacement struct {
	Length           uint32
	Flags            uint32
	ShowCmd          uint32
	PtMinPosition    win.POINT
	PtMaxPosition    win.POINT
	RcNormalPosition win.RECT
}

type enumContext struct {
	fn func(Handle) bool
}

type monitorEnumContext struct {
	monitors []win.HMONITOR
}

var (
	enumWindowsCallback  = syscall.NewCallback(enumWindowsProc)
	enumMonitorsCallback = syscall.NewCallback(enumMonitorsProc)
)

func enumWindowsProc(hwnd syscall.Handle, lParam uintptr) uintptr {
	if lParam == 0 {
		return 0
	}
	//nolint:unsafeptr // lParam is the context pointer handed to the enumerator
	ctx := (*enumContext)(unsafe.Pointer(lParam))
	if ctx.fn(Handle(hwnd)) {
		return 1
	}
	return 0
}

func enumMonitorsProc(hmon win.HMONITOR, _ win.HDC, _ *win.RECT, lParam uintptr) uintptr {
	//nolint:unsafeptr // lParam is the context pointer handed to the enumerator
	ctx := (*monitorEnumContext)(unsafe.Pointer(lParam))
	ctx.monitors = append(ctx.monitors, hmon)
	return 1
}

// WindowsShell implements Shell on top of user32, shell32 and UI Automation.
// All methods must be called from the thread that created it.
type WindowsShell struct {
	opts   Options
	logger *slog.Logger

	instance   win.HINSTANCE
	registered bool
	wndProc    uintptr

	filters     map[win.HWND]func(uint32) bool
	hitTestable map[win.HWND]bool

	automation     *uiAutomation
	automationInit bool
}

var _ Shell = (*WindowsShell)(nil)

// NewShell returns the shell adapter for the running platform.
func NewShell(opts Options, logger *slog.Logger) (Shell, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &WindowsShell{
		opts:        opts,
		logger:      logger.With("component", "shell"),
		instance:    win.GetModuleHandle(nil),
		filters:     make(map[win.HWND]func(uint32) bool),
		hitTestable: make(map[win.HWND]bool),
	}
	s.wndProc = syscall.NewCallback(s.surfaceProc)
	return s, nil
}

func (s *WindowsShell) FindWindow(class string) Handle {
	return Handle(win.FindWindow(utf16Ptr(class), nil))
}

func (s *WindowsShell) FindChildWindow(parent Handle, class string) Handle {
	r, _, _ := procFindWindowExW.Call(uintptr(parent), 0, uintptr(unsafe.Pointer(utf16Ptr(class))), 0)
	return Handle(r)
}

func (s *WindowsShell) ClassName(h Handle) string {
	var buf [256]uint16
	n, err := windows.GetClassName(windows.HWND(h), &buf[0], int32(len(buf)))
	if err != nil || n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

func (s *WindowsShell) WindowThread(h Handle) uint32 {
	tid, err := windows.GetWindowThreadProcessId(windows.HWND(h), nil)
	if err != nil {
		return 0
	}
	return tid
}

func (s *WindowsShell) EnumThreadWindows(thread uint32, fn func(Handle) bool) {
	ctx := &enumContext{fn: fn}
	procEnumThreadWindows.Call(uintptr(thread), enumWindowsCallback, uintptr(unsafe.Pointer(ctx)))
	runtime.KeepAlive(ctx)
}

func (s *WindowsShell) EnumWindows(fn func(Handle) bool) {
	ctx := &enumContext{fn: fn}
	procEnumWindows.Call(enumWindowsCallback, uintptr(unsafe.Pointer(ctx)))
	runtime.KeepAlive(ctx)
}

func (s *WindowsShell) IsWindow(h Handle) bool {
	return h != 0 && win.IsWindow(win.HWND(h))
}

func (s *WindowsShell) WindowRect(h Handle) (Rect, bool) {
	var r win.RECT
	if !win.GetWindowRect(win.HWND(h), &r) {
		return Rect{}, false
	}
	return rectFromWin(r), true
}

func (s *WindowsShell) Monitors() ([]Monitor, error) {
	ctx := &monitorEnumContext{}
	r, _, err := procEnumDisplayMonitors.Call(0, 0, enumMonitorsCallback, uintptr(unsafe.Pointer(ctx)))
	runtime.KeepAlive(ctx)
	if r == 0 {
		return nil, fmt.Errorf("enumerate monitors: %w", err)
	}
	monitors := make([]Monitor, 0, len(ctx.monitors))
	for _, hmon := range ctx.monitors {
		if m, ok := monitorInfo(hmon); ok {
			monitors = append(monitors, m)
		}
	}
	return monitors, nil
}

func (s *WindowsShell) MonitorFromWindow(h Handle) (Monitor, bool) {
	hmon := win.MonitorFromWindow(win.HWND(h), win.MONITOR_DEFAULTTONEAREST)
	if hmon == 0 {
		return Monitor{}, false
	}
	return monitorInfo(hmon)
}

func (s *WindowsShell) DPI(h Handle) int {
	if dpi := win.GetDpiForWindow(win.HWND(h)); dpi != 0 {
		return int(dpi)
	}
	return 96
}

func (s *WindowsShell) Parent(h Handle) Handle {
	r, _, _ := procGetAncestor.Call(uintptr(h), gaParent)
	desktop, _, _ := procGetDesktopWindow.Call()
	if r == desktop {
		return 0
	}
	return Handle(r)
}

func (s *WindowsShell) SetParent(child, parent Handle) error {
	if !s.IsWindow(child) {
		return ErrWindowGone
	}
	win.SetParent(win.HWND(child), win.HWND(parent))
	if s.Parent(child) != parent {
		return fmt.Errorf("set parent of %#x to %#x: %w", child, parent, windows.GetLastError())
	}
	return nil
}

func (s *WindowsShell) MakeChild(h Handle) error {
	if !s.IsWindow(h) {
		return ErrWindowGone
	}
	style := uint32(win.GetWindowLong(win.HWND(h), win.GWL_STYLE))
	style = (style &^ win.WS_POPUP) | win.WS_CHILD
	win.SetWindowLong(win.HWND(h), win.GWL_STYLE, int32(style))
	return nil
}

func (s *WindowsShell) SetHitTestable(h Handle) error {
	if !s.IsWindow(h) {
		return ErrWindowGone
	}
	s.hitTestable[win.HWND(h)] = true
	return nil
}

func (s *WindowsShell) InstallMessageFilter(h Handle, suppress func(uint32) bool) error {
	if !s.IsWindow(h) {
		return ErrWindowGone
	}
	s.filters[win.HWND(h)] = suppress
	return nil
}

func (s *WindowsShell) ScreenToClient(h Handle, p Point) (Point, bool) {
	pt := win.POINT{X: int32(p.X), Y: int32(p.Y)}
	if !win.ScreenToClient(win.HWND(h), &pt) {
		return Point{}, false
	}
	return Point{X: int(pt.X), Y: int(pt.Y)}, true
}

func (s *WindowsShell) Place(h Handle, r Rect) error {
	ok := win.SetWindowPos(win.HWND(h), 0,
		int32(r.X), int32(r.Y), int32(r.Width), int32(r.Height),
		swpNoZOrder|swpNoActivate|swpAsyncWindowPos)
	if !ok {
		return fmt.Errorf("set window pos: %w", windows.GetLastError())
	}
	return nil
}

func (s *WindowsShell) Show(h Handle, visible bool) error {
	if !s.IsWindow(h) {
		return ErrWindowGone
	}
	var cmd int32 = swHide
	if visible {
		cmd = swShowNoActivate
	}
	win.ShowWindow(win.HWND(h), cmd)
	return nil
}

func (s *WindowsShell) ForegroundWindow() Handle {
	return Handle(win.GetForegroundWindow())
}

func (s *WindowsShell) ShowState(h Handle) (ShowState, bool) {
	wp := windowPlacement{Length: uint32(unsafe.Sizeof(windowPlacement{}))}
	r, _, _ := procGetWindowPlacement.Call(uintptr(h), uintptr(unsafe.Pointer(&wp)))
	if r == 0 {
		return ShowNormal, false
	}
	switch wp.ShowCmd {
	case swShowMaximized:
		return ShowMaximized, true
	case swShowMinimized:
		return ShowMinimized, true
	default:
		return ShowNormal, true
	}
}

func (s *WindowsShell) NotificationState() (NotificationState, error) {
	if err := procSHQueryUserNotificationState.Find(); err != nil {
		return 0, fmt.Errorf("query notification state: %w", err)
	}
	var state int32
	hr, _, _ := procSHQueryUserNotificationState.Call(uintptr(unsafe.Pointer(&state)))
	if hr != 0 {
		return 0, fmt.Errorf("query notification state: hresult %#x", hr)
	}
	return NotificationState(state), nil
}

func (s *WindowsShell) CreateSurface() (Handle, error) {
	if err := s.registerClass(); err != nil {
		return 0, err
	}
	hwnd := win.CreateWindowEx(
		wsExToolWindow|wsExNoActivate,
		utf16Ptr(surfaceClassName),
		utf16Ptr(s.opts.SurfaceTitle),
		win.WS_POPUP,
		0, 0, 1, 1,
		0, 0, s.instance, nil,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("create widget surface: %w", windows.GetLastError())
	}
	return Handle(hwnd), nil
}

func (s *WindowsShell) DestroySurface(h Handle) error {
	hwnd := win.HWND(h)
	delete(s.filters, hwnd)
	delete(s.hitTestable, hwnd)
	if !win.IsWindow(hwnd) {
		return nil
	}
	if !win.DestroyWindow(hwnd) {
		return fmt.Errorf("destroy widget surface: %w", windows.GetLastError())
	}
	return nil
}

func (s *WindowsShell) Automation() Automation {
	if !s.automationInit {
		s.automationInit = true
		a, err := newUIAutomation()
		if err != nil {
			s.logger.Warn("ui automation unavailable", "error", err)
		} else {
			s.automation = a
		}
	}
	if s.automation == nil {
		return nil
	}
	return s.automation
}

func (s *WindowsShell) Pump() {
	var msg win.MSG
	for win.PeekMessage(&msg, 0, 0, 0, win.PM_REMOVE) {
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

func (s *WindowsShell) Close() error {
	for hwnd := range s.filters {
		win.DestroyWindow(hwnd)
	}
	if s.automation != nil {
		s.automation.close()
		s.automation = nil
	}
	return nil
}

func (s *WindowsShell) registerClass() error {
	if s.registered {
		return nil
	}
	wc := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   s.wndProc,
		HInstance:     s.instance,
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_ARROW)),
		LpszClassName: utf16Ptr(surfaceClassName),
	}
	if atom := win.RegisterClassEx(&wc); atom == 0 {
		return fmt.Errorf("register surface class: %w", windows.GetLastError())
	}
	s.registered = true
	return nil
}

func (s *WindowsShell) surfaceProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	if suppress, ok := s.filters[hwnd]; ok && suppress(msg) {
		return 0
	}
	if msg == wmNCHitTest && s.hitTestable[hwnd] {
		return htClient
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func monitorInfo(hmon win.HMONITOR) (Monitor, bool) {
	mi := monitorInfoEx{CbSize: uint32(unsafe.Sizeof(monitorInfoEx{}))}
	r, _, _ := procGetMonitorInfoW.Call(uintptr(hmon), uintptr(unsafe.Pointer(&mi)))
	if r == 0 {
		return Monitor{}, false
	}
	return Monitor{
		DeviceID: windows.UTF16ToString(mi.SzDevice[:]),
		Bounds:   rectFromWin(mi.RcMonitor),
		Primary:  mi.DwFlags&monitorInfoFPrimary != 0,
	}, true
}

func rectFromWin(r win.RECT) Rect {
	return Rect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}
}

func utf16Ptr(s string) *uint16 {
	p, err := windows.UTF16PtrFromString(s)
	if err != nil {
		return nil
	}
	return p
}

package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Geometry is a window rectangle in root coordinates.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// TopLevelWindows returns the managed client list, falling back to the root
// window's children when the window manager does not publish one.
func (c *Connection) TopLevelWindows() []xproto.Window {
	if clients, err := ewmh.ClientListGet(c.XUtil); err == nil && len(clients) > 0 {
		return clients
	}
	return c.Children(c.Root)
}

// Children returns the direct children of a window.
func (c *Connection) Children(parent xproto.Window) []xproto.Window {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), parent).Reply()
	if err != nil {
		return nil
	}
	return tree.Children
}

// Parent returns the parent window, or 0 for the root and for windows that
// no longer exist.
func (c *Connection) Parent(windowID xproto.Window) xproto.Window {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), windowID).Reply()
	if err != nil || tree.Parent == c.Root {
		return 0
	}
	return tree.Parent
}

// Exists reports whether the server still knows the window.
func (c *Connection) Exists(windowID xproto.Window) bool {
	if windowID == 0 {
		return false
	}
	_, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	return err == nil
}

// WindowGeometry returns the window rectangle translated to root coordinates.
func (c *Connection) WindowGeometry(windowID xproto.Window) (Geometry, bool) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Geometry{}, false
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return Geometry{}, false
	}

	return Geometry{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, true
}

// TranslateFromRoot converts root coordinates into the window's space.
func (c *Connection) TranslateFromRoot(windowID xproto.Window, x, y int) (int, int, bool) {
	reply, err := xproto.TranslateCoordinates(c.XUtil.Conn(), c.Root, windowID, int16(x), int16(y)).Reply()
	if err != nil {
		return 0, 0, false
	}
	return int(reply.DstX), int(reply.DstY), true
}

// WindowClass returns the WM_CLASS class part.
func (c *Connection) WindowClass(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// WindowPID returns _NET_WM_PID, or 0 when unset.
func (c *Connection) WindowPID(windowID xproto.Window) uint32 {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return uint32(pid)
}

// HasWindowType reports whether _NET_WM_WINDOW_TYPE contains typeName.
func (c *Connection) HasWindowType(windowID xproto.Window, typeName string) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == typeName {
			return true
		}
	}
	return false
}

// WindowStates returns the _NET_WM_STATE atoms set on a window.
func (c *Connection) WindowStates(windowID xproto.Window) map[string]bool {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return nil
	}
	set := make(map[string]bool, len(states))
	for _, state := range states {
		set[state] = true
	}
	return set
}

// GetActiveWindow returns the window named by _NET_ACTIVE_WINDOW.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// CreateOverrideWindow creates an unmapped override-redirect window on the
// root with the given WM_CLASS and title.
func (c *Connection) CreateOverrideWindow(class, title string) (xproto.Window, error) {
	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("generate window id: %w", err)
	}
	err = win.CreateChecked(c.Root, 0, 0, 1, 1,
		xproto.CwOverrideRedirect|xproto.CwEventMask,
		1, xproto.EventMaskStructureNotify)
	if err != nil {
		return 0, fmt.Errorf("create window: %w", err)
	}
	if err := icccm.WmClassSet(c.XUtil, win.Id, &icccm.WmClass{Instance: strings.ToLower(class), Class: class}); err != nil {
		win.Destroy()
		return 0, fmt.Errorf("set WM_CLASS: %w", err)
	}
	if title != "" {
		if err := ewmh.WmNameSet(c.XUtil, win.Id, title); err != nil {
			win.Destroy()
			return 0, fmt.Errorf("set _NET_WM_NAME: %w", err)
		}
	}
	return win.Id, nil
}

// DestroyWindow destroys a window owned by this client.
func (c *Connection) DestroyWindow(windowID xproto.Window) error {
	return xproto.DestroyWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// Reparent moves a window under a new parent at the origin.
func (c *Connection) Reparent(windowID, parent xproto.Window) error {
	return xproto.ReparentWindowChecked(c.XUtil.Conn(), windowID, parent, 0, 0).Check()
}

// SetOverrideRedirect keeps the window manager from managing the window.
func (c *Connection) SetOverrideRedirect(windowID xproto.Window) error {
	return xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), windowID,
		xproto.CwOverrideRedirect, []uint32{1}).Check()
}

// SelectPointerEvents subscribes to pointer crossing and button events.
func (c *Connection) SelectPointerEvents(windowID xproto.Window) error {
	mask := uint32(xproto.EventMaskStructureNotify | xproto.EventMaskEnterWindow |
		xproto.EventMaskLeaveWindow | xproto.EventMaskButtonPress)
	return xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), windowID,
		xproto.CwEventMask, []uint32{mask}).Check()
}

// MoveResizeWindow configures a window directly, relative to its parent.
// Override-redirect children are not managed, so no EWMH request is sent.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return xproto.ConfigureWindowChecked(c.XUtil.Conn(), windowID,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(int32(x)), uint32(int32(y)), uint32(width), uint32(height)}).Check()
}

// SetMapped maps or unmaps a window.
func (c *Connection) SetMapped(windowID xproto.Window, mapped bool) error {
	if mapped {
		return xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check()
	}
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

package probe

import "github.com/1broseidon/taskbarwidget/internal/platform"

// TrayCache remembers the main taskbar's notification area child window. The
// handle is looked up again only when it is unknown or the monitor selection
// changed.
type TrayCache struct {
	windows platform.Windows
	class   string

	handle  platform.Handle
	monitor int
}

// NewTrayCache creates a cache for child windows of the given class.
func NewTrayCache(windows platform.Windows, class string) *TrayCache {
	return &TrayCache{windows: windows, class: class, monitor: -1}
}

// SetClass changes the child window class and forgets the cached handle.
func (c *TrayCache) SetClass(class string) {
	if class != c.class {
		c.class = class
		c.Invalidate()
	}
}

// Rect returns the tray window's screen rectangle.
func (c *TrayCache) Rect(taskbar platform.Handle, monitor int) (platform.Rect, bool) {
	if c.handle == 0 || c.monitor != monitor {
		c.handle = c.windows.FindChildWindow(taskbar, c.class)
		c.monitor = monitor
	}
	if c.handle == 0 {
		return platform.Rect{}, false
	}
	r, ok := c.windows.WindowRect(c.handle)
	if !ok {
		c.handle = 0
		return platform.Rect{}, false
	}
	return r, true
}

// Handle returns the cached handle, or zero.
func (c *TrayCache) Handle() platform.Handle { return c.handle }

// Invalidate forgets the cached handle.
func (c *TrayCache) Invalidate() {
	c.handle = 0
	c.monitor = -1
}

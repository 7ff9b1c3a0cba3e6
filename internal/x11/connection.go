package x11

import (
	"strconv"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"
)

const defaultDPI = 96

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
	dpi   int
}

// NewConnection establishes a connection to the X11 server and reads the
// screen DPI from the resource database.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
		dpi:   defaultDPI,
	}
	if resources, err := xprop.PropValStr(xprop.GetProperty(xu, c.Root, "RESOURCE_MANAGER")); err == nil {
		if dpi := parseXftDPI(resources); dpi > 0 {
			c.dpi = dpi
		}
	}
	return c, nil
}

// DPI returns Xft.dpi, or 96 when the resource database does not set it.
func (c *Connection) DPI() int {
	return c.dpi
}

// DrainEvents discards queued events without blocking and returns how many
// were read.
func (c *Connection) DrainEvents() int {
	n := 0
	for {
		ev, xerr := c.XUtil.Conn().PollForEvent()
		if ev == nil && xerr == nil {
			return n
		}
		n++
	}
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

func parseXftDPI(resources string) int {
	for _, line := range strings.Split(resources, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != "Xft.dpi" {
			continue
		}
		dpi, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || dpi <= 0 {
			return 0
		}
		return int(dpi + 0.5)
	}
	return 0
}

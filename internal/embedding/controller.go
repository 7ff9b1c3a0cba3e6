// Package embedding turns the widget surface into a child of a taskbar
// surface and keeps it there.
package embedding

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/taskbarwidget/internal/platform"
)

// Host is the slice of the shell the controller needs.
type Host interface {
	IsWindow(h platform.Handle) bool
	platform.Embedder
}

// Status is the outcome of an embedding pass.
type Status int

const (
	// Embedded means the surface is a child of the requested taskbar.
	Embedded Status = iota
	// Skipped means there was no taskbar to embed into; try again next tick.
	Skipped
	// Lost means the widget surface handle is gone.
	Lost
)

func (s Status) String() string {
	switch s {
	case Embedded:
		return "embedded"
	case Skipped:
		return "skipped"
	case Lost:
		return "lost"
	default:
		return "unknown"
	}
}

// Controller owns the widget surface handle. It is not safe for concurrent
// use; all calls happen on the dispatcher.
type Controller struct {
	host    Host
	surface platform.Handle
	styled  bool
	logger  *slog.Logger
}

// NewController creates a controller with no surface attached.
func NewController(host Host, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{host: host, logger: logger.With("component", "embedding")}
}

// Attach takes ownership of a freshly created surface. Pointer handling and
// the message filter are set up immediately; child styling waits for the
// first taskbar.
func (c *Controller) Attach(surface platform.Handle) error {
	c.surface = surface
	c.styled = false
	if surface == 0 {
		return platform.ErrWindowGone
	}
	if err := c.host.SetHitTestable(surface); err != nil {
		c.logger.Warn("failed to make surface hit-testable", "error", err)
	}
	if err := c.host.InstallMessageFilter(surface, Suppress); err != nil {
		return err
	}
	return nil
}

// Detach forgets the current surface and returns it.
func (c *Controller) Detach() platform.Handle {
	h := c.surface
	c.surface = 0
	c.styled = false
	return h
}

// Surface returns the attached surface handle, or zero.
func (c *Controller) Surface() platform.Handle {
	return c.surface
}

// IsLost reports whether the surface handle no longer refers to a window.
func (c *Controller) IsLost() bool {
	return c.surface == 0 || !c.host.IsWindow(c.surface)
}

// Embed makes the surface a child of taskbar. Style bits are applied once;
// later calls only re-parent when the parent has drifted.
func (c *Controller) Embed(taskbar platform.Handle) Status {
	if c.IsLost() {
		return Lost
	}
	if taskbar == 0 {
		return Skipped
	}

	if !c.styled {
		if err := c.host.MakeChild(c.surface); err != nil {
			return c.fault("failed to set child style", err)
		}
		if err := c.host.SetParent(c.surface, taskbar); err != nil {
			return c.fault("failed to parent surface", err)
		}
		c.styled = true
		c.logger.Info("surface embedded", "surface", c.surface, "taskbar", taskbar)
		return Embedded
	}

	if c.host.Parent(c.surface) != taskbar {
		if err := c.host.SetParent(c.surface, taskbar); err != nil {
			return c.fault("failed to re-parent surface", err)
		}
		c.logger.Debug("surface re-parented", "surface", c.surface, "taskbar", taskbar)
	}
	return Embedded
}

func (c *Controller) fault(msg string, err error) Status {
	if errors.Is(err, platform.ErrWindowGone) && c.IsLost() {
		return Lost
	}
	c.logger.Warn(msg, "error", err)
	return Skipped
}

// Package placement computes where the widget surface goes inside its
// taskbar.
package placement

import (
	"log/slog"
	"math"

	"github.com/1broseidon/taskbarwidget/internal/config"
	"github.com/1broseidon/taskbarwidget/internal/platform"
	"github.com/1broseidon/taskbarwidget/internal/probe"
)

// Logical size components, in pixels at 96 DPI.
const (
	MinimalWidth     = 44
	MinTextWidth     = 60
	ChromeWidth      = 55 // Icon, margins and padding around the text.
	TextReserve      = 58
	TimeWidth        = 65
	ControlsWidth    = 102
	LogicalHeight    = 40
	baseDPI          = 96
	fallbackDPIScale = 1.0
)

// Host is the slice of the shell the calculator reads.
type Host interface {
	WindowRect(h platform.Handle) (platform.Rect, bool)
	DPI(h platform.Handle) int
	ScreenToClient(h platform.Handle, p platform.Point) (platform.Point, bool)
}

// Input is everything one placement pass depends on.
type Input struct {
	Taskbar platform.Handle
	IsMain  bool
	Monitor int // Selected monitor index, used to tag probe caches.

	Style           config.Style
	Alignment       config.Alignment
	AutoPadding     bool
	DynamicPosition bool
	ManualOffset    int

	Title  string
	Artist string
	// ShowTime and ShowControls are true only when the feature is enabled
	// and the element is actually rendered.
	ShowTime     bool
	ShowControls bool
}

// Result is a computed placement.
type Result struct {
	Client        platform.Rect // In the taskbar's client space.
	Screen        platform.Rect
	LogicalWidth  float64
	AvailableText float64 // Width left for title and artist, logical pixels.
	DPIScale      float64
}

// Calculator turns content, style and shell geometry into a rectangle. It is
// not safe for concurrent use.
type Calculator struct {
	host   Host
	probe  *probe.Probe
	tray   *probe.TrayCache
	text   *TextCache
	tuning config.TuningConfig
	ids    config.ShellConfig
	logger *slog.Logger
}

// NewCalculator wires a calculator.
func NewCalculator(host Host, p *probe.Probe, tray *probe.TrayCache, text *TextCache, cfg *config.Config, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		host:   host,
		probe:  p,
		tray:   tray,
		text:   text,
		tuning: cfg.Tuning,
		ids:    cfg.Shell,
		logger: logger.With("component", "placement"),
	}
}

// SetConfig swaps the tuning constants and element ids.
func (c *Calculator) SetConfig(cfg *config.Config) {
	c.tuning = cfg.Tuning
	c.ids = cfg.Shell
	c.tray.SetClass(cfg.Shell.TrayNotifyClass)
}

// LogicalWidth returns the widget width and the space left for text, both in
// logical pixels.
func LogicalWidth(style config.Style, titleW, artistW float64, showTime, showControls bool, tuning config.TuningConfig) (float64, float64) {
	var width float64
	if style == config.StyleMinimal {
		width = MinimalWidth
	} else {
		width = math.Max(math.Max(titleW, artistW), MinTextWidth) + ChromeWidth
		width = math.Min(width, float64(tuning.NativeWidgetsWidth)/tuning.Scale)
	}

	var timeW, controlsW float64
	if style != config.StyleMinimal {
		if showTime {
			timeW = TimeWidth
		}
		if showControls {
			controlsW = ControlsWidth
		}
	}
	width += timeW + controlsW
	return width, math.Max(width-TextReserve-timeW-controlsW, 0)
}

// PhysicalSize converts a logical width to device pixels.
func PhysicalSize(logical, dpiScale, scale float64) (int, int) {
	return int(logical * dpiScale * scale), int(LogicalHeight * dpiScale)
}

// Compute runs one placement pass. ok is false when the taskbar geometry is
// unavailable; callers skip the tick and keep the last placement.
func (c *Calculator) Compute(in Input) (Result, bool) {
	if in.Taskbar == 0 {
		return Result{}, false
	}
	tb, ok := c.host.WindowRect(in.Taskbar)
	if !ok || tb.Empty() {
		c.logger.Debug("taskbar geometry unavailable", "taskbar", in.Taskbar)
		return Result{}, false
	}

	dpiScale := fallbackDPIScale
	if dpi := c.host.DPI(in.Taskbar); dpi > 0 {
		dpiScale = float64(dpi) / baseDPI
	}

	titleW, artistW := c.text.Widths(in.Title, in.Artist)
	logical, avail := LogicalWidth(in.Style, titleW, artistW, in.ShowTime, in.ShowControls, c.tuning)
	w, h := PhysicalSize(logical, dpiScale, c.tuning.Scale)

	top := tb.Y + (tb.Height-h)/2

	var left int
	switch in.Alignment {
	case config.AlignCenter:
		left = c.center(in, tb, w)
	case config.AlignRight:
		left = c.right(in, tb, w)
	default:
		left = c.left(in, tb)
	}
	left += in.ManualOffset

	screen := platform.Rect{X: left, Y: top, Width: w, Height: h}
	p, ok := c.host.ScreenToClient(in.Taskbar, platform.Point{X: left, Y: top})
	if !ok {
		c.logger.Debug("screen to client conversion failed", "taskbar", in.Taskbar)
		return Result{}, false
	}

	return Result{
		Client:        platform.Rect{X: p.X, Y: p.Y, Width: w, Height: h},
		Screen:        screen,
		LogicalWidth:  logical,
		AvailableText: avail,
		DPIScale:      dpiScale,
	}, true
}

func midpoint(tb platform.Rect) int {
	return (tb.X + tb.Right()) / 2
}

func (c *Calculator) left(in Input, tb platform.Rect) int {
	left := tb.X + c.tuning.EdgeInset
	if !in.AutoPadding {
		return left
	}
	r := c.probe.Lookup(in.Taskbar, c.ids.WidgetsButtonID, in.Monitor)
	switch {
	case r.Err != nil:
		return left + c.tuning.NativeWidgetsWidth + c.tuning.WidgetsGap
	case r.Found && r.Rect.Right() < midpoint(tb):
		return r.Rect.Right() + c.tuning.WidgetsGap
	}
	return left
}

func (c *Calculator) center(in Input, tb platform.Rect, w int) int {
	left := tb.X + (tb.Width-w)/2
	if !in.DynamicPosition {
		return left
	}
	edge, found, err := c.probe.TaskListRightEdge(in.Taskbar, tb, c.tuning.TaskListThreshold)
	if err != nil || !found {
		return left
	}
	if left < edge+c.tuning.CollisionSlack {
		left = edge + c.tuning.CollisionGap
	}
	return left
}

func (c *Calculator) right(in Input, tb platform.Rect, w int) int {
	fallback := tb.Right() - w - c.tuning.EdgeInset

	if in.AutoPadding {
		r := c.probe.Lookup(in.Taskbar, c.ids.WidgetsButtonID, in.Monitor)
		if r.Err != nil {
			return fallback
		}
		if r.Found && r.Rect.X > midpoint(tb) {
			return r.Rect.X - 1 - w
		}
	}

	if !in.IsMain {
		r := c.probe.Lookup(in.Taskbar, c.ids.SystemTrayID, in.Monitor)
		if r.Err != nil {
			return fallback
		}
		if r.Found {
			return r.Rect.X - w - c.tuning.TrayGap
		}
		return fallback
	}

	if tray, ok := c.tray.Rect(in.Taskbar, in.Monitor); ok {
		return tray.X - w - c.tuning.TrayGap
	}
	return fallback
}

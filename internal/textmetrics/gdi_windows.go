//go:build windows

package textmetrics

import (
	"log/slog"
	"math"
	"syscall"

	"github.com/lxn/win"
)

// GDIMeasurer measures text with the system font renderer.
type GDIMeasurer struct {
	dc    win.HDC
	font  win.HFONT
	old   win.HGDIOBJ
	scale float64 // device pixels per logical pixel
}

// NewGDIMeasurer creates a memory DC with family selected at size logical
// pixels and normal weight.
func NewGDIMeasurer(family string, size float64) (*GDIMeasurer, error) {
	dc := win.CreateCompatibleDC(0)
	if dc == 0 {
		return nil, syscall.GetLastError()
	}
	scale := float64(win.GetDeviceCaps(dc, win.LOGPIXELSY)) / 96
	if scale <= 0 {
		scale = 1
	}

	var lf win.LOGFONT
	lf.LfHeight = -int32(math.Round(size * scale))
	lf.LfWeight = win.FW_NORMAL
	lf.LfCharSet = win.DEFAULT_CHARSET
	lf.LfQuality = win.CLEARTYPE_QUALITY
	name, err := syscall.UTF16FromString(family)
	if err != nil {
		win.DeleteDC(dc)
		return nil, err
	}
	copy(lf.LfFaceName[:len(lf.LfFaceName)-1], name)

	hfont := win.CreateFontIndirect(&lf)
	if hfont == 0 {
		win.DeleteDC(dc)
		return nil, syscall.GetLastError()
	}
	old := win.SelectObject(dc, win.HGDIOBJ(hfont))
	return &GDIMeasurer{dc: dc, font: hfont, old: old, scale: scale}, nil
}

func (m *GDIMeasurer) Width(text string) float64 {
	if text == "" {
		return 0
	}
	s, err := syscall.UTF16FromString(text)
	if err != nil || len(s) < 2 {
		return 0
	}
	var size win.SIZE
	if !win.GetTextExtentPoint32(m.dc, &s[0], int32(len(s)-1), &size) {
		return 0
	}
	return float64(size.CX) / m.scale
}

func (m *GDIMeasurer) Close() error {
	if m.dc != 0 {
		win.SelectObject(m.dc, m.old)
		win.DeleteObject(win.HGDIOBJ(m.font))
		win.DeleteDC(m.dc)
		m.dc = 0
	}
	return nil
}

// New returns the GDI measurer, falling back to the bitmap face when GDI
// setup fails.
func New(opts Options, logger *slog.Logger) Measurer {
	m, err := NewGDIMeasurer(opts.Family, opts.Size)
	if err == nil {
		return m
	}
	if logger != nil {
		logger.Warn("falling back to bitmap text metrics", "error", err)
	}
	if opts.File != "" {
		if fm, err := NewFaceMeasurer(opts.File, opts.Size); err == nil {
			return fm
		}
	}
	return NewCellMeasurer(opts.Size)
}

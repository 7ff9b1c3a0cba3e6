// Package textmetrics measures rendered text widths in logical pixels at
// normal weight.
package textmetrics

import (
	"fmt"
	"os"

	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Measurer returns the width of a single line of text in logical pixels.
type Measurer interface {
	Width(text string) float64
	Close() error
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// CellMeasurer approximates widths from a fixed-advance bitmap face scaled to
// the requested size. Wide runes count as two cells.
type CellMeasurer struct {
	cell float64
}

// NewCellMeasurer scales the built-in 7x13 face to size pixels.
func NewCellMeasurer(size float64) *CellMeasurer {
	face := basicfont.Face7x13
	adv, _ := face.GlyphAdvance('0')
	height := float64(face.Metrics().Height.Ceil())
	if height <= 0 || size <= 0 {
		return &CellMeasurer{cell: fixedToFloat(adv)}
	}
	return &CellMeasurer{cell: fixedToFloat(adv) * size / height}
}

func (m *CellMeasurer) Width(text string) float64 {
	if text == "" {
		return 0
	}
	return float64(runewidth.StringWidth(text)) * m.cell
}

func (m *CellMeasurer) Close() error { return nil }

// FaceMeasurer measures with a parsed OpenType face.
type FaceMeasurer struct {
	face font.Face
}

// NewFaceMeasurer loads an OpenType or TrueType file at size pixels.
func NewFaceMeasurer(path string, size float64) (*FaceMeasurer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face for %s: %w", path, err)
	}
	return &FaceMeasurer{face: face}, nil
}

// NewFaceMeasurerFromFace wraps an existing face.
func NewFaceMeasurerFromFace(face font.Face) *FaceMeasurer {
	return &FaceMeasurer{face: face}
}

func (m *FaceMeasurer) Width(text string) float64 {
	if text == "" {
		return 0
	}
	return fixedToFloat(font.MeasureString(m.face, text))
}

func (m *FaceMeasurer) Close() error {
	return m.face.Close()
}

// Options selects a measurer.
type Options struct {
	Family string
	File   string
	Size   float64
}

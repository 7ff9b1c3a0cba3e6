package textmetrics

import (
	"math"
	"testing"

	"golang.org/x/image/font/basicfont"
)

func TestCellMeasurer(t *testing.T) {
	m := NewCellMeasurer(13)
	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"Song", 28},
		{"Artist", 42},
		{"日本", 28}, // two wide runes, four cells
	}
	for _, tt := range tests {
		if got := m.Width(tt.text); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("Width(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestCellMeasurer_ScalesWithSize(t *testing.T) {
	small := NewCellMeasurer(13).Width("abc")
	large := NewCellMeasurer(26).Width("abc")
	if math.Abs(large-2*small) > 1e-9 {
		t.Fatalf("expected width to double with size, got %v and %v", small, large)
	}
}

func TestFaceMeasurer(t *testing.T) {
	m := NewFaceMeasurerFromFace(basicfont.Face7x13)
	if got := m.Width("Song"); got != 28 {
		t.Fatalf("Width(Song) = %v, want 28", got)
	}
	if got := m.Width(""); got != 0 {
		t.Fatalf("Width(\"\") = %v, want 0", got)
	}
}

func TestNewFaceMeasurer_MissingFile(t *testing.T) {
	if _, err := NewFaceMeasurer(t.TempDir()+"/missing.ttf", 12); err == nil {
		t.Fatalf("expected error for missing font file")
	}
}

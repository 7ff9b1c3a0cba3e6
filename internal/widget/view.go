package widget

import (
	"log/slog"

	"github.com/1broseidon/taskbarwidget/internal/config"
)

// Snapshot is what the view needs to draw the widget.
type Snapshot struct {
	Visible bool
	Style   config.Style

	Title         string
	Artist        string
	ArtistVisible bool
	Icon          []byte
	Placeholder   bool // No media: draw the placeholder glyph.
	Paused        bool

	Controls        Controls
	ControlsVisible bool

	TimeText    string
	TimeVisible bool

	AvailableText float64 // Logical pixels left for title and artist.
	Animate       bool    // Play the entrance animation once.
}

// View draws the widget content. It is called on the dispatcher.
type View interface {
	Render(Snapshot)
}

type nopView struct{}

func (nopView) Render(Snapshot) {}

// LogView records every render at debug level. Useful where no drawing
// backend is attached.
type LogView struct {
	Logger *slog.Logger
}

// Render logs s at debug level.
func (v LogView) Render(s Snapshot) {
	if v.Logger == nil {
		return
	}
	v.Logger.Debug("render",
		"visible", s.Visible,
		"title", s.Title,
		"artist", s.Artist,
		"paused", s.Paused,
		"time", s.TimeText,
		"available_text", s.AvailableText,
		"animate", s.Animate,
	)
}

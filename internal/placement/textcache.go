package placement

import "github.com/1broseidon/taskbarwidget/internal/textmetrics"

type measured struct {
	text  string
	width float64
}

// TextCache remembers the last measured title and artist. A string is only
// measured again when it differs from the previous one in its slot.
type TextCache struct {
	m      textmetrics.Measurer
	title  measured
	artist measured
	count  int
}

// NewTextCache creates a cache over m.
func NewTextCache(m textmetrics.Measurer) *TextCache {
	return &TextCache{m: m}
}

// Widths returns the logical widths of title and artist.
func (c *TextCache) Widths(title, artist string) (float64, float64) {
	return c.measure(&c.title, title), c.measure(&c.artist, artist)
}

// Measurements returns how many strings have been measured so far.
func (c *TextCache) Measurements() int { return c.count }

func (c *TextCache) measure(slot *measured, text string) float64 {
	if slot.text == text {
		return slot.width
	}
	slot.text = text
	slot.width = c.m.Width(text)
	c.count++
	return slot.width
}

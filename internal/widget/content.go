package widget

import (
	"fmt"
	"time"
)

// PlaybackStatus is the media session playback state.
type PlaybackStatus string

const (
	StatusClosed   PlaybackStatus = "closed"
	StatusOpened   PlaybackStatus = "opened"
	StatusChanging PlaybackStatus = "changing"
	StatusStopped  PlaybackStatus = "stopped"
	StatusPlaying  PlaybackStatus = "playing"
	StatusPaused   PlaybackStatus = "paused"
)

// NoMedia is the title and artist value meaning nothing is playing.
const NoMedia = "-"

// Controls reports which transport buttons the session currently accepts.
type Controls struct {
	Previous  bool `json:"previous"`
	PlayPause bool `json:"play_pause"`
	Next      bool `json:"next"`
}

// Timeline is an authoritative playback position reading.
type Timeline struct {
	Position    time.Duration `json:"position"`
	LastUpdated time.Time     `json:"last_updated"`
	Duration    time.Duration `json:"duration"`
}

// PositionAt extrapolates the position at now, clamped to the duration.
func (t Timeline) PositionAt(now time.Time, paused bool) time.Duration {
	pos := t.Position
	if !paused {
		pos += now.Sub(t.LastUpdated)
	}
	if pos > t.Duration {
		pos = t.Duration
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

// Displayable reports whether the timeline is long enough to show.
func (t Timeline) Displayable() bool {
	return t.Duration >= time.Second
}

// Format renders "pos / duration", using h:mm:ss when the duration has an
// hour component and m:ss otherwise.
func (t Timeline) Format(now time.Time, paused bool) string {
	hours := t.Duration >= time.Hour
	return formatClock(t.PositionAt(now, paused), hours) + " / " + formatClock(t.Duration, hours)
}

func formatClock(d time.Duration, hours bool) string {
	total := int(d / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if hours {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", total/60, s)
}

// Content is a media content update.
type Content struct {
	Title    string         `json:"title"`
	Artist   string         `json:"artist"`
	Icon     []byte         `json:"icon,omitempty"`
	Status   PlaybackStatus `json:"status"`
	Controls *Controls      `json:"controls,omitempty"`
	Timeline *Timeline      `json:"timeline,omitempty"`
}

// IsNoMedia reports whether c means nothing is playing.
func (c Content) IsNoMedia() bool {
	return c.Title == NoMedia && c.Artist == NoMedia
}

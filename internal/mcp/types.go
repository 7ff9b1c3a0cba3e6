package mcp

import "time"

// StatusInput is the input for the widget_status tool.
type StatusInput struct{}

// StatusOutput is the output for the widget_status tool.
type StatusOutput struct {
	Running            bool   `json:"running"`
	Active             bool   `json:"active"`
	Visible            bool   `json:"visible"`
	HiddenForMaximized bool   `json:"hidden_for_maximized"`
	Embedded           bool   `json:"embedded"`
	IsMainTaskbar      bool   `json:"is_main_taskbar"`
	Monitor            int    `json:"monitor"`
	Style              string `json:"style"`
	Alignment          string `json:"alignment"`
	Title              string `json:"title"`
	Artist             string `json:"artist"`
	Paused             bool   `json:"paused"`
	TimeText           string `json:"time_text,omitempty"`
	RecoveryAttempts   int    `json:"recovery_attempts"`
	RecoveryExhausted  bool   `json:"recovery_exhausted"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
}

// UpdateContentInput is the input for the widget_update_content tool.
type UpdateContentInput struct {
	Title      string `json:"title" jsonschema:"Track title; \"-\" together with artist \"-\" means nothing is playing"`
	Artist     string `json:"artist" jsonschema:"Track artist; empty hides the artist line"`
	Status     string `json:"status" jsonschema:"Playback status: closed, opened, changing, stopped, playing or paused"`
	IconBase64 string `json:"icon_base64,omitempty" jsonschema:"Optional album art as base64 encoded image bytes"`
	// Controls are only drawn when controls_enabled is set in the config.
	CanPrevious  *bool `json:"can_previous,omitempty" jsonschema:"Whether the previous-track button is enabled"`
	CanPlayPause *bool `json:"can_play_pause,omitempty" jsonschema:"Whether the play/pause button is enabled"`
	CanNext      *bool `json:"can_next,omitempty" jsonschema:"Whether the next-track button is enabled"`

	PositionSeconds *float64 `json:"position_seconds,omitempty" jsonschema:"Optional playback position in seconds; requires duration_seconds"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty" jsonschema:"Optional track length in seconds"`
}

// UpdateTimelineInput is the input for the widget_update_timeline tool.
type UpdateTimelineInput struct {
	PositionSeconds float64   `json:"position_seconds" jsonschema:"Playback position in seconds"`
	DurationSeconds float64   `json:"duration_seconds" jsonschema:"Track length in seconds; readouts need at least one second"`
	LastUpdated     time.Time `json:"last_updated,omitempty" jsonschema:"When the position was read (default: now)"`
}

// ReloadInput is the input for the widget_reload tool.
type ReloadInput struct{}

// AckOutput is returned by tools that only report success.
type AckOutput struct {
	OK bool `json:"ok"`
}

// MonitorsInput is the input for the widget_monitors tool.
type MonitorsInput struct{}

// MonitorInfo describes one selectable monitor.
type MonitorInfo struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Primary  bool   `json:"primary"`
	Selected bool   `json:"selected"`
}

// MonitorsOutput is the output for the widget_monitors tool.
type MonitorsOutput struct {
	Monitors []MonitorInfo `json:"monitors"`
}

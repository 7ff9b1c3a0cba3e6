package ipc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/1broseidon/taskbarwidget/internal/platform"
	"github.com/1broseidon/taskbarwidget/internal/widget"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandUpdateContent  CommandType = "UPDATE_CONTENT"
	CommandUpdateTimeline CommandType = "UPDATE_TIMELINE"
	CommandReload         CommandType = "RELOAD"
	CommandGetStatus      CommandType = "GET_STATUS"
	CommandGetMonitors    CommandType = "GET_MONITORS"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// TimelinePayload is a playback position snapshot. Durations are in
// milliseconds; a zero LastUpdated means "now" on the daemon.
type TimelinePayload struct {
	PositionMS  int64     `json:"position_ms"`
	DurationMS  int64     `json:"duration_ms"`
	LastUpdated time.Time `json:"last_updated,omitempty"`
}

// Timeline converts the payload, stamping it with now when it carries no
// update time.
func (p TimelinePayload) Timeline(now time.Time) widget.Timeline {
	updated := p.LastUpdated
	if updated.IsZero() {
		updated = now
	}
	return widget.Timeline{
		Position:    time.Duration(p.PositionMS) * time.Millisecond,
		LastUpdated: updated,
		Duration:    time.Duration(p.DurationMS) * time.Millisecond,
	}
}

// ContentPayload is the payload for UPDATE_CONTENT. Icon is base64 in JSON.
type ContentPayload struct {
	Title    string                `json:"title"`
	Artist   string                `json:"artist"`
	Icon     []byte                `json:"icon,omitempty"`
	Status   widget.PlaybackStatus `json:"status"`
	Controls *widget.Controls      `json:"controls,omitempty"`
	Timeline *TimelinePayload      `json:"timeline,omitempty"`
}

// Content converts the payload into a widget content update.
func (p ContentPayload) Content(now time.Time) widget.Content {
	c := widget.Content{
		Title:    p.Title,
		Artist:   p.Artist,
		Icon:     p.Icon,
		Status:   p.Status,
		Controls: p.Controls,
	}
	if p.Timeline != nil {
		tl := p.Timeline.Timeline(now)
		c.Timeline = &tl
	}
	return c
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	widget.Status
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Primary bool   `json:"primary"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
	Selected int           `json:"selected"`
}

// NewMonitorsData numbers monitors in enumeration order, the order the
// widget.monitor setting indexes.
func NewMonitorsData(monitors []platform.Monitor, selected int) MonitorsData {
	infos := make([]MonitorInfo, len(monitors))
	for i, m := range monitors {
		infos[i] = MonitorInfo{
			ID:      i,
			Name:    m.DeviceID,
			X:       m.Bounds.X,
			Y:       m.Bounds.Y,
			Width:   m.Bounds.Width,
			Height:  m.Bounds.Height,
			Primary: m.Primary,
		}
	}
	return MonitorsData{Monitors: infos, Selected: selected}
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

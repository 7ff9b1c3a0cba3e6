package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/taskbarwidget/internal/ipc"
	"github.com/1broseidon/taskbarwidget/internal/widget"
)

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.ctl.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		Running:            st.DaemonRunning,
		Active:             st.Active,
		Visible:            st.Visible,
		HiddenForMaximized: st.HiddenForMaximized,
		Embedded:           st.Embedded,
		IsMainTaskbar:      st.IsMainTaskbar,
		Monitor:            st.Monitor,
		Style:              string(st.Style),
		Alignment:          string(st.Alignment),
		Title:              st.Title,
		Artist:             st.Artist,
		Paused:             st.Paused,
		TimeText:           st.TimeText,
		RecoveryAttempts:   st.RecoveryAttempts,
		RecoveryExhausted:  st.RecoveryExhausted,
		UptimeSeconds:      st.UptimeSeconds,
	}, nil
}

func (s *Server) handleMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ MonitorsInput) (*mcpsdk.CallToolResult, MonitorsOutput, error) {
	data, err := s.ctl.GetMonitors()
	if err != nil {
		return nil, MonitorsOutput{}, err
	}
	out := MonitorsOutput{Monitors: make([]MonitorInfo, 0, len(data.Monitors))}
	for _, m := range data.Monitors {
		out.Monitors = append(out.Monitors, MonitorInfo{
			Index:    m.ID,
			Name:     m.Name,
			Width:    m.Width,
			Height:   m.Height,
			Primary:  m.Primary,
			Selected: m.ID == data.Selected,
		})
	}
	return nil, out, nil
}

func secondsToMS(name string, v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", name)
	}
	return int64(math.Round(v * 1000)), nil
}

func (s *Server) handleUpdateContent(_ context.Context, _ *mcpsdk.CallToolRequest, args UpdateContentInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	p := ipc.ContentPayload{
		Title:  args.Title,
		Artist: args.Artist,
		Status: widget.PlaybackStatus(args.Status),
	}
	if args.IconBase64 != "" {
		icon, err := base64.StdEncoding.DecodeString(args.IconBase64)
		if err != nil {
			return nil, AckOutput{}, fmt.Errorf("icon_base64: %w", err)
		}
		p.Icon = icon
	}
	if args.CanPrevious != nil || args.CanPlayPause != nil || args.CanNext != nil {
		p.Controls = &widget.Controls{
			Previous:  args.CanPrevious != nil && *args.CanPrevious,
			PlayPause: args.CanPlayPause != nil && *args.CanPlayPause,
			Next:      args.CanNext != nil && *args.CanNext,
		}
	}
	if args.DurationSeconds != nil {
		tl := &ipc.TimelinePayload{}
		var err error
		if tl.DurationMS, err = secondsToMS("duration_seconds", *args.DurationSeconds); err != nil {
			return nil, AckOutput{}, err
		}
		if args.PositionSeconds != nil {
			if tl.PositionMS, err = secondsToMS("position_seconds", *args.PositionSeconds); err != nil {
				return nil, AckOutput{}, err
			}
		}
		p.Timeline = tl
	} else if args.PositionSeconds != nil {
		return nil, AckOutput{}, fmt.Errorf("position_seconds requires duration_seconds")
	}

	if err := s.ctl.UpdateContent(p); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleUpdateTimeline(_ context.Context, _ *mcpsdk.CallToolRequest, args UpdateTimelineInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	pos, err := secondsToMS("position_seconds", args.PositionSeconds)
	if err != nil {
		return nil, AckOutput{}, err
	}
	dur, err := secondsToMS("duration_seconds", args.DurationSeconds)
	if err != nil {
		return nil, AckOutput{}, err
	}
	p := ipc.TimelinePayload{PositionMS: pos, DurationMS: dur}
	if !args.LastUpdated.IsZero() {
		p.LastUpdated = args.LastUpdated.UTC().Truncate(time.Millisecond)
	}

	if err := s.ctl.UpdateTimeline(p); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleReload(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReloadInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.ctl.Reload(); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

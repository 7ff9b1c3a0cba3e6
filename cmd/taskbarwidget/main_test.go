package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/taskbarwidget/internal/ipc"
	"github.com/1broseidon/taskbarwidget/internal/widget"
)

func TestParseControls(t *testing.T) {
	tests := []struct {
		in      string
		want    *widget.Controls
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "prev,next", want: &widget.Controls{Previous: true, Next: true}},
		{in: " Previous , PlayPause ", want: &widget.Controls{Previous: true, PlayPause: true}},
		{in: "none", want: &widget.Controls{}},
		{in: "prev,shuffle", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseControls(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("expected %+v, got %+v", *tt.want, *got)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	if st, err := parseStatus("Paused"); err != nil || st != widget.StatusPaused {
		t.Fatalf("expected paused, got %q (%v)", st, err)
	}
	if _, err := parseStatus("buffering"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestTimelinePayload(t *testing.T) {
	tl, err := timelinePayload(0, 0)
	if err != nil || tl != nil {
		t.Fatalf("expected no timeline, got %+v (%v)", tl, err)
	}
	if _, err := timelinePayload(time.Second, 0); err == nil {
		t.Fatalf("expected position without duration to fail")
	}
	if _, err := timelinePayload(-time.Second, time.Minute); err == nil {
		t.Fatalf("expected negative position to fail")
	}

	tl, err = timelinePayload(90*time.Second, 3*time.Minute)
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if tl.PositionMS != 90000 || tl.DurationMS != 180000 {
		t.Fatalf("unexpected payload %+v", tl)
	}
	if tl.LastUpdated.IsZero() {
		t.Fatalf("expected timeline to be stamped")
	}
}

func TestRenderFields_Plain(t *testing.T) {
	var buf bytes.Buffer
	renderFields(&buf, "taskbarwidget", []field{
		{label: "active", value: "yes"},
		{label: "monitor", value: "1"},
	}, false)
	want := "active: yes\nmonitor: 1\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestStatusFields_FlagsProblems(t *testing.T) {
	s := &ipc.StatusData{}
	s.Active = true
	s.Title = "Song"
	s.Artist = "Band"
	s.Paused = true
	s.RecoveryAttempts = 5
	s.RecoveryExhausted = true

	byLabel := map[string]field{}
	for _, f := range statusFields(s) {
		byLabel[f.label] = f
	}
	if got := byLabel["media"].value; got != "Song - Band" {
		t.Fatalf("expected media %q, got %q", "Song - Band", got)
	}
	if got := byLabel["state"].value; got != "paused" {
		t.Fatalf("expected paused state, got %q", got)
	}
	if f := byLabel["recovery"]; !f.warn || !strings.Contains(f.value, "exhausted") {
		t.Fatalf("expected exhausted recovery warning, got %+v", f)
	}
	if f := byLabel["embedded"]; !f.warn {
		t.Fatalf("expected unembedded widget to warn")
	}
	if _, ok := byLabel["time"]; ok {
		t.Fatalf("expected no time row without time text")
	}
}

func TestMonitorLines(t *testing.T) {
	data := &ipc.MonitorsData{
		Monitors: []ipc.MonitorInfo{
			{ID: 0, Name: "DP-1", Width: 2560, Height: 1440, Primary: true},
			{ID: 1, Name: "HDMI-1", X: 2560, Width: 1920, Height: 1080},
		},
		Selected: 1,
	}
	lines := monitorLines(data, false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "0  DP-1  2560x1440+0+0  [primary]" {
		t.Fatalf("unexpected line %q", lines[0])
	}
	if lines[1] != "1  HDMI-1  1920x1080+2560+0  [widget]" {
		t.Fatalf("unexpected line %q", lines[1])
	}
}

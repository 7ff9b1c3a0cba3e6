package widget

import (
	"testing"
	"time"
)

func TestTimelineFormat(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		tl     Timeline
		paused bool
		want   string
	}{
		{
			name: "extrapolates while playing",
			tl:   Timeline{Position: 30 * time.Second, LastUpdated: now.Add(-10 * time.Second), Duration: 3 * time.Minute},
			want: "0:40 / 3:00",
		},
		{
			name:   "frozen while paused",
			tl:     Timeline{Position: 30 * time.Second, LastUpdated: now.Add(-10 * time.Second), Duration: 3 * time.Minute},
			paused: true,
			want:   "0:30 / 3:00",
		},
		{
			name: "clamped to duration",
			tl:   Timeline{Position: 5 * time.Minute, LastUpdated: now.Add(-time.Minute), Duration: 5*time.Minute + 30*time.Second},
			want: "5:30 / 5:30",
		},
		{
			name:   "clamped to zero",
			tl:     Timeline{Position: -5 * time.Second, LastUpdated: now, Duration: time.Minute},
			paused: true,
			want:   "0:00 / 1:00",
		},
		{
			name:   "hour format follows duration",
			tl:     Timeline{Position: 65 * time.Second, LastUpdated: now, Duration: 2 * time.Hour},
			paused: true,
			want:   "0:01:05 / 2:00:00",
		},
		{
			name:   "long track without hours",
			tl:     Timeline{Position: 12*time.Minute + 3*time.Second, LastUpdated: now, Duration: 59*time.Minute + 59*time.Second},
			paused: true,
			want:   "12:03 / 59:59",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tl.Format(now, tt.paused); got != tt.want {
				t.Fatalf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimelineDisplayable(t *testing.T) {
	if (Timeline{Duration: 999 * time.Millisecond}).Displayable() {
		t.Fatalf("expected sub-second duration to be hidden")
	}
	if !(Timeline{Duration: time.Second}).Displayable() {
		t.Fatalf("expected one second duration to be shown")
	}
}

func TestContentIsNoMedia(t *testing.T) {
	if !(Content{Title: "-", Artist: "-"}).IsNoMedia() {
		t.Fatalf("expected dash pair to mean no media")
	}
	if (Content{Title: "-", Artist: "Band"}).IsNoMedia() {
		t.Fatalf("expected a real artist to be media")
	}
}

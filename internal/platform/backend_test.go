package platform

import "testing"

func TestRectEdges(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 40}
	if r.Right() != 110 || r.Bottom() != 60 || r.CenterX() != 60 {
		t.Fatalf("unexpected edges: right=%d bottom=%d center=%d", r.Right(), r.Bottom(), r.CenterX())
	}
	if r.Empty() {
		t.Fatalf("expected non-empty rect")
	}
	if !(Rect{Width: 10}).Empty() {
		t.Fatalf("zero-height rect should be empty")
	}
}

func TestNearestMonitor(t *testing.T) {
	monitors := []Monitor{
		{DeviceID: "A", Bounds: Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, Primary: true},
		{DeviceID: "B", Bounds: Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}},
	}

	tests := []struct {
		name string
		rect Rect
		want string
	}{
		{name: "inside primary", rect: Rect{X: 100, Y: 1040, Width: 1720, Height: 40}, want: "A"},
		{name: "inside secondary", rect: Rect{X: 1920, Y: 1040, Width: 1920, Height: 40}, want: "B"},
		{name: "off screen right", rect: Rect{X: 5000, Y: 0, Width: 10, Height: 10}, want: "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := NearestMonitor(monitors, tt.rect)
			if !ok {
				t.Fatalf("expected a monitor")
			}
			if m.DeviceID != tt.want {
				t.Fatalf("got %s, want %s", m.DeviceID, tt.want)
			}
		})
	}

	if _, ok := NearestMonitor(nil, Rect{}); ok {
		t.Fatalf("expected no monitor for empty list")
	}
}

func TestNotificationStateString(t *testing.T) {
	if NotificationRunningD3DFullscreen != 3 || NotificationPresentationMode != 4 {
		t.Fatalf("notification state values drifted: %d %d", NotificationRunningD3DFullscreen, NotificationPresentationMode)
	}
	if got := NotificationPresentationMode.String(); got != "presentation-mode" {
		t.Fatalf("got %q", got)
	}
	if got := NotificationState(42).String(); got != "unknown" {
		t.Fatalf("got %q", got)
	}
}

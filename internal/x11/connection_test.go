package x11

import (
	"os"
	"testing"

	"github.com/BurntSushi/xgbutil/ewmh"
)

func TestParseXftDPI(t *testing.T) {
	tests := []struct {
		name      string
		resources string
		want      int
	}{
		{name: "set", resources: "Xft.antialias:\t1\nXft.dpi:\t144\n", want: 144},
		{name: "fractional", resources: "Xft.dpi: 120.4", want: 120},
		{name: "missing", resources: "Xcursor.size:\t24\n", want: 0},
		{name: "garbage", resources: "Xft.dpi: high", want: 0},
		{name: "empty", resources: "", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseXftDPI(tt.resources); got != tt.want {
				t.Fatalf("parseXftDPI() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCreateOverrideWindow_SetsClassAndTitle(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("no X display")
	}
	conn, err := NewConnection()
	if err != nil {
		t.Skipf("connect: %v", err)
	}
	defer conn.XUtil.Conn().Close()

	win, err := conn.CreateOverrideWindow("TaskbarWidgetTest", "widget test")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer conn.DestroyWindow(win)

	if got := conn.WindowClass(win); got != "TaskbarWidgetTest" {
		t.Fatalf("expected class TaskbarWidgetTest, got %q", got)
	}
	name, err := ewmh.WmNameGet(conn.XUtil, win)
	if err != nil || name != "widget test" {
		t.Fatalf("expected title %q, got %q (%v)", "widget test", name, err)
	}
}

package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/taskbarwidget/internal/config"
	"github.com/1broseidon/taskbarwidget/internal/ipc"
	"github.com/1broseidon/taskbarwidget/internal/platform"
	"github.com/1broseidon/taskbarwidget/internal/platform/platformtest"
	"github.com/1broseidon/taskbarwidget/internal/widget"
)

func fakeShell(platform.Options, *slog.Logger) (platform.Shell, error) {
	shell := platformtest.New()
	shell.Monitor = []platform.Monitor{{DeviceID: "m0", Bounds: platform.Rect{Width: 1920, Height: 1080}, Primary: true}}
	shell.AddWindow(platformtest.Window{Class: "Shell_TrayWnd", Rect: platform.Rect{X: 0, Y: 1032, Width: 1920, Height: 48}})
	return shell, nil
}

type running struct {
	client     *ipc.Client
	configPath string
	cancel     context.CancelFunc
	errc       chan error
}

func startDaemon(t *testing.T, level *slog.LevelVar) *running {
	t.Helper()
	dir, err := os.MkdirTemp("", "tbwd")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("log_level: info\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	res, err := config.LoadFromPath(cfgPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sock := filepath.Join(dir, "d.sock")

	d := New(res.Config, Options{
		ConfigPath: cfgPath,
		SocketPath: sock,
		NewShell:   fakeShell,
		Level:      level,
	})
	ctx, cancel := context.WithCancel(context.Background())
	r := &running{client: ipc.NewClientAt(sock), configPath: cfgPath, cancel: cancel, errc: make(chan error, 1)}
	go func() { r.errc <- d.Run(ctx) }()
	t.Cleanup(r.stop)

	deadline := time.Now().Add(5 * time.Second)
	for r.client.Ping() != nil {
		if time.Now().After(deadline) {
			t.Fatalf("daemon did not come up")
		}
		time.Sleep(20 * time.Millisecond)
	}
	return r
}

func (r *running) stop() {
	r.cancel()
	select {
	case <-r.errc:
	case <-time.After(5 * time.Second):
	}
}

func waitStatus(t *testing.T, c *ipc.Client, ok func(*ipc.StatusData) bool) *ipc.StatusData {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		st, err := c.GetStatus()
		if err == nil && ok(st) {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("status condition not met, last %+v (err %v)", st, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestDaemon_ContentFlowsToWidget(t *testing.T) {
	r := startDaemon(t, nil)

	st := waitStatus(t, r.client, func(s *ipc.StatusData) bool { return s.Embedded && s.Visible })
	if !st.IsMainTaskbar || st.Surface == 0 {
		t.Fatalf("expected surface embedded in the main taskbar, got %+v", st)
	}

	err := r.client.UpdateContent(ipc.ContentPayload{Title: "Song", Artist: "Band", Status: widget.StatusPaused})
	if err != nil {
		t.Fatalf("update content: %v", err)
	}
	st = waitStatus(t, r.client, func(s *ipc.StatusData) bool { return s.Title == "Song" })
	if !st.Paused || st.Artist != "Band" {
		t.Fatalf("unexpected status %+v", st)
	}

	mons, err := r.client.GetMonitors()
	if err != nil {
		t.Fatalf("monitors: %v", err)
	}
	if len(mons.Monitors) != 1 || mons.Monitors[0].Name != "m0" || mons.Selected != 0 {
		t.Fatalf("unexpected monitors %+v", mons)
	}
}

func TestDaemon_ReloadAppliesValidConfig(t *testing.T) {
	level := new(slog.LevelVar)
	r := startDaemon(t, level)

	if err := os.WriteFile(r.configPath, []byte("log_level: debug\nwidget:\n  alignment: right\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.client.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	st := waitStatus(t, r.client, func(s *ipc.StatusData) bool { return s.Alignment == config.AlignRight })
	if st.Style != config.StyleDefault {
		t.Fatalf("expected style to keep default, got %q", st.Style)
	}
	if level.Level() != slog.LevelDebug {
		t.Fatalf("expected log level to follow config, got %v", level.Level())
	}

	if err := os.WriteFile(r.configPath, []byte("widget:\n  style: round\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := r.client.Reload()
	if err == nil || !strings.Contains(err.Error(), "widget.style") {
		t.Fatalf("expected invalid config to be rejected, got %v", err)
	}
	st, err = r.client.GetStatus()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Alignment != config.AlignRight {
		t.Fatalf("expected previous config to stay, got %q", st.Alignment)
	}
}

func TestDaemon_StatusJSONIsFlat(t *testing.T) {
	r := startDaemon(t, nil)
	st := waitStatus(t, r.client, func(s *ipc.StatusData) bool { return s.Embedded })

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"daemon_running", "embedded", "recovery_attempts", "geometry_timer"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected %q in status JSON, got %v", key, fields)
		}
	}
}

func TestDaemon_ShellFailureStopsRun(t *testing.T) {
	d := New(config.DefaultConfig(), Options{
		NewShell: func(platform.Options, *slog.Logger) (platform.Shell, error) {
			return nil, platform.ErrUnsupported
		},
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := d.Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "failed to open shell") {
		t.Fatalf("expected shell error, got %v", err)
	}
}

func TestDaemon_MonitorsWithoutShell(t *testing.T) {
	d := New(config.DefaultConfig(), Options{NewShell: fakeShell})
	ctx, cancel := context.WithCancel(context.Background())
	go d.disp.Run(ctx)
	defer func() {
		cancel()
		<-d.disp.Done()
	}()

	monitors, _, err := d.Monitors(ctx)
	if !errors.Is(err, ErrNoShell) {
		t.Fatalf("expected ErrNoShell, got %v", err)
	}
	if monitors != nil {
		t.Fatalf("expected no monitors, got %+v", monitors)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_WritesToLogFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "warning"
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "widget.log")

	logger, level, closer, err := NewLogger(cfg, os.Stderr)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept", "component", "test")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if level.Level() != slog.LevelWarn {
		t.Fatalf("expected warn level, got %v", level.Level())
	}

	data, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "dropped") || !strings.Contains(out, `"msg":"kept"`) {
		t.Fatalf("unexpected log contents %q", out)
	}
}

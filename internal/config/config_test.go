package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if !cfg.Widget.Active() {
		t.Fatalf("expected widget to be active by default")
	}
	if cfg.Timing.GeometryInterval != 1500*time.Millisecond {
		t.Fatalf("expected geometry interval 1.5s, got %v", cfg.Timing.GeometryInterval)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("expected no source file, got %q", res.File)
	}
	if res.Config.Widget.Alignment != AlignLeft {
		t.Fatalf("expected default alignment left, got %q", res.Config.Widget.Alignment)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("# empty\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Tuning.NativeWidgetsWidth != 216 {
		t.Fatalf("expected native widgets width 216, got %d", res.Config.Tuning.NativeWidgetsWidth)
	}
}

func TestLoadFromPath_PartialOverridesKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"widget:",
		"  alignment: right",
		"  manual_offset: -12",
		"timing:",
		"  geometry_interval: 2s",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Widget.Alignment != AlignRight {
		t.Fatalf("expected alignment right, got %q", cfg.Widget.Alignment)
	}
	if cfg.Widget.ManualOffset != -12 {
		t.Fatalf("expected manual offset -12, got %d", cfg.Widget.ManualOffset)
	}
	if cfg.Timing.GeometryInterval != 2*time.Second {
		t.Fatalf("expected geometry interval 2s, got %v", cfg.Timing.GeometryInterval)
	}
	if cfg.Timing.VisibilityInterval != 250*time.Millisecond {
		t.Fatalf("expected visibility interval to keep default, got %v", cfg.Timing.VisibilityInterval)
	}
	if !cfg.Widget.AutoPadding {
		t.Fatalf("expected auto_padding to keep default true")
	}
	if src, ok := res.Sources["widget.alignment"]; !ok || src.Line != 2 {
		t.Fatalf("expected widget.alignment source on line 2, got %+v (ok=%v)", src, ok)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("unknown_key: 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_InvalidValueHasSourceContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "log_level: info\nwidget:\n  alignment: middle\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if verr.Path != "widget.alignment" {
		t.Fatalf("expected path widget.alignment, got %q", verr.Path)
	}
	if verr.Source.File != path || verr.Source.Line != 3 {
		t.Fatalf("expected source %s:3, got %+v", path, verr.Source)
	}
	if !strings.Contains(err.Error(), path+":3:") {
		t.Fatalf("expected error to carry position, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"style", func(c *Config) { c.Widget.Style = "round" }, "widget.style"},
		{"negative monitor", func(c *Config) { c.Widget.Monitor = -1 }, "widget.monitor"},
		{"empty tray class", func(c *Config) { c.Shell.TrayNotifyClass = " " }, "shell.tray_notify_class"},
		{"tiny interval", func(c *Config) { c.Timing.VisibilityInterval = time.Millisecond }, "timing.visibility_interval"},
		{"zero attempts", func(c *Config) { c.Timing.MaxRecoveryAttempts = 0 }, "timing.max_recovery_attempts"},
		{"scale", func(c *Config) { c.Tuning.Scale = 1.5 }, "tuning.scale"},
		{"threshold", func(c *Config) { c.Tuning.TaskListThreshold = 0 }, "tuning.task_list_threshold"},
		{"font size", func(c *Config) { c.Tuning.FontSize = 0 }, "tuning.font_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestSave_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Widget.Style = StylePill
	cfg.Widget.ShowTime = true
	cfg.Timing.RecoveryDelay = 3 * time.Second
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Widget.Style != StylePill || !res.Config.Widget.ShowTime {
		t.Fatalf("expected saved widget settings, got %+v", res.Config.Widget)
	}
	if res.Config.Timing.RecoveryDelay != 3*time.Second {
		t.Fatalf("expected recovery delay 3s, got %v", res.Config.Timing.RecoveryDelay)
	}
}

func TestWatcher_ReloadsValidChangesOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("widget:\n  monitor: 0\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	changes := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(path, 20*time.Millisecond, nil)
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx, func(c *Config) { changes <- c }) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("widget:\n  alignment: nowhere\n"), 0644); err != nil {
		t.Fatalf("write invalid: %v", err)
	}
	select {
	case c := <-changes:
		t.Fatalf("expected invalid config to be rejected, got %+v", c.Widget)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("widget:\n  monitor: 2\n"), 0644); err != nil {
		t.Fatalf("write valid: %v", err)
	}
	select {
	case c := <-changes:
		if c.Widget.Monitor != 2 {
			t.Fatalf("expected monitor 2, got %d", c.Widget.Monitor)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not stop")
	}
}

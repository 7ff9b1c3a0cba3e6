package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Style selects the widget's size model.
type Style string

const (
	StyleDefault Style = "default"
	StylePill    Style = "pill"
	StyleMinimal Style = "minimal" // Icon only, fixed width.
)

// Alignment selects which shell elements the widget is placed against.
type Alignment string

const (
	AlignLeft   Alignment = "left"   // After the native widgets button.
	AlignCenter Alignment = "center" // Centered, pushed right of the app icons.
	AlignRight  Alignment = "right"  // Before the system tray.
)

// WidgetConfig holds the user-facing widget settings.
type WidgetConfig struct {
	Enabled         bool      `yaml:"enabled"`
	PremiumUnlocked bool      `yaml:"premium_unlocked"`
	Monitor         int       `yaml:"monitor"` // Index into the monitor enumeration, clamped.
	Style           Style     `yaml:"style"`
	Alignment       Alignment `yaml:"alignment"`

	// AutoPadding places the widget against the native widgets button
	// when that button sits on the same side as the alignment.
	AutoPadding bool `yaml:"auto_padding"`
	// DynamicPosition pushes a centered widget right of the app icons.
	DynamicPosition bool `yaml:"dynamic_position"`

	HideOnMaximized     bool `yaml:"hide_on_maximized"`
	DisableIfFullscreen bool `yaml:"disable_if_fullscreen"`
	// HideCompletely hides the widget when no media is playing instead of
	// showing an empty placeholder.
	HideCompletely  bool `yaml:"hide_completely"`
	Animated        bool `yaml:"animated"`
	ShowTime        bool `yaml:"show_time"`
	ControlsEnabled bool `yaml:"controls_enabled"`
	ManualOffset    int  `yaml:"manual_offset"` // Signed pixels added to the final left edge.
}

// ShellConfig names the shell surfaces and automation elements.
type ShellConfig struct {
	MainTaskbarClass         string   `yaml:"main_taskbar_class"`
	SecondaryTaskbarClass    string   `yaml:"secondary_taskbar_class"`
	TrayNotifyClass          string   `yaml:"tray_notify_class"`
	WidgetsButtonID          string   `yaml:"widgets_button_id"`
	SystemTrayID             string   `yaml:"system_tray_id"`
	IgnoredForegroundClasses []string `yaml:"ignored_foreground_classes"`
	// DesktopClasses name the desktop background windows. The X11 adapter
	// reports desktop-type windows under the first entry.
	DesktopClasses []string `yaml:"desktop_classes"`
}

// TimingConfig holds tick intervals and recovery limits.
type TimingConfig struct {
	GeometryInterval    time.Duration `yaml:"geometry_interval"`
	VisibilityInterval  time.Duration `yaml:"visibility_interval"`
	ClockInterval       time.Duration `yaml:"clock_interval"`
	RecoveryDelay       time.Duration `yaml:"recovery_delay"`
	MaxRecoveryAttempts int           `yaml:"max_recovery_attempts"`
}

// TuningConfig holds the placement heuristics, in logical pixels unless
// noted.
type TuningConfig struct {
	Scale              float64 `yaml:"scale"` // Physical size multiplier applied after DPI.
	NativeWidgetsWidth int     `yaml:"native_widgets_width"`
	EdgeInset          int     `yaml:"edge_inset"`
	WidgetsGap         int     `yaml:"widgets_gap"`
	TrayGap            int     `yaml:"tray_gap"`
	TaskListThreshold  float64 `yaml:"task_list_threshold"` // Fraction of taskbar width.
	CollisionSlack     int     `yaml:"collision_slack"`
	CollisionGap       int     `yaml:"collision_gap"`
	FontFamily         string  `yaml:"font_family"`
	FontFile           string  `yaml:"font_file,omitempty"` // OpenType file for text metrics off Windows.
	FontSize           float64 `yaml:"font_size"`
}

// IPCConfig controls the local control socket.
type IPCConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the effective configuration.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	LogFile  string       `yaml:"log_file,omitempty"`
	Widget   WidgetConfig `yaml:"widget"`
	Shell    ShellConfig  `yaml:"shell"`
	Timing   TimingConfig `yaml:"timing"`
	Tuning   TuningConfig `yaml:"tuning"`
	IPC      IPCConfig    `yaml:"ipc"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Widget: WidgetConfig{
			Enabled:             true,
			PremiumUnlocked:     true,
			Monitor:             0,
			Style:               StyleDefault,
			Alignment:           AlignLeft,
			AutoPadding:         true,
			DynamicPosition:     true,
			HideOnMaximized:     false,
			DisableIfFullscreen: true,
			HideCompletely:      false,
			Animated:            true,
			ShowTime:            false,
			ControlsEnabled:     false,
		},
		Shell: ShellConfig{
			MainTaskbarClass:      "Shell_TrayWnd",
			SecondaryTaskbarClass: "Shell_SecondaryTrayWnd",
			TrayNotifyClass:       "TrayNotifyWnd",
			WidgetsButtonID:       "WidgetsButton",
			SystemTrayID:          "SystemTrayIcon",
			IgnoredForegroundClasses: []string{
				"Shell_TrayWnd",
				"Shell_SecondaryTrayWnd",
				"Progman",
				"WorkerW",
				"Windows.UI.Core.CoreWindow",
				"XamlExplorerHostIslandWindow",
			},
			DesktopClasses: []string{"Progman", "WorkerW"},
		},
		Timing: TimingConfig{
			GeometryInterval:    1500 * time.Millisecond,
			VisibilityInterval:  250 * time.Millisecond,
			ClockInterval:       time.Second,
			RecoveryDelay:       time.Second,
			MaxRecoveryAttempts: 5,
		},
		Tuning: TuningConfig{
			Scale:              0.9,
			NativeWidgetsWidth: 216,
			EdgeInset:          20,
			WidgetsGap:         2,
			TrayGap:            1,
			TaskListThreshold:  0.7,
			CollisionSlack:     4,
			CollisionGap:       8,
			FontFamily:         "Segoe UI",
			FontSize:           12,
		},
		IPC: IPCConfig{Enabled: true},
	}
}

// Active reports whether the widget should run at all.
func (w WidgetConfig) Active() bool {
	return w.Enabled && w.PremiumUnlocked
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}

	switch c.Widget.Style {
	case StyleDefault, StylePill, StyleMinimal:
	default:
		return &ValidationError{Path: "widget.style", Err: fmt.Errorf("style must be one of: default, pill, minimal")}
	}
	switch c.Widget.Alignment {
	case AlignLeft, AlignCenter, AlignRight:
	default:
		return &ValidationError{Path: "widget.alignment", Err: fmt.Errorf("alignment must be one of: left, center, right")}
	}
	if c.Widget.Monitor < 0 {
		return &ValidationError{Path: "widget.monitor", Err: fmt.Errorf("monitor must be >= 0")}
	}

	required := map[string]string{
		"shell.main_taskbar_class":      c.Shell.MainTaskbarClass,
		"shell.secondary_taskbar_class": c.Shell.SecondaryTaskbarClass,
		"shell.tray_notify_class":       c.Shell.TrayNotifyClass,
		"shell.widgets_button_id":       c.Shell.WidgetsButtonID,
		"shell.system_tray_id":          c.Shell.SystemTrayID,
	}
	for _, path := range sortedKeys(required) {
		if strings.TrimSpace(required[path]) == "" {
			return &ValidationError{Path: path, Err: fmt.Errorf("must not be empty")}
		}
	}

	intervals := map[string]time.Duration{
		"timing.geometry_interval":   c.Timing.GeometryInterval,
		"timing.visibility_interval": c.Timing.VisibilityInterval,
		"timing.clock_interval":      c.Timing.ClockInterval,
	}
	for _, path := range sortedKeys(intervals) {
		if intervals[path] < 10*time.Millisecond {
			return &ValidationError{Path: path, Err: fmt.Errorf("interval must be >= 10ms")}
		}
	}
	if c.Timing.RecoveryDelay < 0 {
		return &ValidationError{Path: "timing.recovery_delay", Err: fmt.Errorf("recovery_delay must be >= 0")}
	}
	if c.Timing.MaxRecoveryAttempts < 1 {
		return &ValidationError{Path: "timing.max_recovery_attempts", Err: fmt.Errorf("max_recovery_attempts must be >= 1")}
	}

	if c.Tuning.Scale <= 0 || c.Tuning.Scale > 1 {
		return &ValidationError{Path: "tuning.scale", Err: fmt.Errorf("scale must be in (0, 1]")}
	}
	if c.Tuning.TaskListThreshold <= 0 || c.Tuning.TaskListThreshold > 1 {
		return &ValidationError{Path: "tuning.task_list_threshold", Err: fmt.Errorf("task_list_threshold must be in (0, 1]")}
	}
	if c.Tuning.NativeWidgetsWidth <= 0 {
		return &ValidationError{Path: "tuning.native_widgets_width", Err: fmt.Errorf("native_widgets_width must be > 0")}
	}
	if c.Tuning.EdgeInset < 0 || c.Tuning.WidgetsGap < 0 || c.Tuning.TrayGap < 0 ||
		c.Tuning.CollisionSlack < 0 || c.Tuning.CollisionGap < 0 {
		return &ValidationError{Path: "tuning", Err: fmt.Errorf("insets and gaps must be >= 0")}
	}
	if c.Tuning.FontSize <= 0 {
		return &ValidationError{Path: "tuning.font_size", Err: fmt.Errorf("font_size must be > 0")}
	}

	return nil
}

// ValidationError pins a configuration problem to a YAML path and, when
// known, the file position that set it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

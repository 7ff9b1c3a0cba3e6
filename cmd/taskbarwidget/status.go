package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/taskbarwidget/internal/ipc"
)

var (
	styleBrand = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "30", Dark: "45"})
	styleLabel = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "240"})
	styleValue = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "15"})
	styleGood  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"})
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "166", Dark: "214"})
)

type field struct {
	label string
	value string
	warn  bool
}

// renderFields prints aligned label/value rows, styled when styled is set.
func renderFields(w io.Writer, title string, fields []field, styled bool) {
	width := 0
	for _, f := range fields {
		if len(f.label) > width {
			width = len(f.label)
		}
	}
	if styled {
		fmt.Fprintln(w, styleBrand.Render(title))
	}
	for _, f := range fields {
		if !styled {
			fmt.Fprintf(w, "%s: %s\n", f.label, f.value)
			continue
		}
		value := styleValue.Render(f.value)
		if f.warn {
			value = styleWarn.Render(f.value)
		}
		label := styleLabel.Render(fmt.Sprintf("%-*s", width, f.label))
		fmt.Fprintf(w, "  %s  %s\n", label, value)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func statusFields(s *ipc.StatusData) []field {
	title := s.Title
	if s.Artist != "" {
		title = s.Title + " - " + s.Artist
	}
	state := "playing"
	if s.Paused {
		state = "paused"
	}
	fields := []field{
		{label: "active", value: yesNo(s.Active), warn: !s.Active},
		{label: "visible", value: yesNo(s.Visible)},
		{label: "embedded", value: yesNo(s.Embedded), warn: !s.Embedded},
		{label: "taskbar", value: fmt.Sprintf("0x%x (main: %s)", s.Taskbar, yesNo(s.IsMainTaskbar))},
		{label: "monitor", value: strconv.Itoa(s.Monitor)},
		{label: "rect", value: fmt.Sprintf("%d,%d %dx%d", s.Rect.X, s.Rect.Y, s.Rect.Width, s.Rect.Height)},
		{label: "layout", value: fmt.Sprintf("%s / %s", s.Style, s.Alignment)},
		{label: "media", value: title},
		{label: "state", value: state},
	}
	if s.TimeText != "" {
		fields = append(fields, field{label: "time", value: s.TimeText})
	}
	if s.HiddenForMaximized {
		fields = append(fields, field{label: "hidden", value: "fullscreen or maximized window", warn: true})
	}
	recovery := strconv.Itoa(s.RecoveryAttempts)
	if s.RecoveryExhausted {
		recovery += " (exhausted)"
	}
	fields = append(fields,
		field{label: "recovery", value: recovery, warn: s.RecoveryExhausted},
		field{label: "uptime", value: fmt.Sprintf("%ds", s.UptimeSeconds)},
	)
	return fields
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskbarwidget status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the running widget's state.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Print raw JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		if err := writeJSON(os.Stdout, status); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	renderFields(os.Stdout, "taskbarwidget", statusFields(status), isTerminal(os.Stdout))
	return 0
}

func monitorLines(data *ipc.MonitorsData, styled bool) []string {
	lines := make([]string, 0, len(data.Monitors))
	for _, m := range data.Monitors {
		var tags []string
		if m.Primary {
			tags = append(tags, "primary")
		}
		if m.ID == data.Selected {
			tags = append(tags, "widget")
		}
		line := fmt.Sprintf("%d  %s  %dx%d+%d+%d", m.ID, m.Name, m.Width, m.Height, m.X, m.Y)
		if len(tags) > 0 {
			suffix := "[" + strings.Join(tags, ", ") + "]"
			if styled {
				suffix = styleGood.Render(suffix)
			}
			line += "  " + suffix
		}
		lines = append(lines, line)
	}
	return lines
}

func runMonitors(args []string) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskbarwidget monitors [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List monitors in the order widget.monitor indexes them.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Print raw JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	data, err := ipc.NewClient().GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		if err := writeJSON(os.Stdout, data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	for _, line := range monitorLines(data, isTerminal(os.Stdout)) {
		fmt.Println(line)
	}
	return 0
}

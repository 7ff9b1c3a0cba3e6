package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/1broseidon/taskbarwidget/internal/ipc"
	"github.com/1broseidon/taskbarwidget/internal/widget"
)

// parseControls turns "prev,playpause,next" into a Controls value. An
// empty list means the flag was not given.
func parseControls(list string) (*widget.Controls, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	c := &widget.Controls{}
	for _, name := range strings.Split(list, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "prev", "previous":
			c.Previous = true
		case "playpause", "play_pause", "play":
			c.PlayPause = true
		case "next":
			c.Next = true
		case "none", "":
		default:
			return nil, fmt.Errorf("unknown control %q (want prev, playpause, next or none)", name)
		}
	}
	return c, nil
}

func parseStatus(s string) (widget.PlaybackStatus, error) {
	switch st := widget.PlaybackStatus(strings.ToLower(s)); st {
	case widget.StatusClosed, widget.StatusOpened, widget.StatusChanging,
		widget.StatusStopped, widget.StatusPlaying, widget.StatusPaused:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// timelinePayload builds a payload from flag durations. A zero duration
// means no timeline.
func timelinePayload(position, duration time.Duration) (*ipc.TimelinePayload, error) {
	if duration == 0 {
		if position != 0 {
			return nil, fmt.Errorf("--position needs --duration")
		}
		return nil, nil
	}
	if position < 0 || duration < 0 {
		return nil, fmt.Errorf("position and duration must not be negative")
	}
	return &ipc.TimelinePayload{
		PositionMS:  position.Milliseconds(),
		DurationMS:  duration.Milliseconds(),
		LastUpdated: time.Now().UTC(),
	}, nil
}

func runContent(args []string) int {
	fs := flag.NewFlagSet("content", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskbarwidget content --title TITLE [options]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Push now-playing content to the widget. Use --title - --artist -")
		fmt.Fprintln(os.Stderr, "to signal that nothing is playing.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	title := fs.String("title", "", "Track title")
	artist := fs.String("artist", "", "Artist")
	status := fs.String("status", string(widget.StatusPlaying), "Playback status (playing, paused, stopped, ...)")
	iconPath := fs.String("icon", "", "Thumbnail image file")
	controls := fs.String("controls", "", "Enabled transport buttons: prev,playpause,next")
	position := fs.Duration("position", 0, "Playback position (e.g. 1m30s)")
	duration := fs.Duration("duration", 0, "Track length (e.g. 3m)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if *title == "" {
		fmt.Fprintln(os.Stderr, "--title is required")
		fs.Usage()
		return 2
	}

	st, err := parseStatus(*status)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	ctl, err := parseControls(*controls)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	tl, err := timelinePayload(*position, *duration)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	payload := ipc.ContentPayload{
		Title:    *title,
		Artist:   *artist,
		Status:   st,
		Controls: ctl,
		Timeline: tl,
	}
	if *iconPath != "" {
		icon, err := os.ReadFile(*iconPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read icon: %v\n", err)
			return 1
		}
		payload.Icon = icon
	}

	if err := ipc.NewClient().UpdateContent(payload); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runTimeline(args []string) int {
	fs := flag.NewFlagSet("timeline", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskbarwidget timeline --position POS --duration LEN")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Push an authoritative playback position.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	position := fs.Duration("position", 0, "Playback position (e.g. 1m30s)")
	duration := fs.Duration("duration", 0, "Track length (e.g. 3m)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	tl, err := timelinePayload(*position, *duration)
	if err == nil && tl == nil {
		err = fmt.Errorf("--duration is required")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if err := ipc.NewClient().UpdateTimeline(*tl); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

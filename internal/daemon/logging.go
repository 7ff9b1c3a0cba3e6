package daemon

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/1broseidon/taskbarwidget/internal/config"
)

// ParseLevel maps a log_level value to a slog level. Unknown values map to
// info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the process logger from cfg. Output goes to log_file when
// set, otherwise to stderr: text when it is a terminal, JSON when it is not.
// The returned closer releases the log file.
func NewLogger(cfg *config.Config, stderr *os.File) (*slog.Logger, *slog.LevelVar, io.Closer, error) {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.LogLevel))
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return slog.New(slog.NewJSONHandler(f, opts)), level, f, nil
	}

	var handler slog.Handler
	if term.IsTerminal(int(stderr.Fd())) {
		handler = slog.NewTextHandler(stderr, opts)
	} else {
		handler = slog.NewJSONHandler(stderr, opts)
	}
	return slog.New(handler), level, nopCloser{}, nil
}

//go:build !windows && !linux

package platform

import "log/slog"

// NewShell returns the shell adapter for the running platform.
func NewShell(Options, *slog.Logger) (Shell, error) {
	return nil, ErrUnsupported
}

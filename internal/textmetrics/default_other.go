//go:build !windows

package textmetrics

import "log/slog"

// New returns the best measurer available: an OpenType face when a font file
// is configured, the scaled bitmap face otherwise.
func New(opts Options, logger *slog.Logger) Measurer {
	if opts.File != "" {
		m, err := NewFaceMeasurer(opts.File, opts.Size)
		if err == nil {
			return m
		}
		if logger != nil {
			logger.Warn("falling back to bitmap text metrics", "error", err)
		}
	}
	return NewCellMeasurer(opts.Size)
}

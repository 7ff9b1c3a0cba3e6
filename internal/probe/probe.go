// Package probe looks up shell-owned UI elements in the automation tree and
// caches the references between geometry passes.
package probe

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/taskbarwidget/internal/platform"
)

// AutomationSource hands out the shell automation tree. A nil tree means the
// platform has none and every lookup reports not-found.
type AutomationSource interface {
	Automation() platform.Automation
}

// Result is the outcome of a lookup. Err is set only for automation
// failures; an absent or stale element is not an error.
type Result struct {
	Found bool
	Rect  platform.Rect
	Err   error
}

type entry struct {
	elem    platform.Element
	root    platform.Handle
	monitor int
}

// Probe caches one element reference per automation id. It is not safe for
// concurrent use.
type Probe struct {
	source  AutomationSource
	entries map[string]*entry
	logger  *slog.Logger
}

// New creates an empty probe.
func New(source AutomationSource, logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Probe{
		source:  source,
		entries: make(map[string]*entry),
		logger:  logger.With("component", "element-probe"),
	}
}

// Probe returns whether the element was found and its bounding rectangle.
func (p *Probe) Probe(taskbar platform.Handle, id string, monitor int) (bool, platform.Rect) {
	r := p.Lookup(taskbar, id, monitor)
	return r.Found, r.Rect
}

// Lookup resolves id under taskbar, reusing the cached reference when it was
// resolved for the same taskbar and monitor selection.
func (p *Probe) Lookup(taskbar platform.Handle, id string, monitor int) Result {
	auto := p.source.Automation()
	if auto == nil || taskbar == 0 {
		return Result{}
	}

	e := p.entries[id]
	if e != nil && (e.monitor != monitor || e.root != taskbar) {
		p.drop(id)
		e = nil
	}
	if e == nil {
		elem, err := auto.FindByAutomationID(taskbar, id)
		if err != nil {
			p.logger.Warn("automation lookup failed", "id", id, "error", err)
			return Result{Err: err}
		}
		if elem == nil {
			// Element disabled in the shell.
			return Result{}
		}
		e = &entry{elem: elem, root: taskbar, monitor: monitor}
		p.entries[id] = e
	}

	rect, err := e.elem.BoundingRect()
	switch {
	case errors.Is(err, platform.ErrElementStale):
		p.logger.Warn("cached element became stale, resetting", "id", id)
		p.drop(id)
		return Result{}
	case err != nil:
		p.logger.Warn("failed to read element bounds", "id", id, "error", err)
		p.drop(id)
		return Result{Err: err}
	case rect.Empty():
		p.drop(id)
		return Result{}
	}
	return Result{Found: true, Rect: rect}
}

// Cached reports whether a reference for id is currently held.
func (p *Probe) Cached(id string) bool {
	_, ok := p.entries[id]
	return ok
}

// Invalidate drops every cached reference.
func (p *Probe) Invalidate() {
	for id := range p.entries {
		p.drop(id)
	}
}

func (p *Probe) drop(id string) {
	if e, ok := p.entries[id]; ok {
		e.elem.Release()
		delete(p.entries, id)
	}
}

// TaskListRightEdge returns the right edge of the rightmost button whose
// horizontal center lies within threshold (a fraction of the taskbar width)
// from the taskbar's left edge. Buttons further right belong to the tray.
func (p *Probe) TaskListRightEdge(taskbar platform.Handle, bounds platform.Rect, threshold float64) (int, bool, error) {
	auto := p.source.Automation()
	if auto == nil || taskbar == 0 {
		return 0, false, nil
	}
	buttons, err := auto.FindButtons(taskbar)
	if err != nil {
		p.logger.Warn("failed to enumerate taskbar buttons", "error", err)
		return 0, false, err
	}

	limit := float64(bounds.X) + float64(bounds.Width)*threshold
	edge, found := 0, false
	for _, b := range buttons {
		rect, err := b.BoundingRect()
		b.Release()
		if err != nil || rect.Empty() {
			continue
		}
		center := float64(rect.X) + float64(rect.Width)/2
		if center >= limit {
			continue
		}
		if !found || rect.Right() > edge {
			edge, found = rect.Right(), true
		}
	}
	return edge, found, nil
}

// Package recovery schedules bounded recreation of a lost widget surface.
package recovery

import (
	"log/slog"
	"time"

	"github.com/1broseidon/taskbarwidget/internal/dispatch"
)

// RecreateFunc asks the owning application for a new widget surface.
type RecreateFunc func() error

// Manager counts failed recreation requests against a cap. It is not safe
// for concurrent use; call it from the dispatcher.
type Manager struct {
	sched    dispatch.Scheduler
	recreate RecreateFunc
	delay    time.Duration
	max      int

	attempts int
	pending  bool
	logger   *slog.Logger
}

// NewManager creates a manager that waits delay before each request and gives
// up after maxAttempts failed requests.
func NewManager(sched dispatch.Scheduler, recreate RecreateFunc, delay time.Duration, maxAttempts int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sched:    sched,
		recreate: recreate,
		delay:    delay,
		max:      maxAttempts,
		logger:   logger.With("component", "recovery"),
	}
}

// SetLimits updates the settle delay and the attempt cap.
func (m *Manager) SetLimits(delay time.Duration, maxAttempts int) {
	m.delay = delay
	m.max = maxAttempts
}

// HandleLoss schedules a recreation request unless one is already pending or
// the cap has been reached. It reports whether a request was scheduled.
func (m *Manager) HandleLoss() bool {
	if m.pending {
		return false
	}
	if m.Exhausted() {
		m.logger.Error("widget surface lost and recovery exhausted, staying stopped", "attempts", m.attempts)
		return false
	}

	m.pending = true
	m.logger.Warn("widget surface lost, scheduling recovery", "delay", m.delay, "attempt", m.attempts+1)
	m.sched.AfterFunc(m.delay, dispatch.Background, m.run)
	return true
}

func (m *Manager) run() {
	m.pending = false
	if err := m.recreate(); err != nil {
		m.attempts++
		m.logger.Error("failed to recreate widget surface", "error", err, "attempts", m.attempts, "max", m.max)
		return
	}
	m.attempts = 0
	m.logger.Info("widget surface recreated")
}

// Exhausted reports whether the cap has been reached.
func (m *Manager) Exhausted() bool {
	return m.attempts >= m.max
}

// Attempts returns the number of failed requests so far.
func (m *Manager) Attempts() int { return m.attempts }

// Pending reports whether a request is scheduled but has not run yet.
func (m *Manager) Pending() bool { return m.pending }

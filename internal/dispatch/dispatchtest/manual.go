// Package dispatchtest provides a deterministic dispatch.Scheduler for tests.
package dispatchtest

import (
	"time"

	"github.com/1broseidon/taskbarwidget/internal/dispatch"
)

type task struct {
	priority dispatch.Priority
	fn       func()
}

type delayed struct {
	delay time.Duration
	task  task
}

// Scheduler queues work until the test drains it explicitly.
type Scheduler struct {
	queue   []task
	delayed []delayed
	Timers  []*Timer
}

var _ dispatch.Scheduler = (*Scheduler)(nil)

// New returns an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Post(p dispatch.Priority, fn func()) {
	s.queue = append(s.queue, task{priority: p, fn: fn})
}

func (s *Scheduler) AfterFunc(delay time.Duration, p dispatch.Priority, fn func()) {
	s.delayed = append(s.delayed, delayed{delay: delay, task: task{priority: p, fn: fn}})
}

func (s *Scheduler) NewTimer(interval time.Duration, fn func()) dispatch.Timer {
	t := &Timer{Interval: interval, fn: fn}
	s.Timers = append(s.Timers, t)
	return t
}

// Pending returns the number of queued immediate tasks.
func (s *Scheduler) Pending() int { return len(s.queue) }

// PendingDelayed returns the number of delayed tasks not yet released.
func (s *Scheduler) PendingDelayed() int { return len(s.delayed) }

// Delays returns the delays of pending delayed tasks.
func (s *Scheduler) Delays() []time.Duration {
	out := make([]time.Duration, 0, len(s.delayed))
	for _, d := range s.delayed {
		out = append(out, d.delay)
	}
	return out
}

// RunPending drains the queue, normal priority first, including work posted
// while draining.
func (s *Scheduler) RunPending() {
	for len(s.queue) > 0 {
		idx := 0
		for i, t := range s.queue {
			if t.priority == dispatch.Normal {
				idx = i
				break
			}
		}
		t := s.queue[idx]
		s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
		t.fn()
	}
}

// ElapseDelays releases every delayed task and drains the queue.
func (s *Scheduler) ElapseDelays() {
	released := s.delayed
	s.delayed = nil
	for _, d := range released {
		s.queue = append(s.queue, d.task)
	}
	s.RunPending()
}

// Timer is a manually fired timer.
type Timer struct {
	Interval time.Duration
	fn       func()
	enabled  bool
	Starts   int
}

func (t *Timer) Start() {
	if !t.enabled {
		t.Starts++
	}
	t.enabled = true
}

func (t *Timer) Stop() { t.enabled = false }

func (t *Timer) Enabled() bool { return t.enabled }

// Fire runs one tick if the timer is enabled.
func (t *Timer) Fire() {
	if t.enabled {
		t.fn()
	}
}

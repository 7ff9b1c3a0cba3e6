// Package dispatch provides the single UI-affine execution context that all
// shell, geometry and visibility work runs on.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Priority orders queued work. Normal work always drains before background
// work.
type Priority int

const (
	Normal Priority = iota
	Background
)

func (p Priority) String() string {
	if p == Background {
		return "background"
	}
	return "normal"
}

// Scheduler is what components use to get work onto the execution context.
type Scheduler interface {
	Post(p Priority, fn func())
	// AfterFunc posts fn at priority p once delay has elapsed.
	AfterFunc(delay time.Duration, p Priority, fn func())
	// NewTimer returns a stopped periodic timer that runs fn on the context.
	NewTimer(interval time.Duration, fn func()) Timer
}

// Timer is a periodic timer bound to the execution context. Stop guarantees
// that no further ticks run, including ticks already queued.
type Timer interface {
	Start()
	Stop()
	Enabled() bool
}

// ErrStopped is returned by Invoke after the dispatcher has exited.
var ErrStopped = errors.New("dispatcher stopped")

// Config holds dispatcher options.
type Config struct {
	// Pump runs every PumpInterval on the dispatcher thread; used to drain
	// window-system messages.
	Pump         func()
	PumpInterval time.Duration
	Logger       *slog.Logger
}

// Dispatcher is a cooperative single-threaded work queue locked to one OS
// thread.
type Dispatcher struct {
	mu      sync.Mutex
	queues  [2][]func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool

	pump         func()
	pumpInterval time.Duration
	logger       *slog.Logger
}

var _ Scheduler = (*Dispatcher)(nil)

// New creates a dispatcher. Call Run to start processing.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.PumpInterval
	if interval <= 0 {
		interval = 15 * time.Millisecond
	}
	return &Dispatcher{
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		pump:         cfg.Pump,
		pumpInterval: interval,
		logger:       logger,
	}
}

// Post queues fn. It never blocks and is safe from any goroutine.
func (d *Dispatcher) Post(p Priority, fn func()) {
	if fn == nil {
		return
	}
	if p != Background {
		p = Normal
	}
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.queues[p] = append(d.queues[p], fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// AfterFunc posts fn at priority p after delay.
func (d *Dispatcher) AfterFunc(delay time.Duration, p Priority, fn func()) {
	time.AfterFunc(delay, func() { d.Post(p, fn) })
}

// Invoke runs fn on the dispatcher and waits for it to finish.
func (d *Dispatcher) Invoke(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	d.Post(Normal, func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes queued work until ctx is cancelled. It locks the calling
// goroutine to its OS thread for the duration.
func (d *Dispatcher) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var pumpC <-chan time.Time
	if d.pump != nil {
		ticker := time.NewTicker(d.pumpInterval)
		defer ticker.Stop()
		pumpC = ticker.C
	}

	d.logger.Info("dispatcher started")
	defer func() {
		d.mu.Lock()
		d.stopped = true
		d.queues[Normal] = nil
		d.queues[Background] = nil
		d.mu.Unlock()
		close(d.done)
		d.logger.Info("dispatcher stopped")
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		if fn := d.next(); fn != nil {
			d.run(fn)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-d.wake:
		case <-pumpC:
			d.run(d.pump)
		}
	}
}

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) next() func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range []Priority{Normal, Background} {
		if q := d.queues[p]; len(q) > 0 {
			fn := q[0]
			q[0] = nil
			d.queues[p] = q[1:]
			return fn
		}
	}
	return nil
}

func (d *Dispatcher) run(fn func()) {
	// Recover from panics to keep the execution context alive
	defer func() {
		if err := recover(); err != nil {
			d.logger.Error("dispatcher panic recovered", "error", err)
		}
	}()
	fn()
}

// NewTimer returns a stopped timer whose ticks run on the dispatcher.
func (d *Dispatcher) NewTimer(interval time.Duration, fn func()) Timer {
	return &ticker{d: d, interval: interval, fn: fn}
}

type ticker struct {
	d        *Dispatcher
	interval time.Duration
	fn       func()

	mu     sync.Mutex
	stop   chan struct{}
	gen    uint64
	queued bool
}

func (t *ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	t.gen++
	t.stop = make(chan struct{})
	go t.loop(t.stop, t.gen)
}

func (t *ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
	t.gen++
	t.queued = false
}

func (t *ticker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *ticker) loop(stop <-chan struct{}, gen uint64) {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tk.C:
			t.post(gen)
		}
	}
}

// post coalesces ticks: at most one tick per timer waits in the queue.
func (t *ticker) post(gen uint64) {
	t.mu.Lock()
	if t.queued || t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.queued = true
	t.mu.Unlock()

	t.d.Post(Normal, func() {
		t.mu.Lock()
		live := t.gen == gen
		if live {
			t.queued = false
		}
		t.mu.Unlock()
		if live {
			t.fn()
		}
	})
}

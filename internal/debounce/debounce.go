// Package debounce coalesces bursts of requests into a single call that runs
// once the requests have been quiet for a fixed delay.
//
// Each Schedule supersedes the pending request and restarts the delay. A
// superseded request never runs. Superseding only cancels scheduling: a call
// that has already started always runs to completion. Calls never overlap; if
// requests fire while a call is in progress, only the newest of them runs
// next.
package debounce

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the quiet period used when none is configured.
const DefaultDelay = 500 * time.Millisecond

// Phase describes where a Debouncer is in its cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScheduled
	PhaseRunning
)

// String returns the string representation of the Phase
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseScheduled:
		return "scheduled"
	case PhaseRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Task is a deferred call that can be cancelled before it starts.
// Stop reports whether the call was prevented.
type Task interface {
	Stop() bool
}

// Scheduler arranges for f to be called after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// Option configures a Debouncer.
type Option func(*settings)

type settings struct {
	scheduler    Scheduler
	ctx          context.Context
	onSuperseded func()
	onFire       func()
	onIdle       func()
}

// WithScheduler replaces the timer source, mainly for tests.
func WithScheduler(s Scheduler) Option {
	return func(o *settings) { o.scheduler = s }
}

// WithContext sets the context passed to every run.
func WithContext(ctx context.Context) Option {
	return func(o *settings) { o.ctx = ctx }
}

// OnSuperseded is called, under the debouncer's lock, whenever a pending
// request is replaced before it fired.
func OnSuperseded(f func()) Option {
	return func(o *settings) { o.onSuperseded = f }
}

// OnFire is called, under the debouncer's lock, when a request survives its
// quiet period and is handed to the runner.
func OnFire(f func()) Option {
	return func(o *settings) { o.onFire = f }
}

// OnIdle is called on the runner's goroutine after the last queued request
// has run and nothing is pending. Phase already reports PhaseIdle while f
// runs, and Wait does not return until f has.
func OnIdle(f func()) Option {
	return func(o *settings) { o.onIdle = f }
}

// Debouncer delays and coalesces calls to run.
type Debouncer[T any] struct {
	delay time.Duration
	run   func(context.Context, T)
	opts  settings

	mu      sync.Mutex
	task    Task
	gen     uint64
	pending *T
	ready   *T
	running bool
	stopped bool
	busy    bool
	idle    chan struct{}
}

// New creates a Debouncer that calls run with the last request scheduled
// within each quiet period of length delay.
func New[T any](delay time.Duration, run func(context.Context, T), opts ...Option) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	s := settings{
		scheduler: timeScheduler{},
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	idle := make(chan struct{})
	close(idle)

	return &Debouncer[T]{
		delay: delay,
		run:   run,
		opts:  s,
		idle:  idle,
	}
}

// Delay returns the configured quiet period.
func (d *Debouncer[T]) Delay() time.Duration {
	return d.delay
}

// Schedule records req as the latest request and restarts the quiet period.
// It returns false once the Debouncer has been stopped.
func (d *Debouncer[T]) Schedule(req T) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	if d.pending != nil {
		d.task.Stop()
		if d.opts.onSuperseded != nil {
			d.opts.onSuperseded()
		}
	}

	if !d.busy {
		d.busy = true
		d.idle = make(chan struct{})
	}

	d.gen++
	gen := d.gen
	d.pending = &req
	d.task = d.opts.scheduler.AfterFunc(d.delay, func() {
		d.fire(gen)
	})

	return true
}

// fire hands the pending request to the runner if it is still the newest.
// A timer that fired after being superseded carries a stale generation.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || gen != d.gen || d.pending == nil {
		return
	}

	d.ready = d.pending
	d.pending = nil
	d.task = nil
	if d.opts.onFire != nil {
		d.opts.onFire()
	}

	if !d.running {
		d.running = true
		go d.drain()
	}
}

func (d *Debouncer[T]) drain() {
	for {
		d.mu.Lock()
		req := d.ready
		d.ready = nil
		if req == nil {
			d.running = false
			settled := d.pending == nil
			if settled && d.opts.onIdle == nil {
				d.markIdle()
			}
			d.mu.Unlock()

			if settled && d.opts.onIdle != nil {
				d.opts.onIdle()
				d.mu.Lock()
				if !d.running && d.pending == nil && d.ready == nil {
					d.markIdle()
				}
				d.mu.Unlock()
			}
			return
		}
		d.mu.Unlock()

		d.run(d.opts.ctx, *req)
	}
}

// markIdle must be called with mu held.
func (d *Debouncer[T]) markIdle() {
	if d.busy {
		d.busy = false
		close(d.idle)
	}
}

// Flush fires the pending request now instead of waiting out the delay.
// It reports whether there was a pending request.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.pending == nil || d.stopped {
		d.mu.Unlock()
		return false
	}
	d.task.Stop()
	gen := d.gen
	d.mu.Unlock()

	d.fire(gen)
	return true
}

// Phase reports whether a request is waiting, running, or neither.
func (d *Debouncer[T]) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.running || d.ready != nil:
		return PhaseRunning
	case d.pending != nil:
		return PhaseScheduled
	default:
		return PhaseIdle
	}
}

// Pending reports whether a request is waiting for its quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Wait blocks until no request is pending or running, or ctx is done.
func (d *Debouncer[T]) Wait(ctx context.Context) error {
	d.mu.Lock()
	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the pending request and rejects further schedules. A run that
// is already in progress completes.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.task != nil {
		d.task.Stop()
		d.task = nil
	}
	d.pending = nil
	d.ready = nil
	if !d.running {
		d.markIdle()
	}
}

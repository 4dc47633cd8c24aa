// Package pipeline owns a playground session: the source text, the options
// document and the last minified result, and the debounced evaluations that
// connect them.
//
// Edits are applied to the session synchronously. Evaluations run later on
// the debouncer's goroutine against a private copy of the options, and their
// outcome is reconciled into the session when they settle: success replaces
// the result and clears the transform error, failure sets the transform error
// and leaves the last good result in place.
package pipeline

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"github.com/conneroisu/minplay/internal/debounce"
	"github.com/conneroisu/minplay/internal/engine"
	"github.com/conneroisu/minplay/internal/errors"
	"github.com/conneroisu/minplay/internal/logging"
	"github.com/conneroisu/minplay/internal/options"
	"github.com/conneroisu/minplay/internal/size"
)

// request is one committed source+options pair.
type request struct {
	seq    uint64
	source string
	opts   options.Value
	err    error
}

// Option configures a Controller.
type Option func(*Controller)

// WithDelay sets the debounce quiet period.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

// WithScheduler sets the debouncer's timer source.
func WithScheduler(s debounce.Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithDocument replaces the default options document.
func WithDocument(doc *options.Document) Option {
	return func(c *Controller) { c.doc = doc }
}

// WithInitialSource replaces DefaultSource.
func WithInitialSource(text string) Option {
	return func(c *Controller) { c.state.SourceText = text }
}

// WithReevaluateOnOptionsChange makes a successful options edit schedule an
// evaluation of the current source. Off by default: options edits then take
// effect with the next source edit.
func WithReevaluateOnOptionsChange(on bool) Option {
	return func(c *Controller) { c.reevaluate = on }
}

// Controller coordinates one playground session. It is safe for concurrent
// use.
type Controller struct {
	engine     engine.Engine
	doc        *options.Document
	logger     logging.Logger
	metrics    Metrics
	delay      time.Duration
	scheduler  debounce.Scheduler
	reevaluate bool
	debouncer  *debounce.Debouncer[request]

	mu        sync.RWMutex
	state     State
	seq       uint64
	version   uint64
	observers map[int]func(State)
	nextObs   int

	// deliverMu serializes observer calls; delivered is the newest version
	// handed out.
	deliverMu sync.Mutex
	delivered uint64
}

// New creates a Controller evaluating with eng.
func New(eng engine.Engine, opts ...Option) *Controller {
	c := &Controller{
		engine:  engine.Safe(eng),
		metrics: nopMetrics{},
		delay:   debounce.DefaultDelay,
		state: State{
			SourceText: DefaultSource,
			ResultText: DefaultResult,
		},
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.doc == nil {
		c.doc = options.Default()
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}
	c.logger = c.logger.WithComponent("pipeline")
	c.state.SourceSize = size.ByteSize(c.state.SourceText)
	c.metrics.SetSourceBytes(c.state.SourceSize)

	debounceOpts := []debounce.Option{
		debounce.OnSuperseded(c.metrics.ObserveSuperseded),
		debounce.OnIdle(c.notify),
	}
	if c.scheduler != nil {
		debounceOpts = append(debounceOpts, debounce.WithScheduler(c.scheduler))
	}
	c.debouncer = debounce.New(c.delay, c.evaluate, debounceOpts...)

	return c
}

// OnSourceChanged records a source edit, updates the source size right away
// and schedules an evaluation of text with the current options.
func (c *Controller) OnSourceChanged(text string) {
	c.mu.Lock()
	c.state.SourceText = text
	c.state.SourceSize = size.ByteSize(text)
	c.metrics.SetSourceBytes(c.state.SourceSize)
	c.commitLocked(text)
	c.mu.Unlock()

	c.notify()
}

// OnOptionsTextChanged records an options edit. The parsed options change
// only if text parses; the outcome reports which happened.
func (c *Controller) OnOptionsTextChanged(text string) options.Outcome {
	c.mu.Lock()
	outcome := c.doc.SetText(text)
	if !outcome.OK {
		c.logger.Debug(context.Background(), "Options text does not parse", "error", outcome.Err.Error())
	} else if c.reevaluate {
		c.commitLocked(c.state.SourceText)
	}
	c.mu.Unlock()

	c.notify()
	return outcome
}

// commitLocked snapshots the options and schedules source. It runs under mu
// so that the schedule order always matches the order edits were applied.
func (c *Controller) commitLocked(source string) {
	c.seq++
	opts, err := c.doc.Snapshot()
	c.debouncer.Schedule(request{seq: c.seq, source: source, opts: opts, err: err})
}

// evaluate runs on the debouncer's goroutine, one call at a time.
func (c *Controller) evaluate(ctx context.Context, req request) {
	op := logging.StartOperation(c.logger, "minify")

	var code string
	err := req.err
	if err == nil {
		code, err = c.engine.Minify(ctx, req.source, req.opts)
		var pe *errors.PlaygroundError
		if err != nil && !stderrors.As(err, &pe) {
			err = errors.NewTransformError("minify failed", err)
		}
	}
	elapsed := op.Elapsed()

	c.mu.Lock()
	if err != nil {
		c.state.TransformError = err
	} else {
		c.state.ResultText = code
		c.state.ResultSize = size.ByteSize(code)
		c.state.TransformError = nil
		c.metrics.SetResultBytes(c.state.ResultSize)
	}
	c.state.Evaluations++
	c.mu.Unlock()

	if err != nil {
		c.metrics.ObserveEvaluation(OutcomeFailure, elapsed)
		op.EndWithError(ctx, err, "seq", req.seq, "source_bytes", size.ByteSize(req.source))
	} else {
		c.metrics.ObserveEvaluation(OutcomeSuccess, elapsed)
		op.End(ctx, "seq", req.seq, "source_bytes", size.ByteSize(req.source), "result_bytes", size.ByteSize(code))
	}

	c.notify()
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// snapshotLocked must be called with mu held. Edits touch the options
// document and the debouncer only under mu, so the copy is consistent.
func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Version = c.version
	s.OptionsText = c.doc.Text()
	s.OptionsError = c.doc.Err()
	s.Phase = c.debouncer.Phase()
	return s
}

// Options returns the session's options document.
func (c *Controller) Options() *options.Document {
	return c.doc
}

// Subscribe registers fn to receive the state after every change. Calls are
// serialized and arrive in Version order; a state that is already older than
// one delivered is skipped. fn must not block or call back into the
// Controller. The returned function unregisters fn.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	c.version++
	s := c.snapshotLocked()
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.observers[id])
	}
	c.mu.Unlock()

	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	if s.Version <= c.delivered {
		return
	}
	c.delivered = s.Version
	for _, fn := range fns {
		fn(s)
	}
}

// Flush starts the pending evaluation without waiting for the quiet period.
func (c *Controller) Flush() bool {
	return c.debouncer.Flush()
}

// WaitIdle blocks until no evaluation is pending or running.
func (c *Controller) WaitIdle(ctx context.Context) error {
	return c.debouncer.Wait(ctx)
}

// Close cancels any pending evaluation. An evaluation already running still
// settles.
func (c *Controller) Close() {
	c.debouncer.Stop()
}

// Phase reports whether an evaluation is pending, running or neither.
func (c *Controller) Phase() debounce.Phase {
	return c.debouncer.Phase()
}

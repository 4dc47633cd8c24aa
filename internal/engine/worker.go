package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/conneroisu/minplay/internal/errors"
	"github.com/conneroisu/minplay/internal/options"
)

// ErrWorkerClosed is returned by Minify after Close.
var ErrWorkerClosed = stderrors.New("engine worker closed")

type job struct {
	ctx    context.Context
	source string
	opts   options.Value
	reply  chan reply
}

type reply struct {
	code string
	err  error
}

// Worker runs an Engine on its own goroutine and talks to callers only by
// message passing, so a slow minification never runs on the caller's
// goroutine. Jobs execute one at a time in arrival order. A caller whose ctx
// ends stops waiting, but the job it submitted still runs to completion.
type Worker struct {
	engine Engine
	jobs   chan job
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewWorker starts a worker around engine.
func NewWorker(engine Engine) *Worker {
	w := &Worker{
		engine: engine,
		jobs:   make(chan job),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Minify implements Engine.
func (w *Worker) Minify(ctx context.Context, source string, opts options.Value) (string, error) {
	j := job{ctx: ctx, source: source, opts: opts, reply: make(chan reply, 1)}

	select {
	case w.jobs <- j:
	case <-w.done:
		return "", ErrWorkerClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-j.reply:
		return r.code, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case j := <-w.jobs:
			code, err := Safe(w.engine).Minify(j.ctx, j.source, j.opts)
			j.reply <- reply{code: code, err: err}
		case <-w.done:
			return
		}
	}
}

// Close stops the worker after any job in progress finishes.
func (w *Worker) Close() error {
	w.once.Do(func() { close(w.done) })
	w.wg.Wait()
	return nil
}

// Safe wraps engine so that a panic inside it becomes an error.
func Safe(engine Engine) Engine {
	return Func(func(ctx context.Context, source string, opts options.Value) (code string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.NewInternalError(errors.ErrCodeEnginePanic, "minifier crashed", fmt.Errorf("%v", r))
			}
		}()
		return engine.Minify(ctx, source, opts)
	})
}

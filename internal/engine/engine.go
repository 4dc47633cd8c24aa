// Package engine defines the minification engine the playground evaluates
// source text with, plus adapters around it.
//
// An Engine is allowed to modify the options map it is handed; callers pass
// a private copy on every call (see options.Document.Snapshot).
package engine

import (
	"context"

	"github.com/conneroisu/minplay/internal/options"
)

// Engine minifies source under opts. Input the engine rejects is reported as
// an error, normally an *errors.Diagnostic carrying the location.
type Engine interface {
	Minify(ctx context.Context, source string, opts options.Value) (string, error)
}

// Func adapts a plain function to Engine.
type Func func(ctx context.Context, source string, opts options.Value) (string, error)

// Minify implements Engine.
func (f Func) Minify(ctx context.Context, source string, opts options.Value) (string, error) {
	return f(ctx, source, opts)
}

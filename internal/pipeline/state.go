package pipeline

import (
	"github.com/conneroisu/minplay/internal/debounce"
	"github.com/conneroisu/minplay/internal/errors"
	"github.com/conneroisu/minplay/internal/size"
)

const (
	// DefaultSource is the source text a new session starts with.
	DefaultSource = "// write or paste code here"
	// DefaultResult is shown until the first successful evaluation.
	DefaultResult = "// minified output will be shown here"
)

// State is a point-in-time copy of everything a playground displays.
type State struct {
	SourceText  string
	OptionsText string
	ResultText  string

	// OptionsError is set while OptionsText does not parse. Evaluations keep
	// using the last options that did.
	OptionsError error
	// TransformError is set when the most recent evaluation failed.
	// ResultText then still holds the last successful output.
	TransformError error

	SourceSize int
	ResultSize int

	// Evaluations counts settled evaluations, successful or not.
	Evaluations uint64
	Phase       debounce.Phase

	// Version increases with every change notification. Observers never see
	// it go backwards.
	Version uint64
}

// OptionsMessage is the options error as shown to the user, or "".
func (s State) OptionsMessage() string {
	return errors.Message(s.OptionsError)
}

// TransformMessage is the transform error as shown to the user, or "".
func (s State) TransformMessage() string {
	return errors.Message(s.TransformError)
}

// Savings is the percentage of source bytes removed by the last result.
func (s State) Savings() float64 {
	return size.Savings(s.SourceSize, s.ResultSize)
}

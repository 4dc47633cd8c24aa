// Package errors defines the playground's error model: typed
// PlaygroundErrors for the outer surfaces and located Diagnostics for
// messages reported against user input (options text or source text).
package errors

import (
	"fmt"
)

// Diagnostic is a message about user input. Line and Column are 1-based;
// zero means the location is unknown.
type Diagnostic struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	switch {
	case d.Line > 0 && d.Column > 0:
		return fmt.Sprintf("%s (line %d, col %d)", d.Message, d.Line, d.Column)
	case d.Line > 0:
		return fmt.Sprintf("%s (line %d)", d.Message, d.Line)
	default:
		return d.Message
	}
}

// NewDiagnostic creates a diagnostic
func NewDiagnostic(message string, line, column int) *Diagnostic {
	return &Diagnostic{
		Message: message,
		Line:    line,
		Column:  column,
	}
}

// LineColumn converts a byte offset into text to a 1-based line and column.
// Offsets past the end clamp to the last position.
func LineColumn(text string, offset int) (int, int) {
	if offset > len(text) {
		offset = len(text)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a PlaygroundError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *PlaygroundError {
	if err == nil {
		return nil
	}

	// Keep the location of a wrapped PlaygroundError
	var pe *PlaygroundError
	if errors.As(err, &pe) {
		return &PlaygroundError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       pe,
			Context:     pe.Context,
			FilePath:    pe.FilePath,
			Line:        pe.Line,
			Column:      pe.Column,
			Recoverable: pe.Recoverable,
		}
	}

	return &PlaygroundError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeTransform || errType == ErrorTypeOptions,
	}
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *PlaygroundError {
	return Wrap(err, ErrorTypeIO, code, message)
}

// Message returns the text shown to a user next to an editor panel.
// Diagnostics render with their location. A transform error shows its cause,
// other errors show Error().
func Message(err error) string {
	if err == nil {
		return ""
	}

	var d *Diagnostic
	if errors.As(err, &d) {
		return d.Error()
	}

	var pe *PlaygroundError
	if errors.As(err, &pe) && pe.Type == ErrorTypeTransform && pe.Cause != nil {
		return pe.Cause.Error()
	}

	return err.Error()
}

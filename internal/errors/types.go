package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeOptions    ErrorType = "options"
	ErrorTypeTransform  ErrorType = "transform"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// PlaygroundError is a structured error type with context.
type PlaygroundError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	FilePath    string
	Line        int
	Column      int
	Recoverable bool
}

// Error implements the error interface.
func (e *PlaygroundError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" || e.Line > 0 {
		location := e.FilePath
		if e.Line > 0 {
			if location != "" {
				location += ":"
			}
			location += fmt.Sprintf("%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PlaygroundError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *PlaygroundError) Is(target error) bool {
	var t *PlaygroundError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *PlaygroundError) WithContext(key string, value interface{}) *PlaygroundError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *PlaygroundError) WithLocation(filePath string, line, column int) *PlaygroundError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *PlaygroundError {
	return &PlaygroundError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewOptionsError creates an error for an options document that failed to parse.
func NewOptionsError(message string, cause error) *PlaygroundError {
	return &PlaygroundError{
		Type:        ErrorTypeOptions,
		Code:        ErrCodeOptionsInvalid,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewTransformError creates an error for input the engine rejected.
func NewTransformError(message string, cause error) *PlaygroundError {
	return &PlaygroundError{
		Type:        ErrorTypeTransform,
		Code:        ErrCodeTransformFailed,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PlaygroundError {
	return &PlaygroundError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PlaygroundError {
	return &PlaygroundError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsTransformError reports whether err came from the engine rejecting input.
func IsTransformError(err error) bool {
	var pe *PlaygroundError
	if errors.As(err, &pe) {
		return pe.Type == ErrorTypeTransform
	}

	return false
}

// Common error codes.
const (
	ErrCodeOptionsInvalid   = "ERR_OPTIONS_INVALID"
	ErrCodeTransformFailed  = "ERR_TRANSFORM_FAILED"
	ErrCodeEnginePanic      = "ERR_ENGINE_PANIC"
	ErrCodeSnapshotFailed   = "ERR_SNAPSHOT_FAILED"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeWriteFailed      = "ERR_WRITE_FAILED"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
)

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticError(t *testing.T) {
	assert.Equal(t, "Unexpected \"}\" (line 3, col 7)", NewDiagnostic("Unexpected \"}\"", 3, 7).Error())
	assert.Equal(t, "bad (line 2)", NewDiagnostic("bad", 2, 0).Error())
	assert.Equal(t, "bad", NewDiagnostic("bad", 0, 0).Error())
}

func TestLineColumn(t *testing.T) {
	text := "{\n  \"a\": 1,\n  oops\n}"

	line, col := LineColumn(text, 0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	line, col = LineColumn(text, 2)
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)

	line, col = LineColumn(text, 14)
	assert.Equal(t, 3, line)
	assert.Equal(t, 3, col)

	line, _ = LineColumn(text, 1000)
	assert.Equal(t, 4, line)
}

func TestPlaygroundErrorFormatting(t *testing.T) {
	err := NewTransformError("minify failed", NewDiagnostic("Expected \";\"", 1, 5)).
		WithLocation("input.js", 1, 5)

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_TRANSFORM_FAILED]")
	assert.Contains(t, msg, "input.js:1:5")
	assert.Contains(t, msg, "minify failed")
	assert.Contains(t, msg, "Expected")
}

func TestPlaygroundErrorIs(t *testing.T) {
	err := fmt.Errorf("loading: %w", NewConfigError(ErrCodeConfigInvalid, "port out of range"))

	assert.True(t, stderrors.Is(err, NewConfigError(ErrCodeConfigInvalid, "")))
	assert.False(t, stderrors.Is(err, NewConfigError(ErrCodeFileNotFound, "")))
}

func TestWrapPreservesLocation(t *testing.T) {
	inner := NewOptionsError("bad json", nil).WithLocation("", 4, 2)
	wrapped := Wrap(inner, ErrorTypeIO, "ERR_READ", "reading options")

	require.NotNil(t, wrapped)
	assert.Equal(t, 4, wrapped.Line)
	assert.Equal(t, 2, wrapped.Column)
	assert.True(t, wrapped.Recoverable)
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "x", "y"))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "x (line 1, col 2)", Message(fmt.Errorf("wrapped: %w", NewDiagnostic("x", 1, 2))))
	assert.Equal(t, "plain", Message(stderrors.New("plain")))

	transform := NewTransformError("minify failed", stderrors.New("engine said no"))
	assert.Equal(t, "engine said no", Message(transform))
	assert.Equal(t, "x (line 3)", Message(NewTransformError("minify failed", NewDiagnostic("x", 3, 0))))

	internal := NewInternalError(ErrCodeEnginePanic, "minifier crashed", stderrors.New("boom"))
	assert.Equal(t, internal.Error(), Message(internal))
}

func TestIsTransformError(t *testing.T) {
	assert.True(t, IsTransformError(NewTransformError("x", nil)))
	assert.False(t, IsTransformError(NewOptionsError("x", nil)))
	assert.False(t, IsTransformError(stderrors.New("x")))
}

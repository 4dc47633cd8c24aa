package engine

import (
	"context"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/minplay/internal/errors"
	"github.com/conneroisu/minplay/internal/options"
)

func defaultOptions(t *testing.T) options.Value {
	t.Helper()
	v, err := options.Default().Snapshot()
	require.NoError(t, err)
	return v
}

func TestESBuildMinifies(t *testing.T) {
	e := NewESBuild()

	code, err := e.Minify(context.Background(), "var x = 1;\n\n\nfunction add(first, second) {\n  return first + second;\n}\n", defaultOptions(t))
	require.NoError(t, err)

	assert.Contains(t, code, "var x=1")
	assert.NotContains(t, code, "\n\n")
	assert.Less(t, len(code), len("var x = 1;\n\n\nfunction add(first, second) {\n  return first + second;\n}\n"))
}

func TestESBuildReportsSyntaxError(t *testing.T) {
	e := NewESBuild()

	_, err := e.Minify(context.Background(), "var = ;", defaultOptions(t))
	require.Error(t, err)

	var d *errors.Diagnostic
	require.ErrorAs(t, err, &d)
	assert.NotEmpty(t, d.Message)
	assert.Equal(t, 1, d.Line)
	assert.Greater(t, d.Column, 0)
}

func TestESBuildBeautify(t *testing.T) {
	e := NewESBuild()

	opts := options.Value{"compress": false, "mangle": false, "output": map[string]any{"beautify": true}}
	code, err := e.Minify(context.Background(), "if (a) { b(); }", opts)
	require.NoError(t, err)
	assert.Contains(t, code, "\n")
}

func TestESBuildRejectsUnknownOption(t *testing.T) {
	e := NewESBuild()

	_, err := e.Minify(context.Background(), "var x=1", options.Value{"not_an_option": 1})
	require.Error(t, err)
	assert.Contains(t, errors.Message(err), "not_an_option")
}

func TestESBuildHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewESBuild().Minify(ctx, "var x=1", options.Value{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := DecodeSettings(options.Value{})
		require.NoError(t, err)
		assert.True(t, s.Compress)
		assert.True(t, s.Mangle)
		assert.Equal(t, 2020, s.Ecma)
	})

	t.Run("object toggles enable and are consumed", func(t *testing.T) {
		opts := options.Value{
			"compress": map[string]any{"passes": int64(2)},
			"mangle":   false,
			"ecma":     int64(2015),
		}
		s, err := DecodeSettings(opts)
		require.NoError(t, err)
		assert.True(t, s.Compress)
		assert.False(t, s.Mangle)
		assert.Equal(t, 2015, s.Ecma)

		assert.NotContains(t, opts, "compress", "the engine consumes keys from its input")
		assert.NotContains(t, opts, "mangle")
	})

	t.Run("bad toggle", func(t *testing.T) {
		_, err := DecodeSettings(options.Value{"mangle": "yes"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mangle")
	})

	t.Run("nested output", func(t *testing.T) {
		s, err := DecodeSettings(options.Value{"output": map[string]any{"comments": "all"}})
		require.NoError(t, err)
		assert.Equal(t, "all", s.Output.Comments)
	})
}

func TestTransformOptionMapping(t *testing.T) {
	assert.Equal(t, api.ES5, target(5))
	assert.Equal(t, api.ES2015, target(6))
	assert.Equal(t, api.ES2020, target(2020))
	assert.Equal(t, api.ESNext, target(2030))

	assert.Equal(t, api.LegalCommentsNone, legalComments(false))
	assert.Equal(t, api.LegalCommentsNone, legalComments(nil))
	assert.Equal(t, api.LegalCommentsInline, legalComments(true))
	assert.Equal(t, api.LegalCommentsInline, legalComments("some"))

	opts := transformOptions(Settings{Module: true, Output: OutputSettings{Beautify: true}})
	assert.Equal(t, api.FormatESModule, opts.Format)
	assert.False(t, opts.MinifyWhitespace)
}

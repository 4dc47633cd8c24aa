package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/minplay/internal/errors"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.Debounce)
	assert.False(t, cfg.Pipeline.ReevaluateOnOptions)
	assert.True(t, cfg.Pipeline.Worker)
	assert.True(t, cfg.Editor.LineWrap)
	assert.True(t, cfg.Editor.ShowFileSize)
	assert.Empty(t, cfg.Options.File)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(v *viper.Viper)
		check   func(t *testing.T, cfg *Config)
		wantKey string
	}{
		{
			name: "overrides",
			setup: func(v *viper.Viper) {
				v.Set("server.port", 3000)
				v.Set("pipeline.debounce", "250ms")
				v.Set("pipeline.reevaluate_on_options", true)
				v.Set("editor.line_wrap", false)
				v.Set("log.format", "json")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3000, cfg.Server.Port)
				assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.Debounce)
				assert.True(t, cfg.Pipeline.ReevaluateOnOptions)
				assert.False(t, cfg.Editor.LineWrap)
				assert.Equal(t, "json", cfg.Log.Format)
			},
		},
		{
			name:    "port out of range",
			setup:   func(v *viper.Viper) { v.Set("server.port", 70000) },
			wantKey: "server.port",
		},
		{
			name:    "host with shell characters",
			setup:   func(v *viper.Viper) { v.Set("server.host", "localhost;rm") },
			wantKey: "server.host",
		},
		{
			name:    "zero body limit",
			setup:   func(v *viper.Viper) { v.Set("server.max_body_bytes", 0) },
			wantKey: "server.max_body_bytes",
		},
		{
			name:    "zero debounce",
			setup:   func(v *viper.Viper) { v.Set("pipeline.debounce", "0s") },
			wantKey: "pipeline.debounce",
		},
		{
			name:    "debounce too long",
			setup:   func(v *viper.Viper) { v.Set("pipeline.debounce", "2m") },
			wantKey: "pipeline.debounce",
		},
		{
			name:    "unknown log level",
			setup:   func(v *viper.Viper) { v.Set("log.level", "loud") },
			wantKey: "log.level",
		},
		{
			name:    "unknown log format",
			setup:   func(v *viper.Viper) { v.Set("log.format", "xml") },
			wantKey: "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setup(v)

			cfg, err := LoadFrom(v)
			if tt.wantKey != "" {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, errors.NewConfigError(errors.ErrCodeConfigInvalid, "")))
				var pe *errors.PlaygroundError
				require.True(t, stderrors.As(err, &pe))
				assert.Equal(t, tt.wantKey, pe.Context["key"])
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".minplay.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  allowed_origins: ["example.com"]
pipeline:
  debounce: 1s
options:
  file: opts.json
`), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, []string{"example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Second, cfg.Pipeline.Debounce)
	assert.Equal(t, "opts.json", cfg.Options.File)
}

func TestLoadUsesGlobalViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("server.port", 4000)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.Debounce = 750 * time.Millisecond

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "debounce: 750ms")

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(out, &raw))
	v := viper.New()
	require.NoError(t, v.MergeConfigMap(raw))

	back, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

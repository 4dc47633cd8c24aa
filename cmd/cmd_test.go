package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/minplay/internal/options"
)

// resetFlags puts every flag of c and its children back to its default so
// runs of the shared root command do not leak into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfgFile = ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sample = "var x = 1;\n\nfunction add(first, second) {\n  return first + second;\n}\n"

func TestMinifyFile(t *testing.T) {
	src := writeTemp(t, "in.js", sample)

	out, errOut, err := run(t, "", "minify", src, "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "var x=1")
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.False(t, strings.HasSuffix(out, "\n\n"))
	assert.Less(t, len(out), len(sample))
	assert.Contains(t, errOut, "smaller")
}

func TestMinifyStdinWithOptions(t *testing.T) {
	opts := writeTemp(t, "opts.json", `{"output": {"beautify": true}}`)

	out, _, err := run(t, sample, "minify", "--options", opts)
	require.NoError(t, err)
	assert.Contains(t, out, "\n  return")
}

func TestMinifyReportsDiagnostic(t *testing.T) {
	src := writeTemp(t, "bad.js", "var = ;")

	_, _, err := run(t, "", "minify", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), src+": ")
	assert.Contains(t, err.Error(), "(line 1, col ")
}

func TestOptionsDefaults(t *testing.T) {
	out, _, err := run(t, "", "options")
	require.NoError(t, err)
	assert.Equal(t, options.DefaultText+"\n", out)
}

func TestOptionsReformatsAndValidates(t *testing.T) {
	good := writeTemp(t, "good.json", `{"mangle":false,"ecma":2015}`)
	out, _, err := run(t, "", "options", good)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"ecma\": 2015,\n  \"mangle\": false\n}\n", out)

	out, _, err = run(t, "", "options", good, "--check")
	require.NoError(t, err)
	assert.Empty(t, out)

	malformed := writeTemp(t, "bad.json", `{"mangle": }`)
	_, _, err = run(t, "", "options", malformed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), malformed)

	unknown := writeTemp(t, "unknown.json", `{"toplevel": true}`)
	_, _, err = run(t, "", "options", unknown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported minifier options")
}

func TestConfigPrintsYAML(t *testing.T) {
	out, _, err := run(t, "", "config")
	require.NoError(t, err)

	var doc map[string]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 8080, doc["server"]["port"])
	assert.Equal(t, "500ms", doc["pipeline"]["debounce"])
	assert.Equal(t, true, doc["editor"]["line_wrap"])
}

func TestConfigFileFlag(t *testing.T) {
	file := writeTemp(t, "custom.yml", "server:\n  port: 9191\n")
	t.Cleanup(func() {
		viper.SetConfigFile("")
		viper.SetConfigType("yaml")
		_ = viper.ReadConfig(strings.NewReader(""))
	})

	out, _, err := run(t, "", "config", "--config", file)
	require.NoError(t, err)
	assert.Contains(t, out, "port: 9191")
}

func TestVersionFormats(t *testing.T) {
	out, _, err := run(t, "", "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["go_version"])

	out, _, err = run(t, "", "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	_, _, err = run(t, "", "version", "--format", "xml")
	assert.Error(t, err)
}

func TestWatchOnce(t *testing.T) {
	src := writeTemp(t, "app.js", sample)
	out := filepath.Join(filepath.Dir(src), "app.min.js")

	_, _, err := run(t, "", "watch", src, "--once", "-o", out, "--debounce", "10ms")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "var x=1")
}

func TestWatchOnceFailure(t *testing.T) {
	src := writeTemp(t, "app.js", "var = ;")

	_, _, err := run(t, "", "watch", src, "--once")
	require.Error(t, err)
}

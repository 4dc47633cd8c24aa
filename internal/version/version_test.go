package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	prev := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = prev })
}

func withVars(t *testing.T, version, commit, built string) {
	t.Helper()
	pv, pc, pb := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = version, commit, built
	t.Cleanup(func() { Version, GitCommit, BuildTime = pv, pc, pb })
}

func TestLdflagsWin(t *testing.T) {
	withVars(t, "v1.2.3", "0123456789abcdef", "2025-06-01T10:00:00Z")
	withBuildInfo(t, nil)

	assert.Equal(t, "v1.2.3", GetVersion())
	assert.Equal(t, "v1.2.3 (0123456)", GetShortVersion())

	info := GetBuildInfo()
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), info.BuildTime)
	assert.Equal(t, "unknown", info.EngineVersion)
}

func TestBuildInfoFallback(t *testing.T) {
	withVars(t, "dev", "unknown", "unknown")
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Deps: []*debug.Module{
			{Path: "github.com/spf13/cobra", Version: "v1.9.1"},
			{Path: "github.com/evanw/esbuild", Version: "v0.25.5"},
		},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abcdef0123"}},
	})

	assert.Equal(t, "dev", GetVersion())
	assert.Equal(t, "abcdef0123", GetGitCommit())
	assert.Equal(t, "dev-abcdef0", GetShortVersion())
	assert.Equal(t, "v0.25.5", GetEngineVersion())

	detail := GetDetailedVersion()
	assert.True(t, strings.HasPrefix(detail, "Version: dev\nCommit: abcdef0123\n"))
	assert.Contains(t, detail, "esbuild: v0.25.5")
	assert.NotContains(t, detail, "Built:")
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("unknown").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
	assert.Equal(t, 2024, parseTime("2024-03-04 05:06:07").Year())
}

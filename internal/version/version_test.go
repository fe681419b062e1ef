package version

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, version, commit, built string) {
	t.Helper()
	oldVersion, oldCommit, oldBuilt := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = version, commit, built
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = oldVersion, oldCommit, oldBuilt
	})
}

func TestInjectedValuesWin(t *testing.T) {
	withVersion(t, "v1.2.3", "0123456789abcdef", "2024-05-01T10:00:00Z")

	assert.Equal(t, "v1.2.3", GetVersion())
	assert.Equal(t, "0123456789abcdef", GetGitCommit())
	assert.Equal(t, "v1.2.3 (0123456)", GetShortVersion())
	assert.True(t, IsRelease())

	info := GetBuildInfo()
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), info.BuildTime)
	assert.Contains(t, info.Platform, "/")
}

func TestDetailedVersion(t *testing.T) {
	withVersion(t, "v0.4.0", "fedcba9876543210", "2024-05-01 10:00:00")

	detailed := GetDetailedVersion()
	lines := strings.Split(detailed, "\n")

	assert.Equal(t, "Version: v0.4.0", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Commit: fedcba9876543210"))
	assert.Contains(t, detailed, "Built: 2024-05-01T10:00:00Z")
	assert.Contains(t, detailed, "Go: go")
}

func TestParseBuildTime(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		zero  bool
	}{
		{"rfc3339", "2024-05-01T10:00:00+02:00", false},
		{"no zone", "2024-05-01T10:00:00", false},
		{"space separated", "2024-05-01 10:00:00", false},
		{"unknown", "unknown", true},
		{"empty", "", true},
		{"garbage", "yesterday", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.zero, parseBuildTime(tc.value).IsZero())
		})
	}
}

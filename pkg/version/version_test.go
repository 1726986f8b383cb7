package version

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.True(t, info.BuildTime.IsZero(), "unknown build date must not parse")
}

func TestGetBuildInfoParsesBuildDate(t *testing.T) {
	orig := BuildDate
	t.Cleanup(func() { BuildDate = orig })
	BuildDate = "2026-01-13T20:00:00Z"

	info := GetBuildInfo()
	want, _ := time.Parse(time.RFC3339, BuildDate)
	assert.True(t, want.Equal(info.BuildTime))
}

func TestBuildInfoString(t *testing.T) {
	info := BuildInfo{Version: "1.2.3", GitCommit: "abc", BuildDate: "today", GoVersion: "go1.25", Platform: "linux/amd64"}
	assert.Equal(t, "dashboard 1.2.3 (commit: abc, built: today, go1.25 linux/amd64)", info.String())
}

package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Contains(t, info.Platform, runtime.GOOS)
}

func TestInfoString(t *testing.T) {
	out := Info{Version: "1.2.3", Commit: "abc1234", Date: "2026-01-01", GoVersion: "go1.24", Platform: "linux/amd64"}.String()
	assert.Contains(t, out, "haven 1.2.3")
	assert.Contains(t, out, "abc1234")
	assert.Contains(t, out, "linux/amd64")
}

func TestShort(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "v0.4.0"
	assert.Equal(t, "0.4.0", Short())
}

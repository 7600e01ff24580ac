package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	tests := []struct {
		version, commit string
		release         bool
		str, short      string
	}{
		{"dev", "abc", false, "tygra dev (commit abc, built now)", "abc"},
		{"v1.2.3", "0123456789", true, "tygra v1.2.3 (commit 0123456789, built now)", "0123456"},
		{"1.3.0-rc.1", "0123456789", false, "tygra 1.3.0-rc.1 (commit 0123456789, built now)", "0123456"},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			i := Info{Version: tt.version, CommitHash: tt.commit, BuildTime: "now"}
			assert.Equal(t, tt.release, i.Release())
			assert.Equal(t, tt.str, i.String())
			assert.Equal(t, tt.short, i.Short())
		})
	}
}

func TestGet(t *testing.T) {
	i := Get()
	assert.NotEmpty(t, i.GoVersion)
	assert.Contains(t, i.Platform, "/")
}

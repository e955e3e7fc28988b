package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, "dev", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
	assert.Contains(t, info.String(), "smolassistant dev")
}

func TestShort(t *testing.T) {
	saved := CommitHash
	savedVersion := Version
	t.Cleanup(func() { CommitHash = saved; Version = savedVersion })

	CommitHash = "0123456789abcdef"
	assert.Equal(t, "0123456", Get().Short())
	assert.Equal(t, "0123456", Short())

	Version = "v0.3.0"
	assert.Equal(t, "v0.3.0", Short())
	assert.Contains(t, Get().String(), "smolassistant v0.3.0")
}

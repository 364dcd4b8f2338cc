package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentBeforeHandshakeIsUnsupported(t *testing.T) {
	d := NewDetector()
	got := d.Current()
	assert.False(t, got.Supported)
	assert.True(t, got.DetectedAt.IsZero())
}

func TestObserveRecordsHandshake(t *testing.T) {
	d := NewDetector()
	d.Observe("claude-code", "1.2.3", true)

	got := d.Current()
	assert.True(t, got.Supported)
	assert.Equal(t, "claude-code", got.ClientName)
	assert.Equal(t, "1.2.3", got.ClientVersion)
	assert.False(t, got.DetectedAt.IsZero())
}

func TestObserveFirstWins(t *testing.T) {
	d := NewDetector()
	d.Observe("first", "1.0", false)
	d.Observe("second", "2.0", true)

	got := d.Current()
	assert.False(t, got.Supported, "capability is never re-probed mid-session")
	assert.Equal(t, "first", got.ClientName)
}

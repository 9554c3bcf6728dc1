package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHearts_lifecycle(t *testing.T) {
	h := NewHearts(2)
	now := time.Unix(5, 0)

	assert.False(t, h.Active())
	assert.False(t, h.Tick())

	h.Start("7", now)
	heart := h.Get("7")
	require.NotNil(t, heart)
	assert.Equal(t, 2, heart.TicksLeft)
	assert.Equal(t, now, heart.StartedAt)

	assert.True(t, h.Tick())
	assert.Equal(t, 1, h.Get("7").TicksLeft)
	assert.True(t, h.Tick())
	assert.Nil(t, h.Get("7"))
	assert.False(t, h.Active())
}

func TestHearts_restart_and_clear(t *testing.T) {
	h := NewHearts(0)

	h.Start("1", time.Time{})
	h.Tick()
	h.Start("1", time.Time{})
	assert.Equal(t, 8, h.Get("1").TicksLeft)

	h.Clear()
	assert.False(t, h.Active())
}

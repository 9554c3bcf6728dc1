package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	Component("push").Info().Msg("connected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "push", entry["cmp"])
	assert.Equal(t, "connected", entry["message"])
}

func TestScreen(t *testing.T) {
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	Screen("reconcile", "reels-1").Warn().Msg("refresh failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reconcile", entry["cmp"])
	assert.Equal(t, "reels-1", entry["screen_id"])
}

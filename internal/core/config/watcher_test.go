package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "playback:\n  muted: false\n")

	w, err := NewWatcher(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloads := w.Watch(ctx)

	require.NoError(t, os.WriteFile(path, []byte("playback:\n  muted: true\n"), 0o644))

	select {
	case r := <-reloads:
		require.NoError(t, r.Err)
		assert.True(t, r.Config.Playback.Muted)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload delivered")
	}
}

func TestWatcher_ReportsInvalidFile(t *testing.T) {
	path := writeConfig(t, "")

	w, err := NewWatcher(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloads := w.Watch(ctx)

	require.NoError(t, os.WriteFile(path, []byte("retry:\n  max_attempts: -3\n"), 0o644))

	select {
	case r := <-reloads:
		assert.Error(t, r.Err)
		assert.Nil(t, r.Config)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload delivered")
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	w, err := NewWatcher(writeConfig(t, ""), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	reloads := w.Watch(ctx)
	cancel()

	select {
	case _, ok := <-reloads:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed")
	}
}

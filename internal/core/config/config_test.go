package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), *cfg)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.Delay)
	assert.Equal(t, 250*time.Millisecond, cfg.Playback.DoubleTapWindow)
	assert.True(t, cfg.PushEnabled())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
user_id: "9"
api:
  base_url: https://api.example.com
  timeout: 3s
push:
  url: wss://api.example.com/ws
  heartbeat: 0s
retry:
  delay: 500ms
sync:
  refresh_interval: -1s
playback:
  muted: true
  rate: 1.5
  window: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9", cfg.UserID)
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "wss://api.example.com/ws", cfg.Push.URL)
	assert.Equal(t, "/topic/notifications/{user_id}", cfg.Push.Topic, "default applied")
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts, "default applied")
	assert.Equal(t, -time.Second, cfg.Sync.RefreshInterval, "negative interval is kept")
	assert.True(t, cfg.Playback.Muted)
	assert.InDelta(t, 1.5, cfg.Playback.Rate, 0.001)
	assert.Equal(t, 2, cfg.Playback.Window)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "api: [", "parse config file"},
		{"base url scheme", "api:\n  base_url: ftp://x", "api.base_url"},
		{"base url host", "api:\n  base_url: http://", "host is required"},
		{"retry attempts", "retry:\n  max_attempts: -1", "retry.max_attempts"},
		{"rate", "playback:\n  rate: 9", "playback.rate"},
		{"window", "playback:\n  window: -2", "playback.window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FEEDSYNC_TEST_USER=42\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("FEEDSYNC_TEST_USER") })

	require.NoError(t, LoadEnvFiles(false, path))
	assert.Equal(t, "42", os.Getenv("FEEDSYNC_TEST_USER"))

	assert.NoError(t, LoadEnvFiles(true, filepath.Join(dir, "missing.env")))
	assert.Error(t, LoadEnvFiles(false, filepath.Join(dir, "missing.env")))
}

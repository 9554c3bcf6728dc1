package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFiles(t *testing.T) {
	const key = "FEEDSYNC_TEST_ENV_FILE_VALUE"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o600))

	require.NoError(t, LoadEnvFiles(false, path))
	assert.Equal(t, "from-file", os.Getenv(key))
}

func TestLoadEnvFiles_missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.env")

	assert.NoError(t, LoadEnvFiles(true, missing, ""))
	assert.Error(t, LoadEnvFiles(false, missing))
}

func TestConfig_ApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvUserID:   "9",
		EnvAPIToken: "t0k",
		EnvPushURL:  "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	cfg.API.BaseURL = "http://api.example.com"
	cfg.ApplyEnv(lookup)

	assert.Equal(t, "9", cfg.UserID)
	assert.Equal(t, "t0k", cfg.API.Token)
	assert.Equal(t, "http://api.example.com", cfg.API.BaseURL, "unset variables keep file values")
	assert.Empty(t, cfg.Push.URL, "a set but empty variable disables push")
}

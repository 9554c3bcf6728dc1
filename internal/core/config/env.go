package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads KEY=VALUE files into the process environment so the
// CLI's FEEDSYNC_* flag sources see them. Variables already set win. Missing
// files are skipped when optional is true.
func LoadEnvFiles(optional bool, paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %q: %w", p, err)
		}
	}
	return nil
}

// Environment variables read by ApplyEnv.
const (
	EnvUserID     = "FEEDSYNC_USER_ID"
	EnvAPIBaseURL = "FEEDSYNC_API_BASE_URL"
	EnvAPIToken   = "FEEDSYNC_API_TOKEN"
	EnvPushURL    = "FEEDSYNC_PUSH_URL"
)

// ApplyEnv overrides file values with the FEEDSYNC_* variables that lookup
// reports as set. It runs after LoadEnvFiles so .env values take part.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	set(EnvUserID, &c.UserID)
	set(EnvAPIBaseURL, &c.API.BaseURL)
	set(EnvAPIToken, &c.API.Token)
	set(EnvPushURL, &c.Push.URL)
}

// Package config handles configuration loading and validation for feedsync.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	UserID   string         `yaml:"user_id"`
	API      APIConfig      `yaml:"api"`
	Push     PushConfig     `yaml:"push"`
	Retry    RetryConfig    `yaml:"retry"`
	Sync     SyncConfig     `yaml:"sync"`
	Playback PlaybackConfig `yaml:"playback"`
	TUI      TUIConfig      `yaml:"tui"`
}

// APIConfig configures the REST client.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Token   string        `yaml:"token"`
}

// PushConfig configures the STOMP push channel. An empty URL disables push;
// the screens then rely on periodic refresh alone.
type PushConfig struct {
	URL            string        `yaml:"url"`
	Topic          string        `yaml:"topic"` // {user_id} is substituted
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	Heartbeat      time.Duration `yaml:"heartbeat"`
}

// RetryConfig is the policy shared by media loads and mutations.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
}

// SyncConfig configures snapshot refreshes.
type SyncConfig struct {
	// RefreshInterval is the periodic snapshot cadence; negative disables it.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// PlaybackConfig holds reel screen settings.
type PlaybackConfig struct {
	DoubleTapWindow time.Duration `yaml:"double_tap_window"`
	Window          int           `yaml:"window"`
	Muted           bool          `yaml:"muted"`
	Rate            float64       `yaml:"rate"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme string `yaml:"theme"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		Push: PushConfig{
			URL:            "ws://localhost:8080/ws",
			Topic:          "/topic/notifications/{user_id}",
			ReconnectDelay: 5 * time.Second,
			Heartbeat:      10 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			Delay:       2 * time.Second,
		},
		Sync: SyncConfig{
			RefreshInterval: 60 * time.Second,
		},
		Playback: PlaybackConfig{
			DoubleTapWindow: 250 * time.Millisecond,
			Window:          1,
			Rate:            1,
		},
		TUI: TUIConfig{
			Theme: "tokyo-night",
		},
	}
}

// Load reads configuration from the given path. If configPath is empty or
// doesn't exist, defaults are returned.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
// A negative refresh interval is kept since it disables refreshes.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.Push.Topic == "" {
		c.Push.Topic = defaults.Push.Topic
	}
	if c.Push.ReconnectDelay == 0 {
		c.Push.ReconnectDelay = defaults.Push.ReconnectDelay
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if c.Retry.Delay == 0 {
		c.Retry.Delay = defaults.Retry.Delay
	}
	if c.Sync.RefreshInterval == 0 {
		c.Sync.RefreshInterval = defaults.Sync.RefreshInterval
	}
	if c.Playback.DoubleTapWindow == 0 {
		c.Playback.DoubleTapWindow = defaults.Playback.DoubleTapWindow
	}
	if c.Playback.Rate == 0 {
		c.Playback.Rate = defaults.Playback.Rate
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if err := httpURL(c.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}
	if c.Push.ReconnectDelay < 0 {
		return fmt.Errorf("push.reconnect_delay cannot be negative")
	}
	if c.Push.Heartbeat < 0 {
		return fmt.Errorf("push.heartbeat cannot be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("retry.delay cannot be negative")
	}
	if c.Playback.Window < 0 {
		return fmt.Errorf("playback.window cannot be negative")
	}
	if c.Playback.DoubleTapWindow < 0 {
		return fmt.Errorf("playback.double_tap_window cannot be negative")
	}
	if c.Playback.Rate <= 0 || c.Playback.Rate > 4 {
		return fmt.Errorf("playback.rate must be in (0, 4], got %g", c.Playback.Rate)
	}
	return nil
}

// PushEnabled reports whether a push URL is configured.
func (c *Config) PushEnabled() bool { return c.Push.URL != "" }

func httpURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

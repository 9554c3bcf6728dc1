package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/feedsync/internal/core/styles"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration,
// including file accessibility and URL shapes. The configPath argument
// specifies the config file location to validate (empty string skips the
// config file check). This calls Validate() first for basic structural
// validation.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		c.validatePush(),
		criterio.Run("tui.theme", c.TUI.Theme, knownTheme),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.UserID == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Identity",
			Item:     "user_id",
			Message:  "no user id configured; pass --user-id or set FEEDSYNC_USER_ID",
		})
	}
	if !c.PushEnabled() {
		warnings = append(warnings, ValidationWarning{
			Category: "Push",
			Item:     "push.url",
			Message:  "push disabled; lists update on refresh only",
		})
	}
	if c.Sync.RefreshInterval < 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Sync",
			Item:     "sync.refresh_interval",
			Message:  "periodic refresh disabled; missed push events are never reconciled",
		})
	}
	if c.API.Token == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "API",
			Item:     "api.token",
			Message:  "no bearer token configured",
		})
	}

	return warnings
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func (c *Config) validatePush() error {
	if !c.PushEnabled() {
		return nil
	}
	return criterio.ValidateStruct(
		criterio.Run("push.url", c.Push.URL, websocketURL),
		criterio.Run("push.topic", c.Push.Topic, topicPath),
	)
}

func websocketURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("scheme must be ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func topicPath(topic string) error {
	if !strings.HasPrefix(topic, "/") {
		return fmt.Errorf("destination must start with /")
	}
	return nil
}

func knownTheme(name string) error {
	if !slices.Contains(styles.ThemeNames(), name) {
		return fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(styles.ThemeNames(), ", "))
	}
	return nil
}

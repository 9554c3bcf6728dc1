package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/feedsync/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	EnvFile    string

	// UserID overrides user_id from the config file when set.
	UserID string

	ProfilerPort int

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "feedsync", "config.yaml")
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/feedsync/feedsync.log
// On Linux: $XDG_STATE_HOME/feedsync/feedsync.log (defaults to ~/.local/state/feedsync/feedsync.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "feedsync", "feedsync.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "feedsync", "feedsync.log")
	}

	return filepath.Join(home, ".local", "state", "feedsync", "feedsync.log")
}

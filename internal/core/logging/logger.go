package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// Screen creates a component logger bound to one mounted screen.
func Screen(name, screenID string) zerolog.Logger {
	return log.With().Str("cmp", name).Str("screen_id", screenID).Logger()
}

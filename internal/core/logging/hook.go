package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts screen_id and user_id from the event context.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if screenID := GetScreenID(ctx); screenID != "" {
		e.Str("screen_id", screenID)
	}

	if userID := GetUserID(ctx); userID != "" {
		e.Str("user_id", userID)
	}
}

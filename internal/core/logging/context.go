package logging

import "context"

type contextKey string

const (
	screenIDKey contextKey = "screen_id"
	userIDKey   contextKey = "user_id"
)

// WithScreenID tags ctx with the id of the mounted screen that owns the work.
func WithScreenID(ctx context.Context, screenID string) context.Context {
	return context.WithValue(ctx, screenIDKey, screenID)
}

// WithUserID tags ctx with the signed-in user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetScreenID returns the screen id from ctx, or "".
func GetScreenID(ctx context.Context) string {
	if id, ok := ctx.Value(screenIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserID returns the user id from ctx, or "".
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

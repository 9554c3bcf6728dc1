// Package notice carries transient user-visible messages raised by the
// engine, such as a rolled back mutation or a failed refresh.
package notice

import "time"

// Level represents the severity of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a single user-visible message.
type Notice struct {
	ID        int64
	Level     Level
	Message   string
	CreatedAt time.Time
}

// History keeps the most recent notices of a session in memory, newest
// first. It is never persisted.
type History struct {
	limit int
	items []Notice
}

// NewHistory creates a history holding at most limit notices.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 50
	}
	return &History{limit: limit}
}

// Add records n, evicting the oldest entry when full.
func (h *History) Add(n Notice) {
	h.items = append([]Notice{n}, h.items...)
	if len(h.items) > h.limit {
		h.items = h.items[:h.limit]
	}
}

// List returns the recorded notices, newest first.
func (h *History) List() []Notice {
	out := make([]Notice, len(h.items))
	copy(out, h.items)
	return out
}

// Len returns the number of recorded notices.
func (h *History) Len() int { return len(h.items) }

// Clear forgets every notice.
func (h *History) Clear() { h.items = nil }

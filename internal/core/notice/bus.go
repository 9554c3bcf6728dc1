package notice

import (
	"fmt"
	"sync"
	"time"
)

// Subscriber is a callback invoked when a notice is published.
type Subscriber func(Notice)

// Bus is a synchronous in-process notice bus. It dispatches notices to
// subscribers inline and records them in a History. The Bus is safe for use
// from the event loop.
type Bus struct {
	mu          sync.Mutex
	history     *History
	subscribers []Subscriber
	nextID      int64
	now         func() time.Time
}

// NewBus creates a bus. If history is nil, notices are dispatched but not
// recorded.
func NewBus(history *History) *Bus {
	return &Bus{history: history, now: time.Now}
}

// Subscribe registers a callback that will be invoked on every Publish.
func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// Publish dispatches a notice to all subscribers.
func (b *Bus) Publish(n Notice) {
	b.mu.Lock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = b.now()
	}
	b.nextID++
	n.ID = b.nextID
	if b.history != nil {
		b.history.Add(n)
	}
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Errorf publishes an error-level notice.
func (b *Bus) Errorf(format string, args ...any) {
	b.Publish(Notice{Level: LevelError, Message: fmt.Sprintf(format, args...)})
}

// Warnf publishes a warning-level notice.
func (b *Bus) Warnf(format string, args ...any) {
	b.Publish(Notice{Level: LevelWarning, Message: fmt.Sprintf(format, args...)})
}

// Infof publishes an info-level notice.
func (b *Bus) Infof(format string, args ...any) {
	b.Publish(Notice{Level: LevelInfo, Message: fmt.Sprintf(format, args...)})
}

// History returns the recorded notices (newest first), or nil when no
// history is configured.
func (b *Bus) History() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.history == nil {
		return nil
	}
	return b.history.List()
}

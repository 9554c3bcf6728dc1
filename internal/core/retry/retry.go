// Package retry implements the bounded retry policy shared by media loads
// and optimistic mutations.
package retry

import (
	"context"
	"errors"
	"net"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 2 * time.Second
)

// Class groups errors by whether an automatic retry may help.
type Class int

const (
	ClassPermanent Class = iota
	ClassTransient
)

func (c Class) String() string {
	if c == ClassTransient {
		return "transient"
	}
	return "permanent"
}

// Temporary is implemented by errors that know their own retry class.
type Temporary interface {
	Temporary() bool
}

// Classify maps an error to its class. Timeouts, deadline expiry and errors
// reporting Temporary() are transient; everything else, including
// cancellation, is permanent.
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}
	if errors.Is(err, context.Canceled) {
		return ClassPermanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ClassTransient
	}

	var terr Temporary
	if errors.As(err, &terr) && terr.Temporary() {
		return ClassTransient
	}
	return ClassPermanent
}

// Manager counts attempts per resource id for the lifetime of a mount.
// Resource ids are namespaced by the caller, e.g. "media:7" or
// "mutation:<edit id>", so both subsystems share one ceiling.
//
// Manager is owned by the event loop and is not safe for concurrent use.
type Manager struct {
	max      int
	delay    time.Duration
	attempts map[string]int
}

// NewManager creates a manager. Non-positive values fall back to defaults.
func NewManager(maxAttempts int, delay time.Duration) *Manager {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Manager{
		max:      maxAttempts,
		delay:    delay,
		attempts: make(map[string]int),
	}
}

// ShouldRetry reports whether another automatic attempt is allowed.
func (m *Manager) ShouldRetry(resourceID string, class Class) bool {
	if class != ClassTransient {
		return false
	}
	return m.attempts[resourceID] < m.max
}

// RecordAttempt counts one attempt and returns the new total.
func (m *Manager) RecordAttempt(resourceID string) int {
	m.attempts[resourceID]++
	return m.attempts[resourceID]
}

// Attempts returns the recorded attempts for resourceID.
func (m *Manager) Attempts(resourceID string) int {
	return m.attempts[resourceID]
}

// Exhausted reports whether resourceID has used its whole budget.
func (m *Manager) Exhausted(resourceID string) bool {
	return m.attempts[resourceID] >= m.max
}

// Reset forgets resourceID.
func (m *Manager) Reset(resourceID string) {
	delete(m.attempts, resourceID)
}

// ResetAll forgets every resource, used on unmount.
func (m *Manager) ResetAll() {
	clear(m.attempts)
}

// Delay is the fixed wait before an automatic retry.
func (m *Manager) Delay() time.Duration { return m.delay }

// Max is the attempt ceiling per resource.
func (m *Manager) Max() int { return m.max }

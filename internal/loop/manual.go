package loop

import (
	"context"
	"sort"
	"time"
)

// Manual is a deterministic Runner for tests and for driving the engine from
// an outer loop. Post runs fn immediately, Async runs the task inline, and
// timers fire only when the clock is advanced.
type Manual struct {
	now      time.Time
	timers   []*manualTimer
	seq      int
	unmount  bool
	deferred bool
	pending  []func(ctx context.Context) func()
}

type manualTimer struct {
	at       time.Time
	seq      int
	fn       func()
	canceled bool
}

// NewManual creates a manual runner whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// DeferAsync makes Async queue tasks until Flush is called, so tests can
// interleave completions in a chosen order.
func (m *Manual) DeferAsync() { m.deferred = true }

func (m *Manual) Post(fn func()) bool {
	if m.unmount {
		return false
	}
	fn()
	return true
}

func (m *Manual) Async(task func(ctx context.Context) func()) {
	if m.unmount {
		return
	}
	if m.deferred {
		m.pending = append(m.pending, task)
		return
	}
	if next := task(context.Background()); next != nil {
		m.Post(next)
	}
}

// Pending returns the number of deferred Async tasks.
func (m *Manual) Pending() int { return len(m.pending) }

// Flush runs deferred tasks; order selects them by index into the pending
// list (all of them in FIFO order when empty).
func (m *Manual) Flush(order ...int) {
	tasks := m.pending
	m.pending = nil
	if len(order) == 0 {
		for i := range tasks {
			order = append(order, i)
		}
	}
	for _, i := range order {
		if next := tasks[i](context.Background()); next != nil {
			m.Post(next)
		}
	}
}

func (m *Manual) After(d time.Duration, fn func()) func() {
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return func() { t.canceled = true }
}

func (m *Manual) Now() time.Time { return m.now }

// Advance moves the clock forward by d and fires every timer that became due,
// in deadline order.
func (m *Manual) Advance(d time.Duration) {
	m.now = m.now.Add(d)
	for {
		due := m.due()
		if due == nil {
			return
		}
		due.canceled = true
		m.Post(due.fn)
	}
}

// Timers returns the number of armed timers.
func (m *Manual) Timers() int {
	n := 0
	for _, t := range m.timers {
		if !t.canceled {
			n++
		}
	}
	return n
}

// Unmount makes the runner drop all further work.
func (m *Manual) Unmount() { m.unmount = true }

func (m *Manual) due() *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.canceled {
			live = append(live, t)
		}
	}
	m.timers = live

	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
	if len(m.timers) == 0 || m.timers[0].at.After(m.now) {
		return nil
	}
	return m.timers[0]
}

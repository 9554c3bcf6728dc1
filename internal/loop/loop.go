// Package loop provides the single-consumer event loop that owns all engine
// state for a screen.
//
// Engine components (store, overlay, resolver, scheduler) are not safe for
// concurrent use. Every mutation runs inside a function handed to a Runner,
// so interleaved asynchronous completions are serialized without locks.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Runner schedules work on an event loop.
type Runner interface {
	// Post queues fn to run on the loop. It returns false once the loop has
	// been unmounted; fn is then dropped.
	Post(fn func()) bool

	// Async runs task off the loop and posts the continuation it returns.
	// The task receives a context that is independent of the screen so
	// in-flight calls settle on their own; if the loop is unmounted by the
	// time the task finishes, the continuation is discarded.
	Async(task func(ctx context.Context) func())

	// After posts fn once d has elapsed. The returned func cancels it.
	After(d time.Duration, fn func()) (cancel func())

	// Now returns the loop's notion of the current time.
	Now() time.Time
}

// Loop is the production Runner: a FIFO queue drained by one goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	signal  chan struct{}
	mounted atomic.Bool
	timeout time.Duration
	wake    func()
}

// New creates a mounted loop. taskTimeout bounds each Async task; zero means
// no bound.
func New(taskTimeout time.Duration) *Loop {
	l := &Loop{
		queue:   make([]func(), 0, 32),
		signal:  make(chan struct{}, 1),
		timeout: taskTimeout,
	}
	l.mounted.Store(true)
	return l
}

func (l *Loop) Post(fn func()) bool {
	if !l.mounted.Load() {
		return false
	}

	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
	if l.wake != nil {
		l.wake()
	}
	return true
}

func (l *Loop) Async(task func(ctx context.Context) func()) {
	if !l.mounted.Load() {
		return
	}
	go func() {
		ctx := context.Background()
		if l.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, l.timeout)
			defer cancel()
		}
		if next := task(ctx); next != nil {
			l.Post(next)
		}
	}()
}

func (l *Loop) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, func() { l.Post(fn) })
	return func() { t.Stop() }
}

func (l *Loop) Now() time.Time { return time.Now() }

// OnWake registers fn to be called after every Post. Hosts that drive the
// loop from their own event loop use it to schedule a Drain. It must be set
// before the loop is shared.
func (l *Loop) OnWake(fn func()) { l.wake = fn }

// Drain runs queued functions on the caller's goroutine until the queue is
// empty and returns how many ran. It replaces Run for hosts that own the
// consuming goroutine, such as a terminal UI.
func (l *Loop) Drain() int {
	n := 0
	for l.mounted.Load() {
		fn, ok := l.next()
		if !ok {
			break
		}
		fn()
		n++
	}
	return n
}

// Mounted reports whether the loop still accepts work.
func (l *Loop) Mounted() bool { return l.mounted.Load() }

// Unmount stops accepting work. Queued functions that have not started are
// dropped.
func (l *Loop) Unmount() {
	l.mounted.Store(false)
	l.mu.Lock()
	l.queue = l.queue[:0]
	l.mu.Unlock()
}

// Run drains the queue until ctx is cancelled, then unmounts the loop.
func (l *Loop) Run(ctx context.Context) {
	defer l.Unmount()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.signal:
		}

		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			if !l.mounted.Load() || ctx.Err() != nil {
				return
			}
			fn()
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

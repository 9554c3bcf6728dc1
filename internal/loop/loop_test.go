package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsPostedInOrder(t *testing.T) {
	l := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got []int
	)
	done := make(chan struct{})
	for i := range 5 {
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		})
	}

	go l.Run(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not drain")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_AsyncPostsContinuation(t *testing.T) {
	l := New(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	result := make(chan string, 1)
	l.Async(func(ctx context.Context) func() {
		_, hasDeadline := ctx.Deadline()
		return func() {
			if hasDeadline {
				result <- "bounded"
			} else {
				result <- "unbounded"
			}
		}
	})

	select {
	case v := <-result:
		assert.Equal(t, "bounded", v)
	case <-time.After(2 * time.Second):
		t.Fatal("continuation not run")
	}
}

func TestLoop_UnmountDropsWork(t *testing.T) {
	l := New(0)
	l.Unmount()

	assert.False(t, l.Post(func() { t.Fatal("must not run") }))
	assert.False(t, l.Mounted())
}

func TestManual_AdvanceFiresDueTimersInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []string

	m.After(2*time.Second, func() { got = append(got, "b") })
	m.After(time.Second, func() { got = append(got, "a") })
	cancel := m.After(time.Second, func() { got = append(got, "canceled") })
	cancel()

	m.Advance(500 * time.Millisecond)
	assert.Empty(t, got)

	m.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 0, m.Timers())
}

func TestManual_DeferredAsyncFlushOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	m.DeferAsync()
	var got []string

	m.Async(func(context.Context) func() { return func() { got = append(got, "first") } })
	m.Async(func(context.Context) func() { return func() { got = append(got, "second") } })
	require.Equal(t, 2, m.Pending())

	m.Flush(1, 0)

	assert.Equal(t, []string{"second", "first"}, got)
}

func TestManual_UnmountDiscardsContinuations(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	m.DeferAsync()
	ran := false
	m.Async(func(context.Context) func() { return func() { ran = true } })

	m.Unmount()
	m.Flush()

	assert.False(t, ran)
}

func TestLoop_DrainWithWake(t *testing.T) {
	l := New(0)
	wakes := 0
	l.OnWake(func() { wakes++ })

	var got []int
	l.Post(func() {
		got = append(got, 1)
		l.Post(func() { got = append(got, 3) })
	})
	l.Post(func() { got = append(got, 2) })

	assert.Equal(t, 2, wakes)
	assert.Equal(t, 3, l.Drain())
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 3, wakes)
	assert.Zero(t, l.Drain())
}

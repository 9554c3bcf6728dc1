package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/feedsync/internal/loop"
)

type tapLog struct {
	singles []string
	doubles []string
}

func newDetector(window time.Duration) (*Detector, *loop.Manual, *tapLog) {
	m := loop.NewManual(time.Unix(0, 0))
	log := &tapLog{}
	d := NewDetector(m, window,
		func(id string) { log.singles = append(log.singles, id) },
		func(id string) { log.doubles = append(log.doubles, id) },
	)
	return d, m, log
}

func TestDetector(t *testing.T) {
	tests := []struct {
		name    string
		gaps    []time.Duration
		ids     []string
		singles []string
		doubles []string
	}{
		{
			name:    "lone tap is single after window",
			ids:     []string{"a"},
			singles: []string{"a"},
		},
		{
			name:    "two taps inside window",
			ids:     []string{"a", "a"},
			gaps:    []time.Duration{100 * time.Millisecond},
			doubles: []string{"a"},
		},
		{
			name:    "two taps at the edge",
			ids:     []string{"a", "a"},
			gaps:    []time.Duration{249 * time.Millisecond},
			doubles: []string{"a"},
		},
		{
			name:    "two slow taps are two singles",
			ids:     []string{"a", "a"},
			gaps:    []time.Duration{400 * time.Millisecond},
			singles: []string{"a", "a"},
		},
		{
			name:    "taps on different items",
			ids:     []string{"a", "b"},
			gaps:    []time.Duration{50 * time.Millisecond},
			singles: []string{"a", "b"},
		},
		{
			name:    "third tap starts over",
			ids:     []string{"a", "a", "a"},
			gaps:    []time.Duration{50 * time.Millisecond, 50 * time.Millisecond},
			singles: []string{"a"},
			doubles: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m, log := newDetector(250 * time.Millisecond)
			for i, id := range tt.ids {
				if i > 0 {
					m.Advance(tt.gaps[i-1])
				}
				d.Tap(id)
			}
			m.Advance(time.Second)

			assert.Equal(t, tt.singles, log.singles)
			assert.Equal(t, tt.doubles, log.doubles)
			assert.False(t, d.Awaiting())
		})
	}
}

func TestDetector_Reset_drops_pending(t *testing.T) {
	d, m, log := newDetector(0)

	d.Tap("a")
	assert.True(t, d.Awaiting())
	d.Reset()
	m.Advance(time.Second)

	assert.Empty(t, log.singles)
	assert.Zero(t, m.Timers())
}

func TestDetector_SetWindow(t *testing.T) {
	d, m, log := newDetector(100 * time.Millisecond)
	d.SetWindow(500 * time.Millisecond)

	d.Tap("a")
	m.Advance(300 * time.Millisecond)
	d.Tap("a")

	assert.Equal(t, []string{"a"}, log.doubles)
}

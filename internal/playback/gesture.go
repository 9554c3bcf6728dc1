package playback

import (
	"time"

	"github.com/colonyops/feedsync/internal/loop"
)

// DefaultDoubleTapWindow is the longest gap between the taps of a double tap.
const DefaultDoubleTapWindow = 250 * time.Millisecond

type detectorState int

const (
	stateIdle detectorState = iota
	stateAwaitingSecondTap
)

// Detector tells single taps from double taps on the same entity. It is a
// two-state machine, Idle -> AwaitingSecondTap(deadline) -> Idle, driven by
// the runner's clock and timers.
//
// A single tap is reported only once the window has passed without a second
// tap, so a double tap never produces a single tap as well. A tap on a
// different entity while awaiting flushes the pending one as a single tap.
type Detector struct {
	runner   loop.Runner
	window   time.Duration
	onSingle func(id string)
	onDouble func(id string)

	state    detectorState
	pending  string
	deadline time.Time
	gen      uint64
	cancel   func()
}

// NewDetector creates an idle detector.
func NewDetector(runner loop.Runner, window time.Duration, onSingle, onDouble func(id string)) *Detector {
	if window <= 0 {
		window = DefaultDoubleTapWindow
	}
	return &Detector{
		runner:   runner,
		window:   window,
		onSingle: onSingle,
		onDouble: onDouble,
	}
}

// SetWindow changes the double-tap window for subsequent taps.
func (d *Detector) SetWindow(window time.Duration) {
	if window > 0 {
		d.window = window
	}
}

// Awaiting reports whether a first tap is waiting for its partner.
func (d *Detector) Awaiting() bool { return d.state == stateAwaitingSecondTap }

// Tap records a tap on id.
func (d *Detector) Tap(id string) {
	now := d.runner.Now()

	if d.state == stateAwaitingSecondTap {
		prev := d.pending
		inWindow := !now.After(d.deadline)
		d.reset()
		if prev == id && inWindow {
			d.onDouble(id)
			return
		}
		d.onSingle(prev)
	}

	d.state = stateAwaitingSecondTap
	d.pending = id
	d.deadline = now.Add(d.window)
	gen := d.gen
	d.cancel = d.runner.After(d.window, func() { d.expire(gen) })
}

// Reset drops a pending tap without reporting it.
func (d *Detector) Reset() { d.reset() }

func (d *Detector) expire(gen uint64) {
	if d.state != stateAwaitingSecondTap || gen != d.gen {
		return
	}
	id := d.pending
	d.reset()
	d.onSingle(id)
}

func (d *Detector) reset() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.gen++
	d.state = stateIdle
	d.pending = ""
	d.deadline = time.Time{}
}

// Package playback decides which reel plays when. It enforces the
// single-active-media policy over the feed order, tells taps from double
// taps and bounds media load retries. Decoding is left to a Player.
package playback

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/feedsync/internal/core/retry"
	"github.com/colonyops/feedsync/internal/loop"
)

// LoadState is the load phase of one item.
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadLoading
	LoadReady
	LoadErrored
)

func (s LoadState) String() string {
	switch s {
	case LoadLoading:
		return "loading"
	case LoadReady:
		return "ready"
	case LoadErrored:
		return "errored"
	default:
		return "idle"
	}
}

// Media is one feed entry as the scheduler sees it.
type Media struct {
	ID  string
	URL string
}

// ItemState is the consolidated playback state of one item inside the
// window around the focused index.
type ItemState struct {
	Index    int
	EntityID string
	URL      string
	Load     LoadState
	Playing  bool
	// UserPaused is an explicit pause on the focused item that only a new
	// focus clears.
	UserPaused bool
	// Attempts counts load attempts within the current retry budget of
	// MaxAttempts.
	Attempts    int
	MaxAttempts int
	// Exhausted is true once the budget is spent; only Retry loads again.
	Exhausted bool
	// AutoRetry is true while an automatic retry is scheduled.
	AutoRetry bool
	Err       error
}

// NeedsManualRetry reports whether the item failed and will not retry on
// its own.
func (s ItemState) NeedsManualRetry() bool {
	return s.Load == LoadErrored && !s.AutoRetry
}

// Player is the media pipeline. Calls are made on the loop; the player
// reports load results back through Scheduler.Loaded and Scheduler.Failed
// on the same loop.
type Player interface {
	Load(id, url string)
	Play(id string)
	Pause(id string)
	// Apply re-applies mute and rate without restarting playback.
	Apply(id string, muted bool, rate float64)
	Release(id string)
}

// Config configures a Scheduler.
type Config struct {
	// Window is how many items on each side of the focused one are kept
	// loaded.
	Window          int
	DoubleTapWindow time.Duration
	Muted           bool
	Rate            float64
}

// Scheduler owns playback for one mounted reel screen. It must only be used
// from its runner.
type Scheduler struct {
	runner loop.Runner
	retry  *retry.Manager
	player Player
	log    zerolog.Logger

	window int
	muted  bool
	rate   float64

	items   []Media
	focused int
	states  map[string]*ItemState
	timers  map[string]func()
	playing string
	mounted bool
	hidden  bool

	detector *Detector
	hearts   *Hearts
	onLike   func(id string)
}

// NewScheduler creates a scheduler. onLike is called once per double tap.
func NewScheduler(runner loop.Runner, rm *retry.Manager, player Player, cfg Config, onLike func(id string), log zerolog.Logger) *Scheduler {
	if cfg.Window < 0 {
		cfg.Window = 0
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if rm == nil {
		rm = retry.NewManager(0, 0)
	}
	if onLike == nil {
		onLike = func(string) {}
	}
	s := &Scheduler{
		runner:  runner,
		retry:   rm,
		player:  player,
		log:     log,
		window:  cfg.Window,
		muted:   cfg.Muted,
		rate:    cfg.Rate,
		focused: -1,
		states:  make(map[string]*ItemState),
		timers:  make(map[string]func()),
		mounted: true,
		hearts:  NewHearts(0),
		onLike:  onLike,
	}
	s.detector = NewDetector(runner, cfg.DoubleTapWindow, s.singleTap, s.doubleTap)
	return s
}

// Sync re-reads the feed order. Items that left the feed are released; the
// focused entity keeps focus when it is still present.
func (s *Scheduler) Sync(items []Media) {
	if !s.mounted {
		return
	}
	focusedID := s.focusedID()
	s.items = append(s.items[:0:0], items...)

	idx := make(map[string]int, len(items))
	for i, m := range items {
		idx[m.ID] = i
	}
	for id, st := range s.states {
		i, ok := idx[id]
		if !ok {
			s.release(id)
			continue
		}
		st.Index = i
		st.URL = items[i].URL
	}

	switch i, ok := idx[focusedID]; {
	case ok:
		s.focused = i
	case len(items) == 0:
		s.focused = -1
	case s.focused < 0:
		s.focused = 0
	default:
		s.focused = min(s.focused, len(items)-1)
	}
	s.reconcile()
}

// Settle focuses the item nearest to a settled scroll offset.
func (s *Scheduler) Settle(offset, itemExtent float64) {
	if itemExtent <= 0 {
		return
	}
	s.Focus(int(math.Round(offset / itemExtent)))
}

// Focus moves focus to index i (clamped). Every other item is paused; the
// focused one plays once ready. A new focus clears the user pause.
func (s *Scheduler) Focus(i int) {
	if !s.mounted || len(s.items) == 0 {
		return
	}
	i = max(0, min(i, len(s.items)-1))
	if i == s.focused {
		return
	}
	s.focused = i
	s.detector.Reset()
	if st, ok := s.states[s.items[i].ID]; ok {
		st.UserPaused = false
	}
	s.reconcile()
}

// SetVisible pauses playback while the reel screen is covered and resumes
// the focused item when it is shown again. Loads continue while hidden.
func (s *Scheduler) SetVisible(visible bool) {
	if !s.mounted || s.hidden == !visible {
		return
	}
	s.hidden = !visible
	if s.hidden {
		s.detector.Reset()
	}
	s.reconcile()
}

// Focused returns the focused index, or -1 for an empty feed.
func (s *Scheduler) Focused() int { return s.focused }

// Tap feeds a tap on entity id into the gesture detector.
func (s *Scheduler) Tap(id string) {
	if !s.mounted {
		return
	}
	s.detector.Tap(id)
}

func (s *Scheduler) singleTap(id string) {
	if !s.mounted || id != s.focusedID() {
		return
	}
	st, ok := s.states[id]
	if !ok || st.Load != LoadReady {
		return
	}
	st.UserPaused = !st.UserPaused
	s.log.Debug().Str("id", id).Bool("paused", st.UserPaused).Msg("tap toggled playback")
	s.reconcile()
}

func (s *Scheduler) doubleTap(id string) {
	if !s.mounted {
		return
	}
	s.hearts.Start(id, s.runner.Now())
	s.onLike(id)
}

// Hearts returns the like animations.
func (s *Scheduler) Hearts() *Hearts { return s.hearts }

// Loaded is reported by the player when id is ready.
func (s *Scheduler) Loaded(id string) {
	st, ok := s.states[id]
	if !s.mounted || !ok || st.Load != LoadLoading {
		return
	}
	st.Load = LoadReady
	st.Err = nil
	st.Attempts = 0
	s.retry.Reset(resource(id))
	s.reconcile()
}

// Failed is reported by the player when loading id failed. Transient
// failures retry automatically after the shared delay until the budget is
// spent; anything else waits for Retry.
func (s *Scheduler) Failed(id string, err error) {
	st, ok := s.states[id]
	if !s.mounted || !ok || st.Load != LoadLoading {
		return
	}
	st.Load = LoadErrored
	st.Err = err

	res := resource(id)
	class := retry.Classify(err)
	if !s.retry.ShouldRetry(res, class) {
		s.log.Warn().Err(err).
			Str("id", id).
			Str("class", class.String()).
			Int("attempts", s.retry.Attempts(res)).
			Bool("exhausted", s.retry.Exhausted(res)).
			Msg("media unavailable")
		return
	}

	st.AutoRetry = true
	s.timers[id] = s.runner.After(s.retry.Delay(), func() {
		delete(s.timers, id)
		cur, ok := s.states[id]
		if !s.mounted || !ok || cur.Load != LoadErrored {
			return
		}
		cur.AutoRetry = false
		s.load(cur)
	})
}

// Retry reloads id on user request with a fresh retry budget.
func (s *Scheduler) Retry(id string) error {
	st, ok := s.states[id]
	if !s.mounted || !ok {
		return fmt.Errorf("media %s is not in the playback window", id)
	}
	if st.Load != LoadErrored {
		return nil
	}
	s.cancelTimer(id)
	st.AutoRetry = false
	s.retry.Reset(resource(id))
	s.load(st)
	return nil
}

// SetMuted changes the screen-wide mute and re-applies it to the playing
// item without restarting it.
func (s *Scheduler) SetMuted(muted bool) {
	s.muted = muted
	s.applySettings()
}

// SetRate changes the screen-wide playback rate.
func (s *Scheduler) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	s.rate = rate
	s.applySettings()
}

// SetDoubleTapWindow changes the double-tap window.
func (s *Scheduler) SetDoubleTapWindow(d time.Duration) { s.detector.SetWindow(d) }

// Muted returns the screen-wide mute setting.
func (s *Scheduler) Muted() bool { return s.muted }

// Rate returns the screen-wide playback rate.
func (s *Scheduler) Rate() float64 { return s.rate }

func (s *Scheduler) applySettings() {
	if s.playing != "" {
		s.player.Apply(s.playing, s.muted, s.rate)
	}
}

// Playing returns the index of the playing item.
func (s *Scheduler) Playing() (int, bool) {
	st, ok := s.states[s.playing]
	if s.playing == "" || !ok {
		return -1, false
	}
	return st.Index, true
}

// State returns the state of index i when it is inside the window.
func (s *Scheduler) State(i int) (ItemState, bool) {
	if i < 0 || i >= len(s.items) {
		return ItemState{}, false
	}
	st, ok := s.states[s.items[i].ID]
	if !ok {
		return ItemState{}, false
	}
	return s.view(st), true
}

// Snapshot returns the states inside the window in feed order.
func (s *Scheduler) Snapshot() []ItemState {
	out := make([]ItemState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, s.view(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Unmount releases every player resource and drops pending timers.
func (s *Scheduler) Unmount() {
	if !s.mounted {
		return
	}
	s.detector.Reset()
	for id := range s.states {
		s.release(id)
	}
	s.hearts.Clear()
	s.mounted = false
}

func (s *Scheduler) view(st *ItemState) ItemState {
	v := *st
	v.Playing = st.EntityID == s.playing
	res := resource(st.EntityID)
	v.Attempts = s.retry.Attempts(res)
	v.MaxAttempts = s.retry.Max()
	v.Exhausted = s.retry.Exhausted(res)
	return v
}

// reconcile loads the window around the focus, releases what left it and
// enforces a single playing item.
func (s *Scheduler) reconcile() {
	if s.focused < 0 {
		for id := range s.states {
			s.release(id)
		}
		return
	}

	lo := max(0, s.focused-s.window)
	hi := min(len(s.items)-1, s.focused+s.window)
	inWindow := make(map[string]struct{}, hi-lo+1)
	for i := lo; i <= hi; i++ {
		inWindow[s.items[i].ID] = struct{}{}
	}
	for id := range s.states {
		if _, ok := inWindow[id]; !ok {
			s.release(id)
		}
	}
	for i := lo; i <= hi; i++ {
		m := s.items[i]
		if _, ok := s.states[m.ID]; ok {
			continue
		}
		st := &ItemState{Index: i, EntityID: m.ID, URL: m.URL}
		s.states[m.ID] = st
		s.load(st)
	}

	focused := s.states[s.items[s.focused].ID]
	want := ""
	if focused.Load == LoadReady && !focused.UserPaused && !s.hidden {
		want = focused.EntityID
	}
	if s.playing != "" && s.playing != want {
		s.player.Pause(s.playing)
		s.playing = ""
	}
	if want != "" && s.playing != want {
		s.player.Apply(want, s.muted, s.rate)
		s.player.Play(want)
		s.playing = want
	}
}

func (s *Scheduler) load(st *ItemState) {
	st.Load = LoadLoading
	st.Err = nil
	n := s.retry.RecordAttempt(resource(st.EntityID))
	s.log.Debug().Str("id", st.EntityID).Int("attempt", n).Msg("loading media")
	s.player.Load(st.EntityID, DeliveryURL(st.URL))
}

func (s *Scheduler) release(id string) {
	if s.playing == id {
		s.player.Pause(id)
		s.playing = ""
	}
	s.cancelTimer(id)
	delete(s.states, id)
	s.player.Release(id)
}

func (s *Scheduler) cancelTimer(id string) {
	if cancel, ok := s.timers[id]; ok {
		cancel()
		delete(s.timers, id)
	}
}

func (s *Scheduler) focusedID() string {
	if s.focused < 0 || s.focused >= len(s.items) {
		return ""
	}
	return s.items[s.focused].ID
}

func resource(id string) string { return "media:" + id }

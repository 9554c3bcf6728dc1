package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/core/event"
	"github.com/colonyops/feedsync/internal/core/notice"
	"github.com/colonyops/feedsync/internal/core/overlay"
	"github.com/colonyops/feedsync/internal/core/retry"
	"github.com/colonyops/feedsync/internal/core/store"
	"github.com/colonyops/feedsync/internal/loop"
)

// DefaultRefreshInterval is the periodic snapshot interval.
const DefaultRefreshInterval = 60 * time.Second

// EventSource is a cold event stream, such as a push channel. Each call to
// Events starts a new subscription that ends when ctx is cancelled.
type EventSource interface {
	Events(ctx context.Context) <-chan event.Event
}

// Deps are the collaborators a screen session is built from. Nothing is read
// ambiently.
type Deps struct {
	Runner  loop.Runner
	Retry   *retry.Manager
	Notices *notice.Bus
	Logger  zerolog.Logger
	UserID  string

	// RefreshInterval is the periodic snapshot interval. Zero uses the
	// default; negative disables periodic refresh.
	RefreshInterval time.Duration
}

func (d Deps) refreshInterval() time.Duration {
	switch {
	case d.RefreshInterval < 0:
		return 0
	case d.RefreshInterval == 0:
		return DefaultRefreshInterval
	default:
		return d.RefreshInterval
	}
}

// session is the loop-owned state shared by every screen session.
type session[E entity.Entity] struct {
	deps     Deps
	log      zerolog.Logger
	store    *store.Store[E]
	overlay  *overlay.Overlay[E]
	resolver *Resolver[E]

	list func(ctx context.Context) ([]E, error)

	mounted      bool
	loading      bool
	manual       bool
	loaded       bool
	lastErr      error
	cancelTimer  func()
	cancelStream context.CancelFunc
	onChange     []func()
}

func newSession[E entity.Entity](deps Deps, head bool, project overlay.Projector[E], list func(ctx context.Context) ([]E, error)) *session[E] {
	if deps.Retry == nil {
		deps.Retry = retry.NewManager(0, 0)
	}
	if deps.Notices == nil {
		deps.Notices = notice.NewBus(nil)
	}

	s := store.New[E]()
	o := overlay.New(s, project, overlay.WithClock[E](deps.Runner.Now))
	return &session[E]{
		deps:     deps,
		log:      deps.Logger,
		store:    s,
		overlay:  o,
		resolver: NewResolver(s, o, head, deps.Logger),
		list:     list,
		mounted:  true,
	}
}

// OnChange registers fn to run on the loop after every rendered change.
func (s *session[E]) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *session[E]) changed() {
	for _, fn := range s.onChange {
		fn()
	}
}

// Items returns the collection as it should render.
func (s *session[E]) Items() []E { return s.overlay.View() }

// Get returns the rendered entity for id.
func (s *session[E]) Get(id string) (E, bool) { return s.overlay.Get(id) }

// Pending returns the number of outstanding edits.
func (s *session[E]) Pending() int { return s.overlay.Len() }

// IsPending reports whether id has an outstanding edit.
func (s *session[E]) IsPending(id string) bool { return s.overlay.Pending(id) }

// Loading reports whether a snapshot fetch is in flight.
func (s *session[E]) Loading() bool { return s.loading }

// Loaded reports whether at least one snapshot has been applied.
func (s *session[E]) Loaded() bool { return s.loaded }

// LastError returns the error of the most recent failed snapshot, cleared by
// the next successful one.
func (s *session[E]) LastError() error { return s.lastErr }

// Mounted reports whether the session still accepts results.
func (s *session[E]) Mounted() bool { return s.mounted }

// Load fetches the initial snapshot and arms the periodic refresh.
func (s *session[E]) Load() {
	s.fetch(true)
	s.armRefresh()
}

// Refresh fetches a snapshot on user request.
func (s *session[E]) Refresh() { s.fetch(true) }

// Attach subscribes the session to src until Detach or Unmount. Events are
// handed to the loop one at a time in arrival order.
func (s *session[E]) Attach(src EventSource) {
	if !s.mounted {
		return
	}
	if s.cancelStream != nil {
		s.cancelStream()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelStream = cancel

	stream := src.Events(ctx)
	go func() {
		for ev := range stream {
			posted := s.deps.Runner.Post(func() { s.handlePush(ev) })
			if !posted {
				cancel()
				return
			}
		}
	}()
}

// Detach ends the push subscription and keeps the store. Events published
// while detached are missed; Refresh catches up after the next Attach.
func (s *session[E]) Detach() {
	if s.cancelStream != nil {
		s.cancelStream()
		s.cancelStream = nil
	}
}

// Attached reports whether a push subscription is open.
func (s *session[E]) Attached() bool { return s.cancelStream != nil }

func (s *session[E]) handlePush(ev event.Event) {
	if !s.mounted {
		return
	}
	res := s.resolver.Handle(ev)
	s.log.Debug().
		Str("kind", string(ev.Kind())).
		Strs("ids", event.Targets(ev)).
		Bool("changed", res.Changed).
		Msg("push event")
	if res.Changed {
		s.changed()
	}
}

// Unmount tears the session down. The push subscription is cancelled,
// pending timers are dropped and late results are discarded.
func (s *session[E]) Unmount() {
	if !s.mounted {
		return
	}
	s.mounted = false
	if s.cancelStream != nil {
		s.cancelStream()
	}
	if s.cancelTimer != nil {
		s.cancelTimer()
	}
	s.overlay.Clear()
	s.deps.Retry.ResetAll()
}

func (s *session[E]) armRefresh() {
	every := s.deps.refreshInterval()
	if every == 0 || !s.mounted {
		return
	}
	s.cancelTimer = s.deps.Runner.After(every, func() {
		if !s.mounted {
			return
		}
		s.fetch(false)
		s.armRefresh()
	})
}

// fetch loads a snapshot. Failures never clear the store; user-initiated
// fetches also raise a notice. A user request that arrives while a periodic
// fetch is in flight takes over that fetch.
func (s *session[E]) fetch(userInitiated bool) {
	if !s.mounted {
		return
	}
	if s.loading {
		s.manual = s.manual || userInitiated
		return
	}
	s.loading = true
	s.manual = userInitiated
	s.changed()

	s.deps.Runner.Async(func(ctx context.Context) func() {
		items, err := s.list(ctx)
		return func() {
			if !s.mounted {
				return
			}
			s.loading = false
			manual := s.manual
			s.manual = false
			if err != nil {
				s.lastErr = err
				s.log.Warn().Err(err).Bool("manual", manual).Msg("snapshot failed")
				if manual {
					s.deps.Notices.Warnf("Refresh failed: %v", err)
				}
				s.changed()
				return
			}
			s.lastErr = nil
			s.loaded = true
			s.resolver.Handle(event.Snapshot[E]{Items: items})
			s.changed()
		}
	})
}

// mutation is one REST call backing one or more overlay edits.
type mutation struct {
	name  string
	edits []string
	call  func(ctx context.Context) ([]event.Event, error)
}

func (m mutation) resource() string { return "mutation:" + m.edits[0] }

// mutate renders the applied edits at once and sends the call off the loop.
func (s *session[E]) mutate(m mutation) {
	if len(m.edits) == 0 {
		return
	}
	s.changed()
	s.send(m)
}

func (s *session[E]) send(m mutation) {
	s.deps.Retry.RecordAttempt(m.resource())
	s.deps.Runner.Async(func(ctx context.Context) func() {
		events, err := m.call(ctx)
		return func() {
			if !s.mounted {
				return
			}
			if err != nil {
				s.failed(m, err)
				return
			}
			s.deps.Retry.Reset(m.resource())

			changed := false
			for _, ev := range events {
				res := s.resolver.Handle(ev)
				if res.Stale {
					s.log.Debug().Str("mutation", m.name).Msg("ignored superseded response")
				}
				changed = changed || res.Changed
			}
			if changed {
				s.changed()
			}
		}
	})
}

func (s *session[E]) live(m mutation) bool {
	for _, id := range m.edits {
		if s.overlay.IsCurrent(id) {
			return true
		}
	}
	return false
}

func (s *session[E]) failed(m mutation, err error) {
	res := m.resource()
	if !s.live(m) {
		s.deps.Retry.Reset(res)
		s.log.Debug().Err(err).Str("mutation", m.name).Msg("ignored failure of superseded edit")
		return
	}

	class := retry.Classify(err)
	if s.deps.Retry.ShouldRetry(res, class) {
		s.log.Debug().Err(err).
			Str("mutation", m.name).
			Int("attempt", s.deps.Retry.Attempts(res)).
			Msg("retrying mutation")
		s.deps.Runner.After(s.deps.Retry.Delay(), func() {
			if s.mounted && s.live(m) {
				s.send(m)
			}
		})
		return
	}
	s.deps.Retry.Reset(res)

	reverted := 0
	for _, id := range m.edits {
		if s.resolver.Handle(event.Rejected{EditID: id, Err: err}).Changed {
			reverted++
		}
	}
	if reverted == 0 {
		return
	}
	s.log.Error().Err(err).Str("mutation", m.name).Str("class", class.String()).Msg("mutation rolled back")
	s.deps.Notices.Errorf("Could not %s: %v", m.name, err)
	s.changed()
}

// Package tui implements the Bubble Tea terminal client: a notifications
// screen and a reels screen rendered over the sync engine.
//
// The Bubble Tea update goroutine is the engine's event loop. Work posted
// from other goroutines is queued on a loop.Loop and drained inside Update.
package tui

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/feedsync/internal/core/config"
	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/core/logging"
	"github.com/colonyops/feedsync/internal/core/notice"
	"github.com/colonyops/feedsync/internal/core/retry"
	"github.com/colonyops/feedsync/internal/core/styles"
	"github.com/colonyops/feedsync/internal/loop"
	"github.com/colonyops/feedsync/internal/playback"
	"github.com/colonyops/feedsync/internal/push"
	"github.com/colonyops/feedsync/internal/reconcile"
)

const (
	heartTickInterval = 80 * time.Millisecond
	mediaLatency      = 400 * time.Millisecond
	reelExtent        = 12.0 // rows per reel when converting scroll to focus
)

type screen int

const (
	screenNotifications screen = iota
	screenReels
)

// ConnectionState is implemented by the push channel.
type ConnectionState interface {
	State() push.State
	OnState(fn func(push.State))
}

// Options configures the TUI.
type Options struct {
	Config        *config.Config
	Notifications reconcile.NotificationBackend
	Reels         reconcile.ReelBackend

	// Push is the notification event source; nil runs on refresh alone.
	Push       reconcile.EventSource
	Connection ConnectionState

	// Reloads delivers config file changes.
	Reloads <-chan config.Reload

	// Runner overrides the event loop, for tests.
	Runner loop.Runner
}

type (
	drainMsg  struct{}
	heartTick struct{}
	reloadMsg config.Reload
)

// Model is the main Bubble Tea model.
type Model struct {
	cfg    *config.Config
	log    zerolog.Logger
	runner loop.Runner
	pump   *loop.Loop
	woke   atomic.Bool

	notifications *reconcile.NotificationSession
	reels         *reconcile.ReelSession
	scheduler     *playback.Scheduler
	player        *SimPlayer
	bus           *notice.Bus
	source        reconcile.EventSource
	connection    ConnectionState
	conn          push.State
	reloads       <-chan config.Reload

	toasts    *ToastController
	toastView *ToastView
	keys      keyMap
	help      help.Model

	screen        screen
	cursor        int
	selected      map[string]bool
	width, height int
	heartsTicking bool
	started       bool
}

// New wires the engine for one mounted TUI.
func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		d := config.DefaultConfig()
		cfg = &d
	}

	m := &Model{
		cfg:        cfg,
		log:        logging.Component("tui"),
		runner:     opts.Runner,
		source:     opts.Push,
		connection: opts.Connection,
		reloads:    opts.Reloads,
		bus:        notice.NewBus(notice.NewHistory(0)),
		toasts:     NewToastController(),
		keys:       defaultKeys(),
		help:       help.New(),
		selected:   make(map[string]bool),
	}
	if m.runner == nil {
		m.pump = loop.New(cfg.API.Timeout)
		m.runner = m.pump
	}
	m.toastView = NewToastView(m.toasts)
	m.bus.Subscribe(m.toasts.Push)

	screenID := uuid.NewString()
	deps := func(name string, rm *retry.Manager) reconcile.Deps {
		return reconcile.Deps{
			Runner:          m.runner,
			Retry:           rm,
			Notices:         m.bus,
			Logger:          logging.Screen(name, screenID),
			UserID:          cfg.UserID,
			RefreshInterval: cfg.Sync.RefreshInterval,
		}
	}

	m.notifications = reconcile.NewNotificationSession(
		deps("notifications", retry.NewManager(cfg.Retry.MaxAttempts, cfg.Retry.Delay)),
		opts.Notifications,
	)

	// reel mutations and media loads share one retry budget
	reelRetry := retry.NewManager(cfg.Retry.MaxAttempts, cfg.Retry.Delay)
	m.reels = reconcile.NewReelSession(deps("reels", reelRetry), opts.Reels)

	m.player = NewSimPlayer(m.runner, mediaLatency)
	m.scheduler = playback.NewScheduler(m.runner, reelRetry, m.player,
		playback.Config{
			Window:          cfg.Playback.Window,
			DoubleTapWindow: cfg.Playback.DoubleTapWindow,
			Muted:           cfg.Playback.Muted,
			Rate:            cfg.Playback.Rate,
		},
		func(id string) {
			if err := m.reels.Like(id); err != nil {
				m.log.Debug().Err(err).Str("id", id).Msg("double tap like ignored")
			}
		},
		logging.Screen("playback", screenID),
	)
	m.player.Bind(m.scheduler)
	m.scheduler.SetVisible(false)
	m.reels.OnChange(m.syncMedia)

	if opts.Connection != nil {
		m.conn = opts.Connection.State()
	}
	styles.ApplyTheme(cfg.TUI.Theme)
	return m
}

// Run starts the program and blocks until the user quits or ctx ends.
func (m *Model) Run(ctx context.Context) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if m.pump != nil {
		m.pump.OnWake(func() {
			if m.woke.CompareAndSwap(false, true) {
				go p.Send(drainMsg{})
			}
		})
	}
	_, err := p.Run()
	m.unmount()
	return err
}

// Init mounts the screens.
func (m *Model) Init() tea.Cmd {
	m.start()
	return tea.Batch(m.waitForReload(), m.afterLoop())
}

func (m *Model) start() {
	if m.started {
		return
	}
	m.started = true

	m.notifications.Load()
	m.reels.Load()
	if m.source != nil {
		m.notifications.Attach(m.source)
	}
	if m.connection != nil {
		m.connection.OnState(func(s push.State) {
			m.runner.Post(func() { m.conn = s })
		})
	}
}

func (m *Model) unmount() {
	m.scheduler.Unmount()
	m.notifications.Unmount()
	m.reels.Unmount()
	if m.pump != nil {
		m.pump.Unmount()
	}
}

// syncMedia feeds the reel order into the scheduler.
func (m *Model) syncMedia() {
	items := m.reels.Items()
	media := make([]playback.Media, len(items))
	for i, f := range items {
		media[i] = playback.Media{ID: f.ID, URL: f.MediaURL}
	}
	m.scheduler.Sync(media)
}

func (m *Model) waitForReload() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	ch := m.reloads
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return reloadMsg(r)
	}
}

func (m *Model) applyConfig(cfg *config.Config) {
	m.cfg.Playback = cfg.Playback
	m.cfg.TUI = cfg.TUI
	styles.ApplyTheme(cfg.TUI.Theme)
	m.scheduler.SetMuted(cfg.Playback.Muted)
	m.scheduler.SetRate(cfg.Playback.Rate)
	m.scheduler.SetDoubleTapWindow(cfg.Playback.DoubleTapWindow)
}

// afterLoop schedules the animation ticks that engine work may have armed.
func (m *Model) afterLoop() tea.Cmd {
	var cmds []tea.Cmd
	if m.toasts.HasToasts() && !m.toasts.Ticking() {
		m.toasts.SetTicking(true)
		cmds = append(cmds, scheduleToastTick())
	}
	if m.scheduler.Hearts().Active() && !m.heartsTicking {
		m.heartsTicking = true
		cmds = append(cmds, tea.Tick(heartTickInterval, func(time.Time) tea.Msg { return heartTick{} }))
	}
	return tea.Batch(cmds...)
}

func (m *Model) notificationItems() []entity.Notification { return m.notifications.Items() }

func (m *Model) currentNotification() (entity.Notification, bool) {
	items := m.notificationItems()
	if m.cursor < 0 || m.cursor >= len(items) {
		return entity.Notification{}, false
	}
	return items[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.notificationItems())
	m.cursor = max(0, min(m.cursor, n-1))
}

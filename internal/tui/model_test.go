package tui

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/feedsync/internal/core/config"
	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/core/event"
	"github.com/colonyops/feedsync/internal/loop"
	"github.com/colonyops/feedsync/internal/reconcile"
	"github.com/colonyops/feedsync/pkg/tuitest"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type memBackend struct {
	mu       sync.Mutex
	notes    []entity.Notification
	reels    []entity.FeedItem
	likeErr  error
	calls    []string
	userSeen string
}

func (b *memBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *memBackend) ListNotifications(_ context.Context, userID string) ([]entity.Notification, error) {
	b.userSeen = userID
	return slices.Clone(b.notes), nil
}

func (b *memBackend) MarkRead(_ context.Context, id string) (entity.Notification, error) {
	b.record("read:" + id)
	for i, n := range b.notes {
		if n.ID == id {
			b.notes[i].Read = true
			return b.notes[i], nil
		}
	}
	return entity.Notification{}, errors.New("not found")
}

func (b *memBackend) MarkReadMany(_ context.Context, ids []string) ([]entity.Notification, error) {
	var out []entity.Notification
	for _, id := range ids {
		n, err := b.MarkRead(context.Background(), id)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (b *memBackend) MarkAllRead(_ context.Context, _ string) ([]entity.Notification, error) {
	b.record("read-all")
	for i := range b.notes {
		b.notes[i].Read = true
	}
	return slices.Clone(b.notes), nil
}

func (b *memBackend) Delete(_ context.Context, id string) error {
	b.record("delete:" + id)
	b.notes = slices.DeleteFunc(b.notes, func(n entity.Notification) bool { return n.ID == id })
	return nil
}

func (b *memBackend) DeleteMany(_ context.Context, ids []string) error {
	for _, id := range ids {
		_ = b.Delete(context.Background(), id)
	}
	return nil
}

func (b *memBackend) ListReels(_ context.Context, _ string) ([]entity.FeedItem, error) {
	return slices.Clone(b.reels), nil
}

func (b *memBackend) Like(_ context.Context, reelID, userID string) (entity.LikeState, error) {
	b.record("like:" + reelID)
	if b.likeErr != nil {
		return entity.LikeState{}, b.likeErr
	}
	for i, r := range b.reels {
		if r.ID == reelID {
			b.reels[i] = r.WithLike(userID)
			return entity.LikeState{LikedBy: b.reels[i].LikedBy, LikeCount: b.reels[i].LikeCount}, nil
		}
	}
	return entity.LikeState{}, errors.New("not found")
}

func (b *memBackend) Unlike(_ context.Context, reelID, userID string) (entity.LikeState, error) {
	b.record("unlike:" + reelID)
	for i, r := range b.reels {
		if r.ID == reelID {
			b.reels[i] = r.WithoutLike(userID)
			return entity.LikeState{LikedBy: b.reels[i].LikedBy, LikeCount: b.reels[i].LikeCount}, nil
		}
	}
	return entity.LikeState{}, errors.New("not found")
}

type testModel struct {
	*Model
	runner  *loop.Manual
	backend *memBackend
}

func newTestModel(t *testing.T, backend *memBackend) *testModel {
	t.Helper()
	return newTestModelWithPush(t, backend, nil)
}

func newTestModelWithPush(t *testing.T, backend *memBackend, push reconcile.EventSource) *testModel {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.UserID = "9"
	cfg.Sync.RefreshInterval = -1

	runner := loop.NewManual(t0)
	m := New(Options{
		Config:        &cfg,
		Notifications: backend,
		Reels:         backend,
		Runner:        runner,
		Push:          push,
	})
	m.Init()
	m.Update(tuitest.WindowSize(100, 40))
	t.Cleanup(m.unmount)
	return &testModel{Model: m, runner: runner, backend: backend}
}

func (tm *testModel) press(msgs ...any) {
	for _, msg := range msgs {
		switch v := msg.(type) {
		case rune:
			tm.Update(tuitest.KeyPress(v))
		default:
			tm.Update(v)
		}
	}
}

func (tm *testModel) view() string { return tuitest.StripANSI(tm.View()) }

func sampleBackend() *memBackend {
	return &memBackend{
		notes: []entity.Notification{
			{ID: "3", Message: "New follower", CreatedAt: t0.Add(-2 * time.Minute)},
			{ID: "2", Message: "Your reel got 10 likes", CreatedAt: t0.Add(-3 * time.Hour)},
			{ID: "1", Message: "Welcome", Read: true, CreatedAt: t0.Add(-48 * time.Hour)},
		},
		reels: []entity.FeedItem{
			{ID: "r1", AuthorID: "ana", Caption: "sunset", MediaURL: "https://cdn.example.com/v/1.mp4"},
			{ID: "r2", MediaURL: "https://cdn.example.com/v/flaky.mp4"},
			{ID: "r3", MediaURL: "https://cdn.example.com/img/3.png"},
		},
	}
}

func TestModel_NotificationsScreen(t *testing.T) {
	tm := newTestModel(t, sampleBackend())

	out := tm.view()
	assert.Contains(t, out, "Notifications (2)")
	assert.Contains(t, out, "New follower")
	assert.Contains(t, out, "2m")
	assert.Contains(t, out, "3h")
	assert.Contains(t, out, "2d")
	assert.Contains(t, out, "push off")
	assert.Equal(t, "9", tm.backend.userSeen)
}

func TestModel_MarkRead_and_all(t *testing.T) {
	tm := newTestModel(t, sampleBackend())

	tm.press(tuitest.KeyEnter())
	assert.Equal(t, 1, tm.notifications.UnreadCount())
	assert.Equal(t, []string{"read:3"}, tm.backend.calls)

	tm.press('a')
	assert.Equal(t, 0, tm.notifications.UnreadCount())
	assert.NotContains(t, tm.view(), "Notifications (")
}

func TestModel_SelectAndDelete(t *testing.T) {
	tm := newTestModel(t, sampleBackend())

	tm.press('x', 'j', 'x', 'd')

	assert.Equal(t, []string{"delete:3", "delete:2"}, tm.backend.calls)
	require.Len(t, tm.notifications.Items(), 1)
	assert.Equal(t, "1", tm.notifications.Items()[0].ID)
	assert.Equal(t, 0, tm.cursor, "cursor clamped to the remaining list")
}

func TestModel_ReelsPlayOnlyWhenVisible(t *testing.T) {
	tm := newTestModel(t, sampleBackend())

	tm.runner.Advance(mediaLatency)
	assert.Zero(t, tm.player.PlayingCount(), "hidden screen never plays")

	tm.press(tuitest.KeyTab())
	assert.Equal(t, 1, tm.player.PlayingCount())
	assert.Contains(t, tm.view(), "playing")
	assert.Contains(t, tm.view(), "@ana")

	tm.press(tuitest.KeyTab())
	assert.Zero(t, tm.player.PlayingCount())
}

func TestModel_ScrollKeepsSingleActive(t *testing.T) {
	tm := newTestModel(t, sampleBackend())
	tm.press(tuitest.KeyTab())
	tm.runner.Advance(mediaLatency)

	tm.press('j')
	assert.Equal(t, 1, tm.scheduler.Focused())
	assert.Zero(t, tm.player.PlayingCount(), "flaky media times out first")

	tm.runner.Advance(mediaLatency)
	tm.runner.Advance(tm.cfg.Retry.Delay + mediaLatency)
	tm.runner.Advance(tm.cfg.Retry.Delay + mediaLatency)
	assert.Equal(t, 1, tm.player.PlayingCount())
	idx, ok := tm.scheduler.Playing()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestModel_UnsupportedMediaOffersRetry(t *testing.T) {
	tm := newTestModel(t, sampleBackend())
	tm.press(tuitest.KeyTab(), 'j', 'j')
	tm.runner.Advance(mediaLatency)

	assert.Contains(t, tm.view(), "Press R to retry")
	tm.press('R')
	assert.Contains(t, tm.view(), "loading")
}

func TestModel_DoubleTapLikes(t *testing.T) {
	tm := newTestModel(t, sampleBackend())
	tm.press(tuitest.KeyTab())
	tm.runner.Advance(mediaLatency)

	tm.press(tuitest.KeySpace())
	tm.runner.Advance(100 * time.Millisecond)
	tm.press(tuitest.KeySpace())
	tm.runner.Advance(time.Second)

	assert.Equal(t, []string{"like:r1"}, tm.backend.calls)
	assert.True(t, tm.reels.Liked("r1"))
	assert.Equal(t, 1, tm.player.PlayingCount(), "double tap does not pause")
	assert.True(t, tm.heartsTicking)
}

func TestModel_LikeFailureShowsToast(t *testing.T) {
	backend := sampleBackend()
	backend.likeErr = errors.New("forbidden")
	tm := newTestModel(t, backend)
	tm.press(tuitest.KeyTab(), 'l')

	assert.False(t, tm.reels.Liked("r1"))
	require.True(t, tm.toasts.HasToasts())
	assert.Contains(t, tm.view(), "Could not like reel: forbidden")
	assert.True(t, tm.toasts.Ticking())
}

func TestModel_MuteRateAndReload(t *testing.T) {
	tm := newTestModel(t, sampleBackend())
	tm.press(tuitest.KeyTab())

	tm.press('m', '+')
	assert.True(t, tm.scheduler.Muted())
	assert.InDelta(t, 1.25, tm.scheduler.Rate(), 0.001)

	cfg := config.DefaultConfig()
	cfg.Playback.Rate = 2
	cfg.TUI.Theme = "gruvbox"
	tm.Update(reloadMsg(config.Reload{Config: &cfg}))

	assert.False(t, tm.scheduler.Muted())
	assert.InDelta(t, 2.0, tm.scheduler.Rate(), 0.001)
	assert.Equal(t, "gruvbox", tm.cfg.TUI.Theme)
	t.Cleanup(func() {
		reset := config.DefaultConfig()
		tm.Update(reloadMsg(config.Reload{Config: &reset}))
	})
}

func TestStepRate(t *testing.T) {
	assert.InDelta(t, 1.25, stepRate(1, 1), 0.001)
	assert.InDelta(t, 0.5, stepRate(0.5, -1), 0.001)
	assert.InDelta(t, 2.0, stepRate(2, 1), 0.001)
	assert.InDelta(t, 1.25, stepRate(1.1, 1), 0.001, "unknown rates restart from 1x")
}

// subscriptions records every Events call so tests can see which
// subscriptions are still open.
type subscriptions struct {
	mu   sync.Mutex
	ctxs []context.Context
}

func (s *subscriptions) Events(ctx context.Context) <-chan event.Event {
	s.mu.Lock()
	s.ctxs = append(s.ctxs, ctx)
	s.mu.Unlock()

	ch := make(chan event.Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

func (s *subscriptions) all() []context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ctxs)
}

func TestModel_PushFollowsNotificationsFocus(t *testing.T) {
	subs := &subscriptions{}
	tm := newTestModelWithPush(t, sampleBackend(), subs)

	require.Len(t, subs.all(), 1)
	first := subs.all()[0]
	assert.NoError(t, first.Err())
	assert.True(t, tm.notifications.Attached())

	tm.press(tuitest.KeyTab())
	assert.ErrorIs(t, first.Err(), context.Canceled, "reels focus closes the subscription")
	assert.False(t, tm.notifications.Attached())
	assert.Equal(t, 2, tm.notifications.UnreadCount(), "store survives detach")

	tm.backend.notes[1].Read = true
	tm.press(tuitest.KeyTab())

	ctxs := subs.all()
	require.Len(t, ctxs, 2)
	assert.NoError(t, ctxs[1].Err())
	assert.True(t, tm.notifications.Attached())
	assert.Equal(t, 1, tm.notifications.UnreadCount(), "refresh catches up on return")
}

// notifyingBackend is a memBackend that can also create notifications.
type notifyingBackend struct {
	*memBackend
}

func (b notifyingBackend) Notify(_ context.Context, userID, message, clientRef string) (entity.Notification, error) {
	b.record("notify")
	n := entity.Notification{ID: "10", UserID: userID, Message: message, ClientRef: clientRef, CreatedAt: t0}
	b.notes = append([]entity.Notification{n}, b.notes...)
	return n, nil
}

func TestModel_SendTestNotification(t *testing.T) {
	backend := sampleBackend()
	cfg := config.DefaultConfig()
	cfg.UserID = "9"
	cfg.Sync.RefreshInterval = -1
	m := New(Options{
		Config:        &cfg,
		Notifications: notifyingBackend{backend},
		Reels:         backend,
		Runner:        loop.NewManual(t0),
	})
	m.Init()
	m.Update(tuitest.WindowSize(100, 40))
	t.Cleanup(m.unmount)

	m.Update(tuitest.KeyPress('n'))

	assert.Equal(t, []string{"notify"}, backend.calls)
	items := m.notifications.Items()
	require.Len(t, items, 4)
	assert.Equal(t, "10", items[0].ID)
	assert.Equal(t, testMessage, items[0].Message)
	assert.Equal(t, 3, m.notifications.UnreadCount())
}

func TestModel_SendTestNotification_unsupported(t *testing.T) {
	tm := newTestModel(t, sampleBackend())

	tm.press('n')

	assert.Len(t, tm.notifications.Items(), 3)
	require.True(t, tm.toasts.HasToasts())
	assert.Contains(t, tm.view(), "backend cannot create notifications")
}

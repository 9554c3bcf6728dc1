package overlay

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/core/store"
)

const viewer = "9"

func likeProjector(base entity.FeedItem, k Kind) entity.FeedItem {
	switch k {
	case KindLike:
		return base.WithLike(viewer)
	case KindUnlike:
		return base.WithoutLike(viewer)
	}
	return base
}

func newFeedOverlay(items ...entity.FeedItem) (*Overlay[entity.FeedItem], *store.Store[entity.FeedItem]) {
	s := store.New[entity.FeedItem]()
	s.Reset(items)
	n := 0
	o := New(s, likeProjector,
		WithIDs[entity.FeedItem](func() string { n++; return fmt.Sprintf("edit-%d", n) }),
		WithClock[entity.FeedItem](func() time.Time { return time.Unix(100, 0) }),
	)
	return o, s
}

func reel(id string, likedBy ...string) entity.FeedItem {
	return entity.FeedItem{ID: id, LikedBy: likedBy, LikeCount: len(likedBy)}
}

func TestOverlay_Apply_projects_without_touching_store(t *testing.T) {
	o, s := newFeedOverlay(reel("7", "1"))

	edit, projected, err := o.Apply("7", KindLike)
	require.NoError(t, err)

	assert.Equal(t, 2, projected.LikeCount)
	assert.True(t, projected.LikedByUser(viewer))
	assert.Equal(t, uint64(1), edit.Seq)
	assert.Equal(t, time.Unix(100, 0), edit.AppliedAt)

	stored, _ := s.Get("7")
	assert.Equal(t, 1, stored.LikeCount, "store is untouched until confirmation")

	view := o.View()
	require.Len(t, view, 1)
	assert.Equal(t, 2, view[0].LikeCount)
}

func TestOverlay_Apply_unknown_entity(t *testing.T) {
	o, _ := newFeedOverlay()

	_, _, err := o.Apply("missing", KindLike)

	assert.ErrorIs(t, err, ErrUnknownEntity)
	assert.Equal(t, 0, o.Len())
}

func TestOverlay_Confirm_adopts_server_verbatim(t *testing.T) {
	o, s := newFeedOverlay(reel("7"))

	edit, _, err := o.Apply("7", KindLike)
	require.NoError(t, err)

	server := entity.FeedItem{ID: "7", LikedBy: []string{"3", viewer}, LikeCount: 41}
	assert.Equal(t, OutcomeApplied, o.Confirm(edit.ID, server))

	stored, _ := s.Get("7")
	assert.Equal(t, server, stored, "server state wins even though it disagrees with the projection")
	assert.Equal(t, 0, o.Len())
	assert.Equal(t, []entity.FeedItem{server}, o.View())
}

func TestOverlay_Reject_reverts_projection(t *testing.T) {
	o, s := newFeedOverlay(reel("7"))
	before, _ := s.Get("7")

	edit, projected, err := o.Apply("7", KindLike)
	require.NoError(t, err)
	require.Equal(t, 1, projected.LikeCount)

	baseline, outcome := o.Reject(edit.ID)

	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, before, baseline)
	assert.Equal(t, []entity.FeedItem{before}, o.View())
	assert.False(t, o.Pending("7"))
}

func TestOverlay_Supersede_keeps_original_baseline(t *testing.T) {
	o, _ := newFeedOverlay(reel("7", "1"))

	like, _, err := o.Apply("7", KindLike)
	require.NoError(t, err)
	unlike, projected, err := o.Apply("7", KindUnlike)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), unlike.Seq)
	assert.Equal(t, like.Baseline, unlike.Baseline)
	assert.Equal(t, reel("7", "1"), unlike.Baseline)
	assert.False(t, projected.LikedByUser(viewer))
	assert.Equal(t, 1, o.Len(), "one outstanding edit per kind-class")

	kind, ok := o.PendingKind("7", ClassLike)
	require.True(t, ok)
	assert.Equal(t, KindUnlike, kind)
}

// Like then Unlike before either resolves; responses arrive in order. The
// stale Like response must not override the Unlike's server state.
func TestOverlay_Supersede_stale_response_ignored(t *testing.T) {
	o, s := newFeedOverlay(reel("7"))

	like, _, _ := o.Apply("7", KindLike)
	unlike, _, _ := o.Apply("7", KindUnlike)

	likeServer := entity.FeedItem{ID: "7", LikedBy: []string{viewer}, LikeCount: 1}
	unlikeServer := entity.FeedItem{ID: "7", LikedBy: []string{}, LikeCount: 0}

	assert.Equal(t, OutcomeStale, o.Confirm(like.ID, likeServer))
	stored, _ := s.Get("7")
	assert.Equal(t, reel("7"), stored)

	assert.Equal(t, OutcomeApplied, o.Confirm(unlike.ID, unlikeServer))
	stored, _ = s.Get("7")
	assert.Equal(t, unlikeServer, stored)
}

func TestOverlay_Supersede_reverse_arrival(t *testing.T) {
	o, s := newFeedOverlay(reel("7"))

	like, _, _ := o.Apply("7", KindLike)
	unlike, _, _ := o.Apply("7", KindUnlike)

	unlikeServer := entity.FeedItem{ID: "7", LikedBy: []string{}, LikeCount: 0}
	assert.Equal(t, OutcomeApplied, o.Confirm(unlike.ID, unlikeServer))
	assert.Equal(t, OutcomeStale, o.Confirm(like.ID, reel("7", viewer)))

	stored, _ := s.Get("7")
	assert.Equal(t, unlikeServer, stored)
}

func TestOverlay_Reject_of_superseded_edit_is_stale(t *testing.T) {
	o, _ := newFeedOverlay(reel("7"))

	like, _, _ := o.Apply("7", KindLike)
	_, _, _ = o.Apply("7", KindUnlike)

	_, outcome := o.Reject(like.ID)

	assert.Equal(t, OutcomeStale, outcome)
	assert.True(t, o.Pending("7"), "the newer edit survives")
	assert.False(t, o.IsCurrent(like.ID))
}

func TestOverlay_Confirm_twice_is_stale(t *testing.T) {
	o, _ := newFeedOverlay(reel("7"))
	like, _, _ := o.Apply("7", KindLike)

	assert.Equal(t, OutcomeApplied, o.Confirm(like.ID, reel("7", viewer)))
	assert.Equal(t, OutcomeStale, o.Confirm(like.ID, reel("7")))
}

func TestOverlay_Discard_makes_responses_stale(t *testing.T) {
	o, s := newFeedOverlay(reel("7"))
	like, _, _ := o.Apply("7", KindLike)

	s.Remove("7")
	assert.Equal(t, 1, o.Discard("7"))

	assert.Equal(t, OutcomeStale, o.Confirm(like.ID, reel("7", viewer)))
	assert.False(t, s.Has("7"), "a stale confirmation must not resurrect the entity")
}

func TestOverlay_Delete_hides_until_confirmed(t *testing.T) {
	o, s := newFeedOverlay(reel("1"), reel("2"))

	del, _, err := o.Apply("1", KindDelete)
	require.NoError(t, err)

	assert.Len(t, o.View(), 1)
	_, visible := o.Get("1")
	assert.False(t, visible)
	assert.True(t, s.Has("1"))

	assert.Equal(t, OutcomeApplied, o.Confirm(del.ID, entity.FeedItem{}))
	assert.False(t, s.Has("1"))
}

func TestOverlay_Delete_reject_restores_visibility(t *testing.T) {
	o, _ := newFeedOverlay(reel("1"), reel("2"))
	del, _, _ := o.Apply("1", KindDelete)

	_, outcome := o.Reject(del.ID)

	assert.Equal(t, OutcomeApplied, outcome)
	assert.Len(t, o.View(), 2)
}

func TestOverlay_Stage(t *testing.T) {
	o, s := newFeedOverlay(reel("1"))

	edit := o.Stage(entity.FeedItem{ID: "tmp-1", Caption: "uploading"})
	view := o.View()
	require.Len(t, view, 2)
	assert.Equal(t, "tmp-1", view[0].ID)

	t.Run("resolved by push arrival", func(t *testing.T) {
		assert.True(t, o.ResolveStaged("tmp-1"))
		assert.Len(t, o.View(), 1)
		assert.Equal(t, OutcomeStale, o.Confirm(edit.ID, reel("srv-1")))
		assert.False(t, s.Has("srv-1"))
	})
}

func TestOverlay_Stage_confirm_inserts_at_head(t *testing.T) {
	o, s := newFeedOverlay(reel("1"))
	edit := o.Stage(entity.FeedItem{ID: "tmp-1"})

	assert.Equal(t, OutcomeApplied, o.Confirm(edit.ID, reel("srv-1")))

	assert.Equal(t, []string{"srv-1", "1"}, s.Keys())
	assert.Len(t, o.View(), 2)
}

func TestOverlay_Read_and_like_stack(t *testing.T) {
	s := store.New[entity.Notification]()
	s.Reset([]entity.Notification{{ID: "42"}})
	o := New(s, func(n entity.Notification, k Kind) entity.Notification {
		if k == KindMarkRead {
			return n.WithRead(true)
		}
		return n
	})

	_, projected, err := o.Apply("42", KindMarkRead)
	require.NoError(t, err)
	assert.True(t, projected.Read)

	got, ok := o.Get("42")
	require.True(t, ok)
	assert.True(t, got.Read)
}

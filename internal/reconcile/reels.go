package reconcile

import (
	"context"

	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/core/event"
	"github.com/colonyops/feedsync/internal/core/overlay"
)

// ReelBackend is the REST surface the reels screen uses.
type ReelBackend interface {
	ListReels(ctx context.Context, userID string) ([]entity.FeedItem, error)
	Like(ctx context.Context, reelID, userID string) (entity.LikeState, error)
	Unlike(ctx context.Context, reelID, userID string) (entity.LikeState, error)
}

// ReelSession owns the reel feed of one mounted screen. All methods must be
// called on the session's runner.
type ReelSession struct {
	*session[entity.FeedItem]
	api ReelBackend
}

// NewReelSession creates a mounted session.
func NewReelSession(deps Deps, api ReelBackend) *ReelSession {
	userID := deps.UserID
	rs := &ReelSession{api: api}
	rs.session = newSession(deps, false,
		func(f entity.FeedItem, k overlay.Kind) entity.FeedItem {
			switch k {
			case overlay.KindLike:
				return f.WithLike(userID)
			case overlay.KindUnlike:
				return f.WithoutLike(userID)
			}
			return f
		},
		func(ctx context.Context) ([]entity.FeedItem, error) {
			return api.ListReels(ctx, userID)
		})
	return rs
}

// Liked reports whether the viewer likes id as rendered.
func (rs *ReelSession) Liked(id string) bool {
	f, ok := rs.Get(id)
	return ok && f.LikedByUser(rs.deps.UserID)
}

// PendingLike reports whether a like or unlike of id is in flight, and
// which: liking is false for an unlike.
func (rs *ReelSession) PendingLike(id string) (liking, ok bool) {
	k, ok := rs.overlay.PendingKind(id, overlay.ClassLike)
	return k == overlay.KindLike, ok
}

// Like likes id. The like is sent even when the reel already renders as
// liked.
func (rs *ReelSession) Like(id string) error {
	return rs.setLike(id, overlay.KindLike)
}

// Unlike removes the viewer's like from id.
func (rs *ReelSession) Unlike(id string) error {
	return rs.setLike(id, overlay.KindUnlike)
}

// ToggleLike flips the rendered like state of id.
func (rs *ReelSession) ToggleLike(id string) error {
	if rs.Liked(id) {
		return rs.Unlike(id)
	}
	return rs.Like(id)
}

func (rs *ReelSession) setLike(id string, kind overlay.Kind) error {
	edit, _, err := rs.overlay.Apply(id, kind)
	if err != nil {
		return err
	}

	call := rs.api.Like
	if kind == overlay.KindUnlike {
		call = rs.api.Unlike
	}
	userID := rs.deps.UserID

	rs.mutate(mutation{
		name:  kind.String() + " reel",
		edits: []string{edit.ID},
		call: func(ctx context.Context) ([]event.Event, error) {
			ls, err := call(ctx, id, userID)
			if err != nil {
				return nil, err
			}
			return []event.Event{event.LikeUpdate{
				EditID: edit.ID,
				Item:   entity.FeedItem{ID: id, LikedBy: ls.LikedBy, LikeCount: ls.LikeCount},
			}}, nil
		},
	})
	return nil
}

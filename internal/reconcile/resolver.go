// Package reconcile merges push events and REST results into a screen's
// entity store and optimistic overlay.
package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/core/event"
	"github.com/colonyops/feedsync/internal/core/overlay"
	"github.com/colonyops/feedsync/internal/core/store"
)

// readable is satisfied by entities that carry a read flag.
type readable[E any] interface {
	IsRead() bool
	WithRead(read bool) E
}

// referenced is satisfied by entities that can echo a client reference.
type referenced interface {
	Ref() string
}

// Result describes what one Handle call did.
type Result struct {
	// Changed is true when the rendered collection may differ.
	Changed bool
	// Stale is true when a mutation response was ignored under the
	// sequence rule.
	Stale bool
}

// Resolver applies events to a store and its overlay, strictly in the order
// Handle is called. It must be driven by a single consumer.
type Resolver[E entity.Entity] struct {
	store   *store.Store[E]
	overlay *overlay.Overlay[E]
	head    bool
	log     zerolog.Logger
}

// NewResolver creates a resolver. head selects newest-first insertion for
// new entities (notifications); otherwise new entities are appended in
// server order (feed items).
func NewResolver[E entity.Entity](s *store.Store[E], o *overlay.Overlay[E], head bool, log zerolog.Logger) *Resolver[E] {
	return &Resolver[E]{store: s, overlay: o, head: head, log: log}
}

// Handle applies ev. Unknown event types are logged and ignored.
func (r *Resolver[E]) Handle(ev event.Event) Result {
	switch e := ev.(type) {
	case event.Upsert[E]:
		return r.upsert(e)
	case event.ReadOne:
		return Result{Changed: r.markRead([]string{e.ID})}
	case event.ReadMany:
		return Result{Changed: r.markRead(e.IDs)}
	case event.ReadAll:
		return Result{Changed: r.markRead(r.store.Keys())}
	case event.DeleteOne:
		return Result{Changed: r.remove([]string{e.ID})}
	case event.DeleteMany:
		return Result{Changed: r.remove(e.IDs)}
	case event.LikeUpdate:
		return r.likeUpdate(e)
	case event.Confirmed[E]:
		return r.confirmed(e)
	case event.Rejected:
		_, outcome := r.overlay.Reject(e.EditID)
		return outcomeResult(outcome)
	case event.Snapshot[E]:
		r.snapshot(e.Items)
		return Result{Changed: true}
	default:
		r.log.Debug().Str("kind", string(ev.Kind())).Msg("ignoring event")
		return Result{}
	}
}

func (r *Resolver[E]) upsert(e event.Upsert[E]) Result {
	ref := e.ClientRef
	if ref == "" {
		if rr, ok := any(e.Entity).(referenced); ok {
			ref = rr.Ref()
		}
	}
	if ref != "" {
		r.overlay.ResolveStaged(ref)
	}

	if e.Head {
		r.store.UpsertHead(e.Entity)
	} else {
		r.store.Upsert(e.Entity)
	}
	return Result{Changed: true}
}

func (r *Resolver[E]) markRead(ids []string) bool {
	changed := false
	for _, id := range ids {
		r.store.Update(id, func(cur E) E {
			rd, ok := any(cur).(readable[E])
			if !ok || rd.IsRead() {
				return cur
			}
			changed = true
			return rd.WithRead(true)
		})
	}
	return changed
}

// remove deletes ids and discards their edits without rollback.
func (r *Resolver[E]) remove(ids []string) bool {
	for _, id := range ids {
		if n := r.overlay.Discard(id); n > 0 {
			r.log.Debug().Str("id", id).Int("edits", n).Msg("discarded edits of deleted entity")
		}
	}
	return r.store.RemoveMany(ids) > 0
}

func (r *Resolver[E]) likeUpdate(e event.LikeUpdate) Result {
	cur, ok := r.store.Get(e.Item.ID)
	if !ok {
		return Result{Stale: e.EditID != ""}
	}
	item, ok := any(cur).(entity.FeedItem)
	if !ok {
		return Result{}
	}
	server, _ := any(item.WithLikes(e.Item.LikedBy, e.Item.LikeCount)).(E)

	if e.EditID == "" {
		r.store.Update(e.Item.ID, func(E) E { return server })
		return Result{Changed: true}
	}
	return outcomeResult(r.overlay.Confirm(e.EditID, server))
}

func (r *Resolver[E]) confirmed(e event.Confirmed[E]) Result {
	if e.EditID != "" {
		return outcomeResult(r.overlay.Confirm(e.EditID, e.Entity))
	}
	if e.Deleted {
		return Result{Changed: r.remove([]string{e.Entity.Key()})}
	}
	return Result{Changed: r.store.Update(e.Entity.Key(), func(E) E { return e.Entity })}
}

// snapshot replaces the collection with items. Local entities missing from
// the snapshot survive only while they carry an outstanding edit; they keep
// their relative order after the snapshot items.
func (r *Resolver[E]) snapshot(items []E) {
	incoming := make(map[string]struct{}, len(items))
	for _, e := range items {
		incoming[e.Key()] = struct{}{}
		if rr, ok := any(e).(referenced); ok && rr.Ref() != "" {
			r.overlay.ResolveStaged(rr.Ref())
		}
	}

	next := make([]E, 0, len(items))
	next = append(next, items...)
	dropped := 0
	for _, local := range r.store.All() {
		if _, ok := incoming[local.Key()]; ok {
			continue
		}
		if r.overlay.Pending(local.Key()) {
			next = append(next, local)
			continue
		}
		dropped++
	}

	r.store.Reset(next)
	r.log.Debug().Int("items", len(items)).Int("dropped", dropped).Msg("applied snapshot")
}

func outcomeResult(o overlay.Outcome) Result {
	if o == overlay.OutcomeApplied {
		return Result{Changed: true}
	}
	return Result{Stale: true}
}

// Package overlay layers speculative local edits over an entity store.
//
// The overlay never mutates the store while an edit is outstanding. Rendering
// goes through View, which projects pending edits onto store records. A
// confirmation makes the store adopt the server record verbatim; a rejection
// only drops the overlay entry, which reverts the projection.
//
// Every (entity, kind-class) pair carries a monotonically increasing sequence
// number. A second edit of the same class supersedes the first, and only the
// response for the latest sequence number may confirm or reject.
package overlay

import (
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/core/store"
)

// Projector computes how base renders with an edit of kind k applied.
type Projector[E entity.Entity] func(base E, k Kind) E

type slot struct {
	entityID string
	class    Class
}

type ticket struct {
	slot slot
	seq  uint64
}

// Overlay holds at most one outstanding edit per (entity, kind-class).
//
// Overlay is owned by the event loop and is not safe for concurrent use.
type Overlay[E entity.Entity] struct {
	store   *store.Store[E]
	project Projector[E]
	now     func() time.Time
	newID   func() string

	pending map[slot]*Edit[E]
	seq     map[slot]uint64
	tickets map[string]ticket

	// staged placeholders, newest first
	staged []E
}

// Option configures an Overlay.
type Option[E entity.Entity] func(*Overlay[E])

// WithClock sets the time source used for Edit.AppliedAt.
func WithClock[E entity.Entity](now func() time.Time) Option[E] {
	return func(o *Overlay[E]) { o.now = now }
}

// WithIDs sets the edit id generator.
func WithIDs[E entity.Entity](gen func() string) Option[E] {
	return func(o *Overlay[E]) { o.newID = gen }
}

// New creates an overlay over s.
func New[E entity.Entity](s *store.Store[E], project Projector[E], opts ...Option[E]) *Overlay[E] {
	o := &Overlay[E]{
		store:   s,
		project: project,
		now:     time.Now,
		newID:   uuid.NewString,
		pending: make(map[slot]*Edit[E]),
		seq:     make(map[slot]uint64),
		tickets: make(map[string]ticket),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Apply records an edit of kind on entityID and returns it together with the
// entity as it should render now. The store is not touched.
func (o *Overlay[E]) Apply(entityID string, kind Kind) (Edit[E], E, error) {
	base, ok := o.store.Get(entityID)
	if !ok {
		var zero E
		return Edit[E]{}, zero, ErrUnknownEntity
	}

	sl := slot{entityID: entityID, class: kind.Class()}
	baseline := base
	if prev, ok := o.pending[sl]; ok {
		baseline = prev.Baseline
	}

	o.seq[sl]++
	edit := &Edit[E]{
		ID:        o.newID(),
		EntityID:  entityID,
		Kind:      kind,
		Seq:       o.seq[sl],
		AppliedAt: o.now(),
		Baseline:  baseline,
	}
	o.pending[sl] = edit
	o.tickets[edit.ID] = ticket{slot: sl, seq: edit.Seq}

	return *edit, o.Project(base), nil
}

// Stage records an optimistic insert of placeholder, keyed by its id (the
// client reference). The placeholder renders at the head of View until the
// server entity arrives or the edit is rejected.
func (o *Overlay[E]) Stage(placeholder E) Edit[E] {
	sl := slot{entityID: placeholder.Key(), class: ClassCreate}
	o.seq[sl]++
	edit := &Edit[E]{
		ID:        o.newID(),
		EntityID:  placeholder.Key(),
		Kind:      KindCreate,
		Seq:       o.seq[sl],
		AppliedAt: o.now(),
		Baseline:  placeholder,
	}
	o.pending[sl] = edit
	o.tickets[edit.ID] = ticket{slot: sl, seq: edit.Seq}
	o.removeStaged(placeholder.Key())
	o.staged = append([]E{placeholder}, o.staged...)
	return *edit
}

// Confirm applies a server response for editID. When the edit is still the
// latest for its slot the store adopts server verbatim (a confirmed delete
// removes the entity) and the edit is dropped. Otherwise the response is
// ignored.
func (o *Overlay[E]) Confirm(editID string, server E) Outcome {
	edit, ok := o.take(editID)
	if !ok {
		return OutcomeStale
	}

	switch edit.Kind.Class() {
	case ClassDelete:
		o.store.Remove(edit.EntityID)
		o.dropEntity(edit.EntityID)
	case ClassCreate:
		o.removeStaged(edit.EntityID)
		o.store.UpsertHead(server)
	default:
		o.store.Update(edit.EntityID, func(E) E { return server })
	}
	return OutcomeApplied
}

// Reject drops editID if it is still the latest for its slot and returns the
// baseline it would have rolled back to. The store is left as it was.
func (o *Overlay[E]) Reject(editID string) (E, Outcome) {
	edit, ok := o.take(editID)
	if !ok {
		var zero E
		return zero, OutcomeStale
	}
	if edit.Kind == KindCreate {
		o.removeStaged(edit.EntityID)
	}
	return edit.Baseline, OutcomeApplied
}

// IsCurrent reports whether editID is still the latest outstanding edit for
// its slot.
func (o *Overlay[E]) IsCurrent(editID string) bool {
	t, ok := o.tickets[editID]
	if !ok || o.seq[t.slot] != t.seq {
		return false
	}
	p, ok := o.pending[t.slot]
	return ok && p.ID == editID
}

// Discard drops every edit on entityID without rolling anything back. Their
// eventual responses become stale.
func (o *Overlay[E]) Discard(entityID string) int {
	return o.dropEntity(entityID)
}

// ResolveStaged drops the placeholder staged under clientRef, if any. It is
// used when the server entity arrives over push before the create response.
func (o *Overlay[E]) ResolveStaged(clientRef string) bool {
	sl := slot{entityID: clientRef, class: ClassCreate}
	if _, ok := o.pending[sl]; !ok {
		return false
	}
	delete(o.pending, sl)
	o.removeStaged(clientRef)
	return true
}

// Pending reports whether entityID has any outstanding edit.
func (o *Overlay[E]) Pending(entityID string) bool {
	for sl := range o.pending {
		if sl.entityID == entityID {
			return true
		}
	}
	return false
}

// PendingKind returns the outstanding kind for entityID within class.
func (o *Overlay[E]) PendingKind(entityID string, class Class) (Kind, bool) {
	p, ok := o.pending[slot{entityID: entityID, class: class}]
	if !ok {
		return 0, false
	}
	return p.Kind, true
}

// Len returns the number of outstanding edits.
func (o *Overlay[E]) Len() int { return len(o.pending) }

// Project returns e with its outstanding edits applied.
func (o *Overlay[E]) Project(e E) E {
	for _, class := range projectedClasses {
		if p, ok := o.pending[slot{entityID: e.Key(), class: class}]; ok {
			e = o.project(e, p.Kind)
		}
	}
	return e
}

// View returns what the screen should render: staged placeholders first,
// then the store in order with edits projected and pending deletes hidden.
func (o *Overlay[E]) View() []E {
	items := o.store.All()
	out := make([]E, 0, len(o.staged)+len(items))
	out = append(out, o.staged...)
	for _, e := range items {
		if _, deleting := o.pending[slot{entityID: e.Key(), class: ClassDelete}]; deleting {
			continue
		}
		out = append(out, o.Project(e))
	}
	return out
}

// Get returns the projected entity for id, hiding pending deletes.
func (o *Overlay[E]) Get(id string) (E, bool) {
	e, ok := o.store.Get(id)
	if !ok {
		var zero E
		return zero, false
	}
	if _, deleting := o.pending[slot{entityID: id, class: ClassDelete}]; deleting {
		var zero E
		return zero, false
	}
	return o.Project(e), true
}

// Clear drops every edit, used on unmount.
func (o *Overlay[E]) Clear() {
	clear(o.pending)
	clear(o.tickets)
	o.staged = nil
}

// take resolves editID if it is the latest for its slot.
func (o *Overlay[E]) take(editID string) (*Edit[E], bool) {
	t, ok := o.tickets[editID]
	if !ok {
		return nil, false
	}
	delete(o.tickets, editID)

	if o.seq[t.slot] != t.seq {
		return nil, false
	}
	edit, ok := o.pending[t.slot]
	if !ok || edit.ID != editID {
		return nil, false
	}
	delete(o.pending, t.slot)
	return edit, true
}

func (o *Overlay[E]) dropEntity(entityID string) int {
	n := 0
	for sl := range o.pending {
		if sl.entityID == entityID {
			delete(o.pending, sl)
			n++
		}
	}
	return n
}

func (o *Overlay[E]) removeStaged(key string) {
	for i, e := range o.staged {
		if e.Key() == key {
			o.staged = append(o.staged[:i:i], o.staged[i+1:]...)
			return
		}
	}
}

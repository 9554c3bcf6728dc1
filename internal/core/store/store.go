// Package store holds the ordered in-memory entity collection for a screen.
package store

import "github.com/colonyops/feedsync/internal/core/entity"

// Store is an ordered collection of entities keyed by id. It never holds two
// entities with the same id.
//
// Store is not safe for concurrent use. It is owned by a single event loop.
type Store[E entity.Entity] struct {
	items []E
	index map[string]int
}

// New creates an empty store.
func New[E entity.Entity]() *Store[E] {
	return &Store[E]{index: make(map[string]int)}
}

// Upsert replaces the entity with the same id in place, or appends it.
func (s *Store[E]) Upsert(e E) {
	if i, ok := s.index[e.Key()]; ok {
		s.items[i] = e
		return
	}
	s.index[e.Key()] = len(s.items)
	s.items = append(s.items, e)
}

// UpsertHead replaces the entity with the same id in place, or prepends it.
func (s *Store[E]) UpsertHead(e E) {
	if i, ok := s.index[e.Key()]; ok {
		s.items[i] = e
		return
	}
	s.items = append(s.items, e)
	copy(s.items[1:], s.items[:len(s.items)-1])
	s.items[0] = e
	s.reindex()
}

// Update replaces the entity with id by fn(current). It reports whether the
// id was present. fn must return an entity with the same id.
func (s *Store[E]) Update(id string, fn func(E) E) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.items[i] = fn(s.items[i])
	return true
}

// Remove deletes the entity with id. Removing an absent id is a no-op.
func (s *Store[E]) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindex()
	return true
}

// RemoveMany deletes every listed id and returns how many were present.
func (s *Store[E]) RemoveMany(ids []string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			drop[id] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return 0
	}

	kept := s.items[:0]
	for _, e := range s.items {
		if _, ok := drop[e.Key()]; !ok {
			kept = append(kept, e)
		}
	}
	clear(s.items[len(kept):])
	s.items = kept
	s.reindex()
	return len(drop)
}

// Reset replaces the whole collection. Duplicate ids keep the first
// occurrence.
func (s *Store[E]) Reset(items []E) {
	s.items = make([]E, 0, len(items))
	s.index = make(map[string]int, len(items))
	for _, e := range items {
		if _, dup := s.index[e.Key()]; dup {
			continue
		}
		s.index[e.Key()] = len(s.items)
		s.items = append(s.items, e)
	}
}

// Get returns the entity with id.
func (s *Store[E]) Get(id string) (E, bool) {
	i, ok := s.index[id]
	if !ok {
		var zero E
		return zero, false
	}
	return s.items[i], true
}

// Has reports whether id is present.
func (s *Store[E]) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// IndexOf returns the position of id, or -1.
func (s *Store[E]) IndexOf(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// Len returns the number of entities.
func (s *Store[E]) Len() int {
	return len(s.items)
}

// All returns a copy of the collection in order.
func (s *Store[E]) All() []E {
	out := make([]E, len(s.items))
	copy(out, s.items)
	return out
}

// Keys returns the ids in order.
func (s *Store[E]) Keys() []string {
	keys := make([]string, len(s.items))
	for i, e := range s.items {
		keys[i] = e.Key()
	}
	return keys
}

func (s *Store[E]) reindex() {
	clear(s.index)
	for i, e := range s.items {
		s.index[e.Key()] = i
	}
}

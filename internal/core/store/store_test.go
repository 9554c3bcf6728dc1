package store

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/feedsync/internal/core/entity"
)

func note(id, msg string) entity.Notification {
	return entity.Notification{ID: id, Message: msg}
}

func keys(s *Store[entity.Notification]) []string {
	return s.Keys()
}

func TestStore_Upsert(t *testing.T) {
	t.Run("appends new ids", func(t *testing.T) {
		s := New[entity.Notification]()
		s.Upsert(note("1", "a"))
		s.Upsert(note("2", "b"))

		assert.Equal(t, []string{"1", "2"}, keys(s))
	})

	t.Run("replaces in place", func(t *testing.T) {
		s := New[entity.Notification]()
		s.Upsert(note("1", "a"))
		s.Upsert(note("2", "b"))
		s.Upsert(note("3", "c"))

		s.Upsert(note("2", "changed"))

		assert.Equal(t, []string{"1", "2", "3"}, keys(s))
		got, ok := s.Get("2")
		require.True(t, ok)
		assert.Equal(t, "changed", got.Message)
	})
}

func TestStore_UpsertHead(t *testing.T) {
	s := New[entity.Notification]()
	s.UpsertHead(note("1", "a"))
	s.UpsertHead(note("2", "b"))
	s.UpsertHead(note("3", "c"))

	assert.Equal(t, []string{"3", "2", "1"}, keys(s))
	assert.Equal(t, 0, s.IndexOf("3"))
	assert.Equal(t, 2, s.IndexOf("1"))

	s.UpsertHead(note("1", "replaced"))
	assert.Equal(t, []string{"3", "2", "1"}, keys(s), "existing id keeps its position")
}

func TestStore_Remove(t *testing.T) {
	s := New[entity.Notification]()
	s.Reset([]entity.Notification{note("1", ""), note("2", ""), note("3", "")})

	assert.True(t, s.Remove("2"))
	assert.Equal(t, []string{"1", "3"}, keys(s))
	assert.Equal(t, 1, s.IndexOf("3"))

	assert.False(t, s.Remove("2"), "absent id is a no-op")
	assert.Equal(t, 2, s.Len())
}

func TestStore_RemoveMany(t *testing.T) {
	s := New[entity.Notification]()
	s.Reset([]entity.Notification{note("1", ""), note("2", ""), note("3", ""), note("4", "")})

	n := s.RemoveMany([]string{"4", "2", "missing"})

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"1", "3"}, keys(s))
	assert.False(t, s.Has("4"))
}

func TestStore_Reset_dedupes(t *testing.T) {
	s := New[entity.Notification]()
	s.Reset([]entity.Notification{note("1", "first"), note("2", ""), note("1", "second")})

	assert.Equal(t, []string{"1", "2"}, keys(s))
	got, _ := s.Get("1")
	assert.Equal(t, "first", got.Message)
}

func TestStore_Update(t *testing.T) {
	s := New[entity.Notification]()
	s.Upsert(note("1", ""))

	ok := s.Update("1", func(n entity.Notification) entity.Notification { return n.WithRead(true) })
	assert.True(t, ok)
	got, _ := s.Get("1")
	assert.True(t, got.Read)

	assert.False(t, s.Update("missing", func(n entity.Notification) entity.Notification { return n }))
}

func TestStore_All_returns_copy(t *testing.T) {
	s := New[entity.Notification]()
	s.Upsert(note("1", "a"))

	all := s.All()
	all[0] = note("x", "mutated")

	got, _ := s.Get("1")
	assert.Equal(t, "a", got.Message)
}

// Random upsert/remove sequences never produce duplicate ids and never
// reorder entities that were not touched.
func TestStore_RandomOperations_invariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for round := range 50 {
		s := New[entity.Notification]()
		var model []string

		for range 200 {
			id := fmt.Sprintf("%d", rng.IntN(20))
			switch rng.IntN(4) {
			case 0:
				s.Upsert(note(id, ""))
				if !contains(model, id) {
					model = append(model, id)
				}
			case 1:
				s.UpsertHead(note(id, ""))
				if !contains(model, id) {
					model = append([]string{id}, model...)
				}
			case 2:
				s.Remove(id)
				model = without(model, id)
			case 3:
				other := fmt.Sprintf("%d", rng.IntN(20))
				s.RemoveMany([]string{id, other})
				model = without(without(model, id), other)
			}

			require.Equal(t, model, keys(s), "round %d", round)
		}

		seen := map[string]bool{}
		for _, k := range keys(s) {
			require.False(t, seen[k], "duplicate id %s", k)
			seen[k] = true
		}
	}
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func without(xs []string, x string) []string {
	out := xs[:0:0]
	for _, v := range xs {
		if v != x {
			out = append(out, v)
		}
	}
	return out
}

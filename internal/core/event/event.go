// Package event defines the typed events consumed by the reconciliation
// resolver. Push messages and REST results are normalized into these types
// at the adapter boundary so the resolver handles a single stream.
package event

import "github.com/colonyops/feedsync/internal/core/entity"

// Kind identifies the concrete event type.
type Kind string

const (
	KindNew        Kind = "NEW"
	KindReadOne    Kind = "READ_ONE"
	KindReadMany   Kind = "READ_MANY"
	KindReadAll    Kind = "READ_ALL"
	KindDeleteOne  Kind = "DELETE_ONE"
	KindDeleteMany Kind = "DELETE_MANY"
	KindLikeUpdate Kind = "LIKE_UPDATE"
	KindSnapshot   Kind = "SNAPSHOT"
	KindConfirmed  Kind = "CONFIRMED"
	KindRejected   Kind = "REJECTED"
)

// Event is one item of the resolver's input stream.
type Event interface {
	Kind() Kind
}

// Upsert carries a new or replaced entity. Head places a new entity at the
// front of the collection (newest-first notifications).
type Upsert[E entity.Entity] struct {
	Entity    E
	Head      bool
	ClientRef string
}

func (Upsert[E]) Kind() Kind { return KindNew }

// ReadOne marks a single entity read.
type ReadOne struct{ ID string }

func (ReadOne) Kind() Kind { return KindReadOne }

// ReadMany marks the listed entities read.
type ReadMany struct{ IDs []string }

func (ReadMany) Kind() Kind { return KindReadMany }

// ReadAll marks every entity read.
type ReadAll struct{}

func (ReadAll) Kind() Kind { return KindReadAll }

// DeleteOne removes a single entity.
type DeleteOne struct{ ID string }

func (DeleteOne) Kind() Kind { return KindDeleteOne }

// DeleteMany removes the listed entities.
type DeleteMany struct{ IDs []string }

func (DeleteMany) Kind() Kind { return KindDeleteMany }

// LikeUpdate is the server-confirmed like state of a feed item, produced by a
// like or unlike REST call. EditID is empty when no local edit requested it.
type LikeUpdate struct {
	EditID string
	Item   entity.FeedItem
}

func (LikeUpdate) Kind() Kind { return KindLikeUpdate }

// Snapshot is a full collection refresh in server order.
type Snapshot[E entity.Entity] struct {
	Items []E
}

func (Snapshot[E]) Kind() Kind { return KindSnapshot }

// Confirmed is a successful mutation response carrying the authoritative
// entity. Deleted reports a confirmed delete, where Entity is unused.
type Confirmed[E entity.Entity] struct {
	EditID  string
	Entity  E
	Deleted bool
}

func (Confirmed[E]) Kind() Kind { return KindConfirmed }

// Rejected is a failed mutation response.
type Rejected struct {
	EditID string
	Err    error
}

func (Rejected) Kind() Kind { return KindRejected }

// Targets returns the entity ids an event addresses, or nil for events that
// address the whole collection or carry entities directly.
func Targets(ev Event) []string {
	switch e := ev.(type) {
	case ReadOne:
		return []string{e.ID}
	case ReadMany:
		return e.IDs
	case DeleteOne:
		return []string{e.ID}
	case DeleteMany:
		return e.IDs
	case LikeUpdate:
		return []string{e.Item.ID}
	}
	return nil
}

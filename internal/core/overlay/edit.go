package overlay

import (
	"errors"
	"time"
)

// ErrUnknownEntity is returned when an edit targets an id the store does not
// hold.
var ErrUnknownEntity = errors.New("entity not in store")

// Kind is the type of a speculative local edit.
type Kind int

const (
	KindLike Kind = iota + 1
	KindUnlike
	KindMarkRead
	KindDelete
	KindCreate
)

func (k Kind) String() string {
	switch k {
	case KindLike:
		return "like"
	case KindUnlike:
		return "unlike"
	case KindMarkRead:
		return "mark-read"
	case KindDelete:
		return "delete"
	case KindCreate:
		return "create"
	default:
		return "unknown"
	}
}

// Class groups kinds that supersede one another on the same entity.
type Class int

const (
	ClassLike Class = iota + 1
	ClassRead
	ClassDelete
	ClassCreate
)

// Class returns the kind-class of k.
func (k Kind) Class() Class {
	switch k {
	case KindLike, KindUnlike:
		return ClassLike
	case KindMarkRead:
		return ClassRead
	case KindDelete:
		return ClassDelete
	default:
		return ClassCreate
	}
}

// projection order for stacked edits on one entity
var projectedClasses = []Class{ClassRead, ClassLike}

// Edit is one outstanding optimistic edit.
type Edit[E any] struct {
	ID        string
	EntityID  string
	Kind      Kind
	Seq       uint64
	AppliedAt time.Time

	// Baseline is the entity as it was before the first edit of this class
	// that is still outstanding. Superseding edits inherit it.
	Baseline E
}

// Outcome reports what happened to a server response.
type Outcome int

const (
	// OutcomeApplied means the response belonged to the latest edit and was
	// applied.
	OutcomeApplied Outcome = iota + 1
	// OutcomeStale means the edit was superseded or discarded and the
	// response was ignored.
	OutcomeStale
)

func (o Outcome) String() string {
	if o == OutcomeApplied {
		return "applied"
	}
	return "stale"
}

package reconcile

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/core/event"
	"github.com/colonyops/feedsync/internal/core/overlay"
)

// NotificationBackend is the REST surface the notifications screen uses.
type NotificationBackend interface {
	ListNotifications(ctx context.Context, userID string) ([]entity.Notification, error)
	MarkRead(ctx context.Context, id string) (entity.Notification, error)
	MarkReadMany(ctx context.Context, ids []string) ([]entity.Notification, error)
	MarkAllRead(ctx context.Context, userID string) ([]entity.Notification, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
}

// Notifier is implemented by backends that can create notifications, such
// as the dev server.
type Notifier interface {
	Notify(ctx context.Context, userID, message, clientRef string) (entity.Notification, error)
}

// ErrCannotNotify is returned by Send when the backend cannot create
// notifications.
var ErrCannotNotify = errors.New("backend cannot create notifications")

func projectNotification(n entity.Notification, k overlay.Kind) entity.Notification {
	if k == overlay.KindMarkRead {
		return n.WithRead(true)
	}
	return n
}

// NotificationSession owns the notifications collection of one mounted
// screen. All methods must be called on the session's runner.
type NotificationSession struct {
	*session[entity.Notification]
	api NotificationBackend
}

// NewNotificationSession creates a mounted session. Call Load to fetch and
// Attach to go live.
func NewNotificationSession(deps Deps, api NotificationBackend) *NotificationSession {
	ns := &NotificationSession{api: api}
	ns.session = newSession(deps, true, projectNotification,
		func(ctx context.Context) ([]entity.Notification, error) {
			return api.ListNotifications(ctx, deps.UserID)
		})
	return ns
}

// UnreadCount counts rendered notifications that are not read.
func (ns *NotificationSession) UnreadCount() int {
	n := 0
	for _, it := range ns.Items() {
		if !it.Read {
			n++
		}
	}
	return n
}

// MarkRead marks id read. Marking a read notification is a no-op.
func (ns *NotificationSession) MarkRead(id string) error {
	cur, ok := ns.Get(id)
	if !ok {
		return overlay.ErrUnknownEntity
	}
	if cur.Read {
		return nil
	}
	edit, _, err := ns.overlay.Apply(id, overlay.KindMarkRead)
	if err != nil {
		return err
	}

	ns.mutate(mutation{
		name:  "mark notification read",
		edits: []string{edit.ID},
		call: func(ctx context.Context) ([]event.Event, error) {
			srv, err := ns.api.MarkRead(ctx, id)
			if err != nil {
				return nil, err
			}
			if srv.ID == "" {
				srv = edit.Baseline.WithRead(true)
			}
			return []event.Event{event.Confirmed[entity.Notification]{EditID: edit.ID, Entity: srv}}, nil
		},
	})
	return nil
}

// MarkReadMany marks every listed unread notification read in one call.
func (ns *NotificationSession) MarkReadMany(ids []string) error {
	edits := ns.applyRead(ids)
	if len(edits) == 0 {
		return nil
	}
	targets := editTargets(edits)

	ns.mutate(mutation{
		name:  "mark notifications read",
		edits: editIDs(edits),
		call: func(ctx context.Context) ([]event.Event, error) {
			srv, err := ns.api.MarkReadMany(ctx, targets)
			if err != nil {
				return nil, err
			}
			return readConfirmations(edits, srv), nil
		},
	})
	return nil
}

// MarkAllRead marks every notification of the user read.
func (ns *NotificationSession) MarkAllRead() error {
	edits := ns.applyRead(ns.store.Keys())
	if len(edits) == 0 {
		return nil
	}

	ns.mutate(mutation{
		name:  "mark all notifications read",
		edits: editIDs(edits),
		call: func(ctx context.Context) ([]event.Event, error) {
			srv, err := ns.api.MarkAllRead(ctx, ns.deps.UserID)
			if err != nil {
				return nil, err
			}
			return append(readConfirmations(edits, srv), event.ReadAll{}), nil
		},
	})
	return nil
}

// Send creates a notification for the session's user. A placeholder keyed by
// a fresh client reference renders at the head at once; it is replaced by
// the server record from the response or from the matching push, whichever
// lands first, and removed if the call fails.
func (ns *NotificationSession) Send(message string) error {
	notifier, ok := ns.api.(Notifier)
	if !ok {
		return ErrCannotNotify
	}

	ref := uuid.NewString()
	edit := ns.overlay.Stage(entity.Notification{
		ID:        ref,
		UserID:    ns.deps.UserID,
		Type:      "SYSTEM",
		Message:   message,
		CreatedAt: ns.deps.Runner.Now(),
		ClientRef: ref,
	})
	userID := ns.deps.UserID

	ns.mutate(mutation{
		name:  "send notification",
		edits: []string{edit.ID},
		call: func(ctx context.Context) ([]event.Event, error) {
			n, err := notifier.Notify(ctx, userID, message, ref)
			if err != nil {
				return nil, err
			}
			return []event.Event{event.Confirmed[entity.Notification]{EditID: edit.ID, Entity: n}}, nil
		},
	})
	return nil
}

// Delete removes id. It disappears from the rendered list at once and
// reappears if the server rejects the delete.
func (ns *NotificationSession) Delete(id string) error {
	edit, _, err := ns.overlay.Apply(id, overlay.KindDelete)
	if err != nil {
		return err
	}

	ns.mutate(mutation{
		name:  "delete notification",
		edits: []string{edit.ID},
		call: func(ctx context.Context) ([]event.Event, error) {
			if err := ns.api.Delete(ctx, id); err != nil {
				return nil, err
			}
			return []event.Event{event.Confirmed[entity.Notification]{EditID: edit.ID, Deleted: true}}, nil
		},
	})
	return nil
}

// DeleteMany removes every listed notification in one call. Unknown ids are
// skipped.
func (ns *NotificationSession) DeleteMany(ids []string) error {
	var edits []overlay.Edit[entity.Notification]
	for _, id := range ids {
		edit, _, err := ns.overlay.Apply(id, overlay.KindDelete)
		if err != nil {
			continue
		}
		edits = append(edits, edit)
	}
	if len(edits) == 0 {
		return overlay.ErrUnknownEntity
	}
	targets := editTargets(edits)

	ns.mutate(mutation{
		name:  "delete notifications",
		edits: editIDs(edits),
		call: func(ctx context.Context) ([]event.Event, error) {
			if err := ns.api.DeleteMany(ctx, targets); err != nil {
				return nil, err
			}
			out := make([]event.Event, 0, len(edits))
			for _, e := range edits {
				out = append(out, event.Confirmed[entity.Notification]{EditID: e.ID, Deleted: true})
			}
			return out, nil
		},
	})
	return nil
}

func (ns *NotificationSession) applyRead(ids []string) []overlay.Edit[entity.Notification] {
	var edits []overlay.Edit[entity.Notification]
	for _, id := range ids {
		cur, ok := ns.Get(id)
		if !ok || cur.Read {
			continue
		}
		edit, _, err := ns.overlay.Apply(id, overlay.KindMarkRead)
		if err != nil {
			continue
		}
		edits = append(edits, edit)
	}
	return edits
}

// readConfirmations pairs each edit with the server record for its entity,
// falling back to the read baseline when the server omitted it.
func readConfirmations(edits []overlay.Edit[entity.Notification], srv []entity.Notification) []event.Event {
	byID := make(map[string]entity.Notification, len(srv))
	for _, n := range srv {
		byID[n.ID] = n
	}

	out := make([]event.Event, 0, len(edits))
	for _, e := range edits {
		n, ok := byID[e.EntityID]
		if !ok {
			n = e.Baseline.WithRead(true)
		}
		out = append(out, event.Confirmed[entity.Notification]{EditID: e.ID, Entity: n})
	}
	return out
}

func editIDs[E any](edits []overlay.Edit[E]) []string {
	out := make([]string, len(edits))
	for i, e := range edits {
		out[i] = e.ID
	}
	return out
}

func editTargets[E any](edits []overlay.Edit[E]) []string {
	out := make([]string, len(edits))
	for i, e := range edits {
		out[i] = e.EntityID
	}
	return out
}

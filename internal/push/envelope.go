package push

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/core/event"
)

// Envelope types delivered on the notification topic.
const (
	TypeNew         = "NEW_NOTIFICATION"
	TypeRead        = "NOTIFICATION_READ"
	TypeBulkRead    = "BULK_NOTIFICATIONS_READ"
	TypeAllRead     = "ALL_NOTIFICATIONS_READ"
	TypeDeleted     = "NOTIFICATION_DELETED"
	TypeBulkDeleted = "BULK_NOTIFICATIONS_DELETED"
)

// ErrMalformed wraps every envelope that fails to parse or validate.
var ErrMalformed = errors.New("malformed push message")

//go:embed envelope.schema.json
var envelopeSchema []byte

const envelopeSchemaURL = "https://feedsync.dev/schemas/push-envelope.json"

// Envelope is the JSON body of a push MESSAGE frame.
type Envelope struct {
	Type             string          `json:"type"`
	ID               entity.WireID   `json:"id,omitempty"`
	NotificationIDs  []entity.WireID `json:"notificationIds,omitempty"`
	Message          string          `json:"message,omitempty"`
	CreatedAt        string          `json:"createdAt,omitempty"`
	NotificationType string          `json:"notificationType,omitempty"`
	UserID           entity.WireID   `json:"userId,omitempty"`
	ClientRef        string          `json:"clientRef,omitempty"`
}

// Decoder validates envelopes against the embedded JSON schema and maps them
// to engine events. It is safe for concurrent use.
type Decoder struct {
	schema *jsonschema.Schema
	now    func() time.Time
}

// NewDecoder compiles the envelope schema.
func NewDecoder() (*Decoder, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(envelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("parse envelope schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(envelopeSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add envelope schema: %w", err)
	}
	sch, err := c.Compile(envelopeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}
	return &Decoder{schema: sch, now: time.Now}, nil
}

// Decode validates body and returns the event it carries. Every failure
// wraps ErrMalformed.
func (d *Decoder) Decode(body []byte) (event.Event, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := d.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return d.toEvent(env)
}

func (d *Decoder) toEvent(env Envelope) (event.Event, error) {
	switch env.Type {
	case TypeNew:
		createdAt := d.now()
		if env.CreatedAt != "" {
			t, err := entity.ParseTime(env.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("%w: createdAt: %w", ErrMalformed, err)
			}
			createdAt = t
		}
		return event.Upsert[entity.Notification]{
			Entity: entity.Notification{
				ID:        string(env.ID),
				UserID:    string(env.UserID),
				Type:      env.NotificationType,
				Message:   env.Message,
				CreatedAt: createdAt,
				ClientRef: env.ClientRef,
			},
			Head:      true,
			ClientRef: env.ClientRef,
		}, nil
	case TypeRead:
		return event.ReadOne{ID: string(env.ID)}, nil
	case TypeBulkRead:
		return event.ReadMany{IDs: entity.WireIDs(env.NotificationIDs)}, nil
	case TypeAllRead:
		return event.ReadAll{}, nil
	case TypeDeleted:
		return event.DeleteOne{ID: string(env.ID)}, nil
	case TypeBulkDeleted:
		return event.DeleteMany{IDs: entity.WireIDs(env.NotificationIDs)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}
}

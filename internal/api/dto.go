package api

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/colonyops/feedsync/internal/core/entity"
)

var validate = validator.New()

type notificationDTO struct {
	ID        entity.WireID `json:"id" validate:"required"`
	UserID    entity.WireID `json:"userId"`
	Type      string        `json:"type"`
	Message   string        `json:"message"`
	Read      bool          `json:"read"`
	IsRead    *bool         `json:"isRead,omitempty"`
	CreatedAt string        `json:"createdAt"`
	ClientRef string        `json:"clientRef,omitempty"`
}

func (d notificationDTO) entity() (entity.Notification, error) {
	n := entity.Notification{
		ID:        string(d.ID),
		UserID:    string(d.UserID),
		Type:      d.Type,
		Message:   d.Message,
		Read:      d.Read,
		ClientRef: d.ClientRef,
	}
	if d.IsRead != nil {
		n.Read = *d.IsRead
	}
	if d.CreatedAt != "" {
		t, err := entity.ParseTime(d.CreatedAt)
		if err != nil {
			return entity.Notification{}, fmt.Errorf("notification %s: %w", d.ID, err)
		}
		n.CreatedAt = t
	}
	return n, nil
}

type reelDTO struct {
	ID        entity.WireID   `json:"id" validate:"required"`
	UserID    entity.WireID   `json:"userId"`
	Caption   string          `json:"caption"`
	VideoURL  string          `json:"videoUrl"`
	MediaURL  string          `json:"mediaUrl"`
	LikedBy   []entity.WireID `json:"likedBy"`
	LikeCount int             `json:"likeCount" validate:"gte=0"`
	CreatedAt string          `json:"createdAt"`
}

func (d reelDTO) entity() (entity.FeedItem, error) {
	f := entity.FeedItem{
		ID:        string(d.ID),
		AuthorID:  string(d.UserID),
		Caption:   d.Caption,
		MediaURL:  d.MediaURL,
		LikedBy:   entity.WireIDs(d.LikedBy),
		LikeCount: d.LikeCount,
	}
	if f.MediaURL == "" {
		f.MediaURL = d.VideoURL
	}
	if f.LikedBy == nil {
		f.LikedBy = []string{}
	}
	if d.CreatedAt != "" {
		t, err := entity.ParseTime(d.CreatedAt)
		if err != nil {
			return entity.FeedItem{}, fmt.Errorf("reel %s: %w", d.ID, err)
		}
		f.CreatedAt = t
	}
	return f, nil
}

type likeDTO struct {
	LikedBy   []entity.WireID `json:"likedBy"`
	LikeCount int             `json:"likeCount" validate:"gte=0"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

type notifyRequest struct {
	Message   string `json:"message"`
	Type      string `json:"type,omitempty"`
	ClientRef string `json:"clientRef,omitempty"`
}

func notifications(dtos []notificationDTO) ([]entity.Notification, error) {
	out := make([]entity.Notification, 0, len(dtos))
	for _, d := range dtos {
		if err := validate.Struct(d); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
		}
		n, err := d.entity()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func reels(dtos []reelDTO) ([]entity.FeedItem, error) {
	out := make([]entity.FeedItem, 0, len(dtos))
	for _, d := range dtos {
		if err := validate.Struct(d); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
		}
		f, err := d.entity()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// Package entity defines the server-owned records mirrored by the client.
//
// Records are immutable values. Every helper that changes a field returns a
// new record and never shares slices with the receiver, so a store can hand
// records out without copying them again.
package entity

import (
	"slices"
	"time"
)

// Entity is anything the store can key by a stable id.
type Entity interface {
	Key() string
}

// Notification is a single user notification, newest first in its collection.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Type      string    `json:"type,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`

	// ClientRef links a server notification to a locally staged placeholder.
	ClientRef string `json:"clientRef,omitempty"`
}

func (n Notification) Key() string { return n.ID }

// Ref returns the client reference, empty for notifications the client did
// not originate.
func (n Notification) Ref() string { return n.ClientRef }

// IsRead reports whether the notification has been read.
func (n Notification) IsRead() bool { return n.Read }

// WithRead returns a copy with the read flag set to read.
func (n Notification) WithRead(read bool) Notification {
	n.Read = read
	return n
}

// FeedItem is a short-video reel in server-provided order.
type FeedItem struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	MediaURL  string    `json:"mediaUrl"`
	LikedBy   []string  `json:"likedBy"`
	LikeCount int       `json:"likeCount"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f FeedItem) Key() string { return f.ID }

// LikedByUser reports whether userID is in the like set.
func (f FeedItem) LikedByUser(userID string) bool {
	return slices.Contains(f.LikedBy, userID)
}

// WithLike returns a copy with userID added to the like set. Liking an item
// the user already likes returns an equal copy.
func (f FeedItem) WithLike(userID string) FeedItem {
	if f.LikedByUser(userID) {
		f.LikedBy = slices.Clone(f.LikedBy)
		return f
	}
	liked := make([]string, 0, len(f.LikedBy)+1)
	liked = append(liked, f.LikedBy...)
	liked = append(liked, userID)
	f.LikedBy = liked
	f.LikeCount++
	return f
}

// WithoutLike returns a copy with userID removed from the like set.
func (f FeedItem) WithoutLike(userID string) FeedItem {
	if !f.LikedByUser(userID) {
		f.LikedBy = slices.Clone(f.LikedBy)
		return f
	}
	liked := make([]string, 0, len(f.LikedBy))
	for _, id := range f.LikedBy {
		if id != userID {
			liked = append(liked, id)
		}
	}
	f.LikedBy = liked
	if f.LikeCount > 0 {
		f.LikeCount--
	}
	return f
}

// LikeState is the authoritative like fragment returned by like and unlike
// calls.
type LikeState struct {
	LikedBy   []string `json:"likedBy"`
	LikeCount int      `json:"likeCount" validate:"gte=0"`
}

// WithLikeState returns a copy carrying ls verbatim.
func (f FeedItem) WithLikeState(ls LikeState) FeedItem {
	return f.WithLikes(ls.LikedBy, ls.LikeCount)
}

// WithLikes returns a copy carrying the server's like state verbatim.
func (f FeedItem) WithLikes(likedBy []string, count int) FeedItem {
	f.LikedBy = slices.Clone(likedBy)
	f.LikeCount = count
	return f
}

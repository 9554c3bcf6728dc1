package devserver

import (
	"slices"
	"strconv"
	"sync"
	"time"
)

// Notification is the wire record served by the notification routes.
type Notification struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
	ClientRef string `json:"clientRef,omitempty"`
}

// Reel is the wire record served by the reel routes.
type Reel struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	Caption   string   `json:"caption"`
	VideoURL  string   `json:"videoUrl"`
	LikedBy   []string `json:"likedBy"`
	LikeCount int      `json:"likeCount"`
	CreatedAt string   `json:"createdAt"`
}

// Seed is the initial data set, loadable from a JSON file.
type Seed struct {
	Notifications []Notification `json:"notifications"`
	Reels         []Reel         `json:"reels"`
}

// DefaultSeed returns a small data set for user "1".
func DefaultSeed(now time.Time) Seed {
	at := func(d time.Duration) string { return now.Add(-d).UTC().Format(time.RFC3339) }
	return Seed{
		Notifications: []Notification{
			{ID: "3", UserID: "1", Type: "LIKE", Message: "ana liked your reel", CreatedAt: at(2 * time.Minute)},
			{ID: "2", UserID: "1", Type: "COMMENT", Message: "bo commented: nice cut", CreatedAt: at(time.Hour)},
			{ID: "1", UserID: "1", Type: "FOLLOW", Message: "cy started following you", Read: true, CreatedAt: at(26 * time.Hour)},
		},
		Reels: []Reel{
			{ID: "1", UserID: "4", Caption: "sunrise over the bay", VideoURL: "http://res.cloudinary.com/demo/video/upload/v1/bay.mp4", LikedBy: []string{"4"}, LikeCount: 1, CreatedAt: at(3 * time.Hour)},
			{ID: "2", UserID: "5", Caption: "flaky connection test", VideoURL: "http://cdn.example.com/flaky/clip.webm", LikedBy: []string{}, CreatedAt: at(4 * time.Hour)},
			{ID: "3", UserID: "6", Caption: "still frame", VideoURL: "http://cdn.example.com/cover.jpg", LikedBy: []string{}, CreatedAt: at(5 * time.Hour)},
			{ID: "4", UserID: "4", Caption: "city at night", VideoURL: "https://cdn.example.com/night.m3u8", LikedBy: []string{"5", "6"}, LikeCount: 2, CreatedAt: at(6 * time.Hour)},
		},
	}
}

// memory holds the dev server's state. Notifications are kept newest first.
type memory struct {
	mu            sync.Mutex
	notifications []Notification
	reels         []Reel
	nextID        int
}

func newMemory(seed Seed) *memory {
	m := &memory{
		notifications: slices.Clone(seed.Notifications),
		reels:         slices.Clone(seed.Reels),
	}
	for _, n := range m.notifications {
		if id, err := strconv.Atoi(n.ID); err == nil && id > m.nextID {
			m.nextID = id
		}
	}
	for i := range m.reels {
		if m.reels[i].LikedBy == nil {
			m.reels[i].LikedBy = []string{}
		}
	}
	return m
}

func (m *memory) listNotifications(userID string) []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Notification{}
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (m *memory) addNotification(n Notification) Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	n.ID = strconv.Itoa(m.nextID)
	m.notifications = append([]Notification{n}, m.notifications...)
	return n
}

// markRead sets the read flag on every listed id and returns the records it
// found.
func (m *memory) markRead(ids []string) []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Notification{}
	for i := range m.notifications {
		if slices.Contains(ids, m.notifications[i].ID) {
			m.notifications[i].Read = true
			out = append(out, m.notifications[i])
		}
	}
	return out
}

func (m *memory) markAllRead(userID string) []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Notification{}
	for i := range m.notifications {
		if m.notifications[i].UserID == userID {
			m.notifications[i].Read = true
			out = append(out, m.notifications[i])
		}
	}
	return out
}

// deleteNotifications removes the listed ids and returns the removed
// records.
func (m *memory) deleteNotifications(ids []string) []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []Notification
	m.notifications = slices.DeleteFunc(m.notifications, func(n Notification) bool {
		if slices.Contains(ids, n.ID) {
			removed = append(removed, n)
			return true
		}
		return false
	})
	return removed
}

func (m *memory) listReels() []Reel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Reel, len(m.reels))
	for i, r := range m.reels {
		r.LikedBy = slices.Clone(r.LikedBy)
		out[i] = r
	}
	return out
}

// setLike adds or removes userID from the reel's like set. ok is false when
// the reel does not exist.
func (m *memory) setLike(reelID, userID string, like bool) (Reel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reels {
		r := &m.reels[i]
		if r.ID != reelID {
			continue
		}
		has := slices.Contains(r.LikedBy, userID)
		switch {
		case like && !has:
			r.LikedBy = append(slices.Clone(r.LikedBy), userID)
			r.LikeCount++
		case !like && has:
			r.LikedBy = slices.DeleteFunc(slices.Clone(r.LikedBy), func(id string) bool { return id == userID })
			if r.LikeCount > 0 {
				r.LikeCount--
			}
		}
		out := *r
		out.LikedBy = slices.Clone(r.LikedBy)
		return out, true
	}
	return Reel{}, false
}

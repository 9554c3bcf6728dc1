package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedItem_WithLike(t *testing.T) {
	t.Run("adds user and increments count", func(t *testing.T) {
		f := FeedItem{ID: "7", LikedBy: []string{"1"}, LikeCount: 1}

		got := f.WithLike("9")

		assert.Equal(t, []string{"1", "9"}, got.LikedBy)
		assert.Equal(t, 2, got.LikeCount)
		assert.Equal(t, []string{"1"}, f.LikedBy, "receiver must not change")
		assert.Equal(t, 1, f.LikeCount)
	})

	t.Run("already liked is unchanged", func(t *testing.T) {
		f := FeedItem{ID: "7", LikedBy: []string{"9"}, LikeCount: 1}

		got := f.WithLike("9")

		assert.Equal(t, f, got)
	})

	t.Run("does not alias receiver slice", func(t *testing.T) {
		f := FeedItem{ID: "7", LikedBy: make([]string, 1, 8)}
		f.LikedBy[0] = "1"

		a := f.WithLike("2")
		b := f.WithLike("3")

		assert.Equal(t, []string{"1", "2"}, a.LikedBy)
		assert.Equal(t, []string{"1", "3"}, b.LikedBy)
	})
}

func TestFeedItem_WithoutLike(t *testing.T) {
	f := FeedItem{ID: "7", LikedBy: []string{"1", "9"}, LikeCount: 2}

	got := f.WithoutLike("9")

	assert.Equal(t, []string{"1"}, got.LikedBy)
	assert.Equal(t, 1, got.LikeCount)
	assert.True(t, f.LikedByUser("9"))

	again := got.WithoutLike("9")
	assert.Equal(t, 1, again.LikeCount)
}

func TestFeedItem_WithoutLike_never_negative(t *testing.T) {
	f := FeedItem{ID: "7", LikedBy: []string{"9"}, LikeCount: 0}

	assert.Equal(t, 0, f.WithoutLike("9").LikeCount)
}

func TestNotification_WithRead(t *testing.T) {
	n := Notification{ID: "42"}

	read := n.WithRead(true)

	assert.True(t, read.IsRead())
	assert.False(t, n.IsRead())
	assert.Equal(t, "42", read.Key())
}

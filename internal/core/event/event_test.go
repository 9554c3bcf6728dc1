package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/feedsync/internal/core/entity"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		ev   Event
		want Kind
	}{
		{Upsert[entity.Notification]{}, KindNew},
		{ReadOne{}, KindReadOne},
		{ReadMany{}, KindReadMany},
		{ReadAll{}, KindReadAll},
		{DeleteOne{}, KindDeleteOne},
		{DeleteMany{}, KindDeleteMany},
		{LikeUpdate{}, KindLikeUpdate},
		{Snapshot[entity.FeedItem]{}, KindSnapshot},
		{Confirmed[entity.FeedItem]{}, KindConfirmed},
		{Rejected{}, KindRejected},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.Kind())
		})
	}
}

func TestTargets(t *testing.T) {
	assert.Equal(t, []string{"1"}, Targets(ReadOne{ID: "1"}))
	assert.Equal(t, []string{"1", "2"}, Targets(DeleteMany{IDs: []string{"1", "2"}}))
	assert.Equal(t, []string{"7"}, Targets(LikeUpdate{Item: entity.FeedItem{ID: "7"}}))
	assert.Nil(t, Targets(ReadAll{}))
}

package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithScreenID(t *testing.T) {
	ctx := WithScreenID(context.Background(), "reels-1")
	assert.Equal(t, "reels-1", GetScreenID(ctx))
}

func TestWithUserID(t *testing.T) {
	ctx := WithUserID(context.Background(), "9")
	assert.Equal(t, "9", GetUserID(ctx))
}

func TestGetIDs_NotPresent(t *testing.T) {
	assert.Empty(t, GetScreenID(context.Background()))
	assert.Empty(t, GetUserID(context.Background()))
}

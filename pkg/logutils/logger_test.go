package logutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "feedsync.log")

	l, closer, err := New("info", path, OutputDiscard)
	require.NoError(t, err)
	l.Info().Str("cmp", "test").Msg("first")
	l.Debug().Msg("filtered")
	closer()

	l, closer, err = New("info", path, OutputDiscard)
	require.NoError(t, err)
	l.Info().Msg("second")
	closer()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"first"`)
	assert.Contains(t, string(data), `"message":"second"`)
	assert.NotContains(t, string(data), "filtered")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New("loud", "", OutputDiscard)
	assert.Error(t, err)
}

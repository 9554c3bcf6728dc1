package iojson

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineWriter(t *testing.T) {
	var buf bytes.Buffer
	lw := NewLineWriter(&buf)

	require.NoError(t, lw.Write(map[string]any{"type": "NEW", "id": "42"}))
	require.NoError(t, lw.Write(map[string]any{"msg": "<b>"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"type":"NEW","id":"42"}`, lines[0])
	assert.Equal(t, `{"msg":"<b>"}`, lines[1])
}

func TestWriteWith_MarshalFailure(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, map[string]any{"ch": make(chan int)}))

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "json_error")
}

func TestMarshalError(t *testing.T) {
	got := MarshalError("boom", map[string]any{"id": "7"})
	assert.JSONEq(t, `{"message":"boom","data":{"id":"7"}}`, got)
}

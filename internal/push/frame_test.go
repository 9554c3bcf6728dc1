package push

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_Encode_Parse(t *testing.T) {
	f := NewFrame(CmdMessage, "destination", "/topic/notifications/9", "subscription", "s-1")
	f.Body = []byte(`{"type":"ALL_NOTIFICATIONS_READ"}`)

	got, err := ParseFrame(f.Encode())
	require.NoError(t, err)

	assert.Equal(t, CmdMessage, got.Command)
	dest, ok := got.Get("destination")
	assert.True(t, ok)
	assert.Equal(t, "/topic/notifications/9", dest)
	length, _ := got.Get("content-length")
	assert.Equal(t, "33", length)
	assert.Equal(t, f.Body, got.Body)
}

func TestFrame_header_escaping(t *testing.T) {
	f := NewFrame(CmdSubscribe, "odd:key", "line\nbreak\\slash")

	encoded := string(f.Encode())
	assert.Contains(t, encoded, `odd\ckey:line\nbreak\\slash`)

	got, err := ParseFrame([]byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, []Header{{Key: "odd:key", Value: "line\nbreak\\slash"}}, got.Headers)
}

func TestFrame_connect_headers_are_not_escaped(t *testing.T) {
	f := NewFrame(CmdConnect, "accept-version", "1.2", "host", "localhost:8080")

	assert.Contains(t, string(f.Encode()), "host:localhost:8080\n")
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
		command string
		body    string
	}{
		{name: "connected", in: "CONNECTED\nversion:1.2\n\n\x00", command: CmdConnected},
		{name: "leading heart-beats", in: "\n\r\nMESSAGE\nid:1\n\nhi\x00", command: CmdMessage, body: "hi"},
		{name: "crlf", in: "ERROR\r\nmessage:bad\r\n\r\nboom\x00", command: CmdError, body: "boom"},
		{name: "empty", in: "\n", wantErr: true},
		{name: "no terminator", in: "MESSAGE\nid:1\n\nhi", wantErr: true},
		{name: "bad header", in: "MESSAGE\nnocolon\n\n\x00", wantErr: true},
		{name: "bad escape", in: "MESSAGE\nk:\\t\n\n\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrame([]byte(tt.in))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrFrame)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.command, f.Command)
			assert.Equal(t, tt.body, string(f.Body))
		})
	}
}

func TestIsHeartbeat(t *testing.T) {
	assert.True(t, isHeartbeat([]byte("\n")))
	assert.True(t, isHeartbeat([]byte("\r\n")))
	assert.False(t, isHeartbeat([]byte("MESSAGE\n\n\x00")))
}

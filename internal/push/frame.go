package push

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// STOMP commands.
const (
	CmdConnect     = "CONNECT"
	CmdStomp       = "STOMP"
	CmdConnected   = "CONNECTED"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdDisconnect  = "DISCONNECT"
	CmdMessage     = "MESSAGE"
	CmdError       = "ERROR"
)

// ErrFrame is returned for bytes that are not a STOMP 1.2 frame.
var ErrFrame = errors.New("invalid stomp frame")

// Header is one STOMP header line. Order is kept because STOMP gives the
// first occurrence of a repeated header precedence.
type Header struct {
	Key, Value string
}

// Frame is a single STOMP 1.2 frame. Over WebSocket each text message
// carries exactly one frame.
type Frame struct {
	Command string
	Headers []Header
	Body    []byte
}

// NewFrame builds a frame from alternating key/value pairs.
func NewFrame(command string, kv ...string) Frame {
	f := Frame{Command: command}
	for i := 0; i+1 < len(kv); i += 2 {
		f.Headers = append(f.Headers, Header{Key: kv[i], Value: kv[i+1]})
	}
	return f
}

// Get returns the first value of key.
func (f Frame) Get(key string) (string, bool) {
	for _, h := range f.Headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// Encode serializes f including the trailing NUL.
func (f Frame) Encode() []byte {
	var b bytes.Buffer
	b.WriteString(f.Command)
	b.WriteByte('\n')
	escape := f.Command != CmdConnect && f.Command != CmdConnected
	for _, h := range f.Headers {
		if escape {
			b.WriteString(escapeHeader(h.Key))
			b.WriteByte(':')
			b.WriteString(escapeHeader(h.Value))
		} else {
			b.WriteString(h.Key)
			b.WriteByte(':')
			b.WriteString(h.Value)
		}
		b.WriteByte('\n')
	}
	if len(f.Body) > 0 {
		if _, ok := f.Get("content-length"); !ok {
			fmt.Fprintf(&b, "content-length:%d\n", len(f.Body))
		}
	}
	b.WriteByte('\n')
	b.Write(f.Body)
	b.WriteByte(0)
	return b.Bytes()
}

// isHeartbeat reports whether data is an EOL-only heart-beat.
func isHeartbeat(data []byte) bool {
	return len(bytes.Trim(data, "\r\n")) == 0
}

// ParseFrame decodes one frame. Leading EOLs (heart-beats) are skipped.
func ParseFrame(data []byte) (Frame, error) {
	data = bytes.TrimLeft(data, "\r\n")
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("%w: empty", ErrFrame)
	}

	head, body, ok := bytes.Cut(data, []byte("\n\n"))
	if !ok {
		head, body, ok = bytes.Cut(data, []byte("\r\n\r\n"))
		if !ok {
			return Frame{}, fmt.Errorf("%w: missing header terminator", ErrFrame)
		}
	}

	lines := strings.Split(strings.ReplaceAll(string(head), "\r\n", "\n"), "\n")
	f := Frame{Command: lines[0]}
	if f.Command == "" {
		return Frame{}, fmt.Errorf("%w: missing command", ErrFrame)
	}
	unescape := f.Command != CmdConnect && f.Command != CmdConnected
	for _, line := range lines[1:] {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return Frame{}, fmt.Errorf("%w: header %q", ErrFrame, line)
		}
		if unescape {
			var err error
			if k, err = unescapeHeader(k); err != nil {
				return Frame{}, err
			}
			if v, err = unescapeHeader(v); err != nil {
				return Frame{}, err
			}
		}
		f.Headers = append(f.Headers, Header{Key: k, Value: v})
	}

	end := bytes.IndexByte(body, 0)
	if end < 0 {
		return Frame{}, fmt.Errorf("%w: missing NUL terminator", ErrFrame)
	}
	if end > 0 {
		f.Body = bytes.Clone(body[:end])
	}
	return f, nil
}

var headerEscaper = strings.NewReplacer(`\`, `\\`, "\r", `\r`, "\n", `\n`, ":", `\c`)

func escapeHeader(s string) string { return headerEscaper.Replace(s) }

func unescapeHeader(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 == len(s) {
			return "", fmt.Errorf("%w: dangling escape", ErrFrame)
		}
		i++
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case 'c':
			b.WriteByte(':')
		default:
			return "", fmt.Errorf("%w: undefined escape \\%c", ErrFrame, s[i])
		}
	}
	return b.String(), nil
}

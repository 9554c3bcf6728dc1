package push

import (
	"context"
	"net/http"

	"nhooyr.io/websocket"
)

// Subprotocols offered to the broker.
var Subprotocols = []string{"v12.stomp", "v11.stomp"}

const readLimit = 1 << 20

// WebSocketDialer dials brokers with nhooyr.io/websocket.
type WebSocketDialer struct {
	HTTPClient *http.Client
}

func (d WebSocketDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPClient:   d.HTTPClient,
		HTTPHeader:   header,
		Subprotocols: Subprotocols,
	})
	if err != nil {
		return nil, err
	}
	c.SetReadLimit(readLimit)
	return &wsConn{c: c}, nil
}

// wsConn carries one STOMP frame per WebSocket message.
type wsConn struct {
	c *websocket.Conn
}

// WrapConn adapts an accepted server-side connection.
func WrapConn(c *websocket.Conn) Conn {
	c.SetReadLimit(readLimit)
	return &wsConn{c: c}
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.c.Read(ctx)
	return data, err
}

func (w *wsConn) Write(ctx context.Context, data []byte) error {
	return w.c.Write(ctx, websocket.MessageText, data)
}

func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "")
}

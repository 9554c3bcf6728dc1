package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/colonyops/feedsync/internal/push"
)

// Broker is a minimal STOMP 1.2 broker over WebSocket. It understands
// CONNECT, SUBSCRIBE, UNSUBSCRIBE and DISCONNECT and fans published
// messages out to matching subscriptions.
type Broker struct {
	token string
	log   zerolog.Logger

	mu       sync.Mutex
	sessions map[*session]struct{}
}

type session struct {
	conn push.Conn

	wmu  sync.Mutex
	subs map[string]string // subscription id -> destination
}

func newBroker(token string, log zerolog.Logger) *Broker {
	return &Broker{
		token:    token,
		log:      log,
		sessions: make(map[*session]struct{}),
	}
}

// Subscribers returns the number of subscriptions on destination.
func (b *Broker) Subscribers(destination string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for s := range b.sessions {
		s.wmu.Lock()
		for _, dest := range s.subs {
			if dest == destination {
				n++
			}
		}
		s.wmu.Unlock()
	}
	return n
}

// Publish sends env as a MESSAGE frame to every subscription on
// destination. It returns the number of deliveries.
func (b *Broker) Publish(ctx context.Context, destination string, env push.Envelope) (int, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	sessions := make([]*session, 0, len(b.sessions))
	for s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()

	delivered := 0
	for _, s := range sessions {
		n, err := s.deliver(ctx, destination, body)
		if err != nil {
			b.log.Debug().Err(err).Msg("dropping broker session")
			b.drop(s)
			continue
		}
		delivered += n
	}
	return delivered, nil
}

// CloseAll disconnects every session.
func (b *Broker) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.sessions {
		_ = s.conn.Close()
		delete(b.sessions, s)
	}
}

func (b *Broker) drop(s *session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sessions[s]; ok {
		_ = s.conn.Close()
		delete(b.sessions, s)
	}
}

// Handle upgrades the request and serves one STOMP session until the client
// disconnects.
func (b *Broker) Handle(c echo.Context) error {
	ws, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		Subprotocols: push.Subprotocols,
	})
	if err != nil {
		return nil
	}
	s := &session{conn: push.WrapConn(ws), subs: make(map[string]string)}
	defer b.drop(s)

	ctx := c.Request().Context()
	if err := b.serve(ctx, s); err != nil && !errors.Is(err, context.Canceled) {
		b.log.Debug().Err(err).Msg("broker session ended")
	}
	return nil
}

func (b *Broker) serve(ctx context.Context, s *session) error {
	connected := false
	for {
		data, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}
		if len(bytes.Trim(data, "\r\n")) == 0 {
			continue // heart-beat
		}
		f, err := push.ParseFrame(data)
		if err != nil {
			_ = s.write(ctx, push.NewFrame(push.CmdError, "message", "malformed frame"))
			return err
		}

		switch f.Command {
		case push.CmdConnect, push.CmdStomp:
			if !b.authorized(f) {
				_ = s.write(ctx, push.NewFrame(push.CmdError, "message", "unauthorized"))
				return errors.New("unauthorized connect")
			}
			connected = true
			b.mu.Lock()
			b.sessions[s] = struct{}{}
			b.mu.Unlock()
			if err := s.write(ctx, push.NewFrame(push.CmdConnected, "version", "1.2", "heart-beat", "0,0")); err != nil {
				return err
			}
		case push.CmdSubscribe:
			if !connected {
				_ = s.write(ctx, push.NewFrame(push.CmdError, "message", "not connected"))
				return errors.New("subscribe before connect")
			}
			id, _ := f.Get("id")
			dest, _ := f.Get("destination")
			s.wmu.Lock()
			s.subs[id] = dest
			s.wmu.Unlock()
			b.log.Debug().Str("destination", dest).Msg("broker subscription")
		case push.CmdUnsubscribe:
			id, _ := f.Get("id")
			s.wmu.Lock()
			delete(s.subs, id)
			s.wmu.Unlock()
		case push.CmdDisconnect:
			return nil
		}
	}
}

func (b *Broker) authorized(f push.Frame) bool {
	if b.token == "" {
		return true
	}
	auth, _ := f.Get("Authorization")
	return auth == "Bearer "+b.token
}

func (s *session) deliver(ctx context.Context, destination string, body []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	n := 0
	for id, dest := range s.subs {
		if dest != destination {
			continue
		}
		f := push.NewFrame(push.CmdMessage,
			"destination", dest,
			"subscription", id,
			"message-id", uuid.NewString(),
			"content-type", "application/json",
			"content-length", strconv.Itoa(len(body)),
		)
		f.Body = body
		if err := s.conn.Write(ctx, f.Encode()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *session) write(ctx context.Context, f push.Frame) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.Write(ctx, f.Encode())
}

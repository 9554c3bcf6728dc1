// Package push adapts the STOMP-over-WebSocket notification broker into a
// cold stream of engine events.
package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/feedsync/internal/core/event"
)

const (
	DefaultReconnectDelay = 5 * time.Second
	DefaultTopic          = "/topic/notifications/{user_id}"
)

// ErrBroker is returned when the broker answers with an ERROR frame.
var ErrBroker = errors.New("broker error")

// State is the connection state of a channel.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Config configures a Channel.
type Config struct {
	// URL is the broker WebSocket endpoint, e.g. ws://host/ws.
	URL string
	// Topic is the destination to subscribe to; "{user_id}" is replaced.
	Topic  string
	UserID string
	// Token is sent as a bearer Authorization header on CONNECT.
	Token string
	// ReconnectDelay is the fixed wait between connection attempts.
	ReconnectDelay time.Duration
	// Heartbeat is the client heart-beat interval. Zero disables it.
	Heartbeat time.Duration
}

// Destination returns the user-scoped topic.
func (c Config) Destination() string {
	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return strings.ReplaceAll(topic, "{user_id}", c.UserID)
}

// Conn is one message-oriented transport connection. Each message carries
// exactly one STOMP frame.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Dialer opens transport connections.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// Channel owns the push connection of one mounted screen.
type Channel struct {
	cfg     Config
	dialer  Dialer
	decoder *Decoder
	log     zerolog.Logger

	mu       sync.Mutex
	state    State
	onState  []func(State)
	attempts int
}

// Option configures a Channel.
type Option func(*Channel)

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithLogger sets the channel logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Channel) { c.log = l }
}

// NewChannel creates a disconnected channel. Nothing is dialed until Events
// is called.
func NewChannel(cfg Config, opts ...Option) (*Channel, error) {
	if cfg.URL == "" {
		return nil, errors.New("push: url is required")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}

	dec, err := NewDecoder()
	if err != nil {
		return nil, err
	}

	c := &Channel{
		cfg:     cfg,
		dialer:  WebSocketDialer{},
		decoder: dec,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the number of connection attempts so far.
func (c *Channel) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// OnState registers fn for state transitions. fn runs on the channel's
// goroutine and must hand work to the owning loop itself.
func (c *Channel) OnState(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = append(c.onState, fn)
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	if s == StateConnecting {
		c.attempts++
	}
	hooks := make([]func(State), len(c.onState))
	copy(hooks, c.onState)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(s)
	}
}

// Events connects and returns the event stream. The stream reconnects after
// transport failures with a fixed delay for as long as ctx is alive. When
// ctx is cancelled the connection is torn down and the channel is closed;
// no event is delivered after cancellation.
func (c *Channel) Events(ctx context.Context) <-chan event.Event {
	out := make(chan event.Event)
	go c.run(ctx, out)
	return out
}

func (c *Channel) run(ctx context.Context, out chan<- event.Event) {
	defer close(out)
	defer c.setState(StateDisconnected)

	for {
		if ctx.Err() != nil {
			return
		}
		c.setState(StateConnecting)
		err := c.session(ctx, out)
		if ctx.Err() != nil {
			return
		}
		c.setState(StateDisconnected)
		c.log.Debug().Err(err).
			Int("attempt", c.Attempts()).
			Dur("retry_in", c.cfg.ReconnectDelay).
			Msg("push transport dropped")

		timer := time.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session runs one connection until it fails or ctx ends.
func (c *Channel) session(ctx context.Context, out chan<- event.Event) error {
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	conn, err := c.dialer.Dial(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := c.handshake(ctx, conn); err != nil {
		return err
	}
	c.setState(StateConnected)

	subID := uuid.NewString()
	dest := c.cfg.Destination()
	sub := NewFrame(CmdSubscribe, "id", subID, "destination", dest, "ack", "auto")
	if err := conn.Write(ctx, sub.Encode()); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	c.log.Info().Str("destination", dest).Msg("push subscribed")

	defer c.goodbye(ctx, conn, subID)

	if c.cfg.Heartbeat > 0 {
		hbCtx, stop := context.WithCancel(ctx)
		defer stop()
		go c.heartbeat(hbCtx, conn)
	}

	for {
		f, err := c.readFrame(ctx, conn)
		if err != nil {
			return err
		}

		switch f.Command {
		case CmdMessage:
			ev, err := c.decoder.Decode(f.Body)
			if err != nil {
				c.log.Warn().Err(err).Msg("dropping push message")
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		case CmdError:
			msg, _ := f.Get("message")
			return fmt.Errorf("%w: %s", ErrBroker, msg)
		default:
			c.log.Debug().Str("command", f.Command).Msg("ignoring frame")
		}
	}
}

func (c *Channel) handshake(ctx context.Context, conn Conn) error {
	host := c.cfg.URL
	if u, err := url.Parse(c.cfg.URL); err == nil && u.Host != "" {
		host = u.Host
	}

	connect := NewFrame(CmdConnect,
		"accept-version", "1.2",
		"host", host,
		"heart-beat", strconv.FormatInt(c.cfg.Heartbeat.Milliseconds(), 10)+",0",
	)
	if c.cfg.Token != "" {
		connect.Headers = append(connect.Headers, Header{Key: "Authorization", Value: "Bearer " + c.cfg.Token})
	}
	if err := conn.Write(ctx, connect.Encode()); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	f, err := c.readFrame(ctx, conn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	switch f.Command {
	case CmdConnected:
		return nil
	case CmdError:
		msg, _ := f.Get("message")
		return fmt.Errorf("connect: %w: %s", ErrBroker, msg)
	default:
		return fmt.Errorf("connect: unexpected %s frame", f.Command)
	}
}

// readFrame returns the next frame, skipping heart-beats and unparsable
// messages.
func (c *Channel) readFrame(ctx context.Context, conn Conn) (Frame, error) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			return Frame{}, fmt.Errorf("read: %w", err)
		}
		if isHeartbeat(data) {
			continue
		}
		f, err := ParseFrame(data)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping unparsable frame")
			continue
		}
		return f, nil
	}
}

func (c *Channel) heartbeat(ctx context.Context, conn Conn) {
	t := time.NewTicker(c.cfg.Heartbeat)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := conn.Write(ctx, []byte("\n")); err != nil {
				return
			}
		}
	}
}

// goodbye unsubscribes and disconnects on teardown. Transport failures skip
// it since the connection is already gone.
func (c *Channel) goodbye(ctx context.Context, conn Conn, subID string) {
	if ctx.Err() == nil {
		return
	}
	wctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = conn.Write(wctx, NewFrame(CmdUnsubscribe, "id", subID).Encode())
	_ = conn.Write(wctx, NewFrame(CmdDisconnect).Encode())
}

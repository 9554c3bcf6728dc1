// Package devserver is an in-memory stand-in for the notification and reel
// backend. It serves the REST routes used by the api package and a STOMP
// broker at /ws that emits push envelopes when state changes.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/colonyops/feedsync/internal/push"
)

// Options configures a Server.
type Options struct {
	Seed Seed
	// Token, when set, is required as a bearer token on REST calls and on
	// the STOMP CONNECT frame.
	Token string
	// Topic is the per-user destination template; "{user_id}" is replaced.
	Topic  string
	Logger zerolog.Logger
	Now    func() time.Time
}

// Server is the dev backend.
type Server struct {
	echo   *echo.Echo
	mem    *memory
	broker *Broker
	topic  string
	log    zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	faults map[string][]int
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

// New creates a server over opts.Seed.
func New(opts Options) *Server {
	if opts.Topic == "" {
		opts.Topic = push.DefaultTopic
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New()}

	s := &Server{
		echo:   e,
		mem:    newMemory(opts.Seed),
		broker: newBroker(opts.Token, opts.Logger),
		topic:  opts.Topic,
		log:    opts.Logger,
		now:    opts.Now,
		faults: make(map[string][]int),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Err(v.Error).
				Msg("request")
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ws", s.broker.Handle)

	api := e.Group("/api")
	api.Use(s.injectFaults)
	if opts.Token != "" {
		api.Use(middleware.KeyAuth(func(key string, _ echo.Context) (bool, error) {
			return key == opts.Token, nil
		}))
	}
	s.registerNotificationRoutes(api)
	s.registerReelRoutes(api)
	api.POST("/dev/notify/:userId", s.Notify)

	return s
}

// Handler returns the HTTP handler, for httptest servers.
func (s *Server) Handler() http.Handler { return s.echo }

// Broker returns the push broker.
func (s *Server) Broker() *Broker { return s.broker }

// Destination returns the push topic for userID.
func (s *Server) Destination(userID string) string {
	return strings.ReplaceAll(s.topic, "{user_id}", userID)
}

// FailNext makes the next request matching method and path answer with
// status instead of being handled. Calls queue up.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.faults[key] = append(s.faults[key], status)
}

func (s *Server) injectFaults(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Method + " " + c.Request().URL.Path
		s.mu.Lock()
		queued := s.faults[key]
		var status int
		if len(queued) > 0 {
			status = queued[0]
			s.faults[key] = queued[1:]
		}
		s.mu.Unlock()
		if status != 0 {
			return echo.NewHTTPError(status, "injected failure")
		}
		return next(c)
	}
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("dev server listening")
		errc <- s.echo.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.broker.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

func (s *Server) publish(ctx context.Context, userID string, env push.Envelope) {
	dest := s.Destination(userID)
	n, err := s.broker.Publish(ctx, dest, env)
	if err != nil {
		s.log.Warn().Err(err).Str("type", env.Type).Msg("publish failed")
		return
	}
	s.log.Debug().Str("type", env.Type).Str("destination", dest).Int("deliveries", n).Msg("published")
}

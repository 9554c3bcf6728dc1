package commands

import (
	"github.com/colonyops/feedsync/internal/api"
	"github.com/colonyops/feedsync/internal/core/config"
	"github.com/colonyops/feedsync/internal/core/logging"
	"github.com/colonyops/feedsync/internal/push"
)

// newClient builds the REST client for cfg.
func newClient(cfg *config.Config, userAgent string) *api.Client {
	return api.New(api.Options{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		TokenProvider: api.StaticToken(cfg.API.Token),
		UserAgent:     userAgent,
	})
}

// newChannel builds the push channel for cfg, or returns nil when push is
// disabled.
func newChannel(cfg *config.Config) (*push.Channel, error) {
	if !cfg.PushEnabled() {
		return nil, nil
	}
	return push.NewChannel(push.Config{
		URL:            cfg.Push.URL,
		Topic:          cfg.Push.Topic,
		UserID:         cfg.UserID,
		Token:          cfg.API.Token,
		ReconnectDelay: cfg.Push.ReconnectDelay,
		Heartbeat:      cfg.Push.Heartbeat,
	}, push.WithLogger(logging.Component("push")))
}

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/core/logging"
	"github.com/colonyops/feedsync/internal/core/notice"
	"github.com/colonyops/feedsync/internal/core/retry"
	"github.com/colonyops/feedsync/internal/loop"
	"github.com/colonyops/feedsync/internal/push"
	"github.com/colonyops/feedsync/internal/reconcile"
	"github.com/colonyops/feedsync/pkg/iojson"
)

type WatchCmd struct {
	flags *Flags
	once  bool
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application.
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Mirror notifications headlessly as JSON lines",
		UsageText: "feedsync watch [--once]",
		Description: `Loads the notification list, subscribes to push updates and prints one
JSON document per line: the list after every change, engine notices and
connection state transitions.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "once",
				Usage:       "print the first snapshot and exit",
				Destination: &cmd.once,
			},
		},
		Action: cmd.run,
	})
	return app
}

type watchLine struct {
	Kind          string                `json:"kind"`
	Unread        int                   `json:"unread,omitempty"`
	Pending       int                   `json:"pending,omitempty"`
	Notifications []entity.Notification `json:"notifications,omitempty"`
	Level         notice.Level          `json:"level,omitempty"`
	Message       string                `json:"message,omitempty"`
	State         string                `json:"state,omitempty"`
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	if cfg.UserID == "" {
		return errors.New("no user id configured; pass --user-id or set user_id in the config file")
	}

	out := iojson.NewLineWriter(c.Root().Writer)
	write := func(line watchLine) {
		if err := out.Write(line); err != nil {
			log.Error().Err(err).Msg("write watch output")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lp := loop.New(cfg.API.Timeout)
	bus := notice.NewBus(nil)
	bus.Subscribe(func(n notice.Notice) {
		write(watchLine{Kind: "notice", Level: n.Level, Message: n.Message})
	})

	screenID := uuid.NewString()
	ns := reconcile.NewNotificationSession(reconcile.Deps{
		Runner:          lp,
		Retry:           retry.NewManager(cfg.Retry.MaxAttempts, cfg.Retry.Delay),
		Notices:         bus,
		Logger:          logging.Screen("watch", screenID),
		UserID:          cfg.UserID,
		RefreshInterval: cfg.Sync.RefreshInterval,
	}, newClient(cfg, "feedsync-watch"))

	var runErr error
	ns.OnChange(func() {
		if ns.Loading() {
			return
		}
		if cmd.once && !ns.Loaded() {
			runErr = fmt.Errorf("load notifications: %w", ns.LastError())
			cancel()
			return
		}
		write(watchLine{
			Kind:          "notifications",
			Unread:        ns.UnreadCount(),
			Pending:       ns.Pending(),
			Notifications: ns.Items(),
		})
		if cmd.once {
			cancel()
		}
	})

	var ch *push.Channel
	if !cmd.once {
		var err error
		if ch, err = newChannel(cfg); err != nil {
			return fmt.Errorf("push channel: %w", err)
		}
	}
	if ch != nil {
		ch.OnState(func(s push.State) {
			write(watchLine{Kind: "connection", State: s.String()})
		})
	}

	lp.Post(func() {
		ns.Load()
		if ch != nil {
			ns.Attach(ch)
		}
	})

	lp.Run(ctx)
	ns.Unmount()
	return runErr
}

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/feedsync/internal/core/logging"
	"github.com/colonyops/feedsync/internal/devserver"
	"github.com/colonyops/feedsync/pkg/iojson"
)

type DevServerCmd struct {
	flags *Flags
	addr  string
	token string
	every time.Duration
	seed  *iojson.FileReader[devserver.Seed]
}

// NewDevServerCmd creates a new devserver command
func NewDevServerCmd(flags *Flags) *DevServerCmd {
	return &DevServerCmd{
		flags: flags,
		seed:  iojson.NewFileReader[devserver.Seed]("seed", "JSON file with notifications and reels"),
	}
}

// Register adds the devserver command to the application.
func (cmd *DevServerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "devserver",
		Usage:     "Run an in-memory backend with a STOMP push broker",
		UsageText: "feedsync devserver [--addr :8080] [--seed file.json] [--emit-every 30s]",
		Description: `Serves the notification and reel REST routes plus a STOMP broker at /ws.
POST /api/dev/notify/{userId} with {"message": "..."} pushes a new
notification to that user.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       ":8080",
				Sources:     cli.EnvVars("FEEDSYNC_DEVSERVER_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.StringFlag{
				Name:        "token",
				Usage:       "require this bearer token on REST calls and STOMP CONNECT",
				Destination: &cmd.token,
			},
			&cli.DurationFlag{
				Name:        "emit-every",
				Usage:       "push a demo notification to the configured user at this interval (0 disables)",
				Destination: &cmd.every,
			},
			cmd.seed.Flag(),
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DevServerCmd) run(ctx context.Context, _ *cli.Command) error {
	seed := devserver.DefaultSeed(time.Now())
	if cmd.seed.Provided() {
		var err error
		if seed, err = cmd.seed.Read(); err != nil {
			return fmt.Errorf("read seed: %w", err)
		}
	}

	srv := devserver.New(devserver.Options{
		Seed:   seed,
		Token:  cmd.token,
		Topic:  cmd.flags.Config.Push.Topic,
		Logger: logging.Component("devserver"),
	})

	if cmd.every > 0 {
		userID := cmd.flags.Config.UserID
		if userID == "" {
			userID = "1"
		}
		go cmd.emit(ctx, srv, userID)
	}

	return srv.ListenAndServe(ctx, cmd.addr)
}

func (cmd *DevServerCmd) emit(ctx context.Context, srv *devserver.Server, userID string) {
	t := time.NewTicker(cmd.every)
	defer t.Stop()
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sent := srv.Emit(ctx, devserver.Notification{
				UserID:  userID,
				Type:    "SYSTEM",
				Message: fmt.Sprintf("demo notification #%d", n),
			})
			log.Debug().Str("id", sent.ID).Msg("emitted demo notification")
		}
	}
}

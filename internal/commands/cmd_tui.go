package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/feedsync/internal/core/config"
	"github.com/colonyops/feedsync/internal/core/logging"
	"github.com/colonyops/feedsync/internal/tui"
	"github.com/colonyops/feedsync/pkg/profiler"
)

type TuiCmd struct {
	flags *Flags
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{flags: flags}
}

// Register adds the tui command to the application.
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "tui",
		Usage:  "Open the notifications and reels screens",
		Flags:  cmd.Flags(),
		Action: cmd.run,
	})
	return app
}

// Flags returns the TUI-specific flags for registration on the root command
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "profiler-port",
			Usage:       "enable pprof HTTP endpoint on specified port (e.g., 6060)",
			Sources:     cli.EnvVars("FEEDSYNC_PROFILER_PORT"),
			Destination: &cmd.flags.ProfilerPort,
		},
	}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the TUI needs an interactive terminal; use 'feedsync watch' for headless output")
	}
	cfg := cmd.flags.Config
	if cfg.UserID == "" {
		return errors.New("no user id configured; pass --user-id or set user_id in the config file")
	}

	if cmd.flags.ProfilerPort > 0 {
		profServer := profiler.New(cmd.flags.ProfilerPort)
		if err := profServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := profServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
		log.Info().
			Str("url", fmt.Sprintf("http://%s/debug/pprof/", profServer.Addr())).
			Msg("profiler endpoint available")
	}

	client := newClient(cfg, "feedsync-tui")
	opts := tui.Options{
		Config:        cfg,
		Notifications: client,
		Reels:         client,
	}

	ch, err := newChannel(cfg)
	if err != nil {
		return fmt.Errorf("push channel: %w", err)
	}
	if ch != nil {
		opts.Push = ch
		opts.Connection = ch
	}

	if w, err := config.NewWatcher(cmd.flags.ConfigPath, logging.Component("config")); err != nil {
		log.Warn().Err(err).Msg("config hot reload disabled")
	} else {
		defer func() { _ = w.Close() }()
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		opts.Reloads = w.Watch(watchCtx)
	}

	return tui.New(opts).Run(ctx)
}

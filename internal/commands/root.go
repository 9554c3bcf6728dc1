package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/feedsync/internal/core/config"
	"github.com/colonyops/feedsync/internal/core/logging"
	"github.com/colonyops/feedsync/pkg/logutils"
)

// NewRoot builds the feedsync command tree. The TUI is the default action.
func NewRoot(flags *Flags, version string) *cli.Command {
	var logCloser func()

	app := &cli.Command{
		Name:      "feedsync",
		Usage:     "Live notifications and reels in the terminal",
		UsageText: "feedsync [global options] command [command options]",
		Description: `feedsync mirrors a user's notifications and reel feed, keeps them current
over a STOMP push channel and applies likes, reads and deletes optimistically.

Run 'feedsync' with no arguments to open the interactive screens.
Run 'feedsync devserver' for a local backend to point it at.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("FEEDSYNC_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (the TUI prints buffered warnings on exit without one)",
				Sources:     cli.EnvVars("FEEDSYNC_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("FEEDSYNC_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "extra KEY=VALUE file applied over the config file",
				Sources:     cli.EnvVars("FEEDSYNC_ENV_FILE"),
				Destination: &flags.EnvFile,
			},
			&cli.StringFlag{
				Name:        "user-id",
				Aliases:     []string{"u"},
				Usage:       "user whose notifications and likes are shown",
				Destination: &flags.UserID,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := config.LoadEnvFiles(false, flags.EnvFile); err != nil {
				return ctx, err
			}

			out := logutils.OutputStderrConsole
			if isTUI(c) {
				out = logutils.OutputDeferred
			}
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile, out)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			cfg.ApplyEnv(os.LookupEnv)
			if flags.UserID != "" {
				cfg.UserID = flags.UserID
			}
			flags.Config = cfg

			log.Debug().Str("config", flags.ConfigPath).Bool("push", cfg.PushEnabled()).Msg("config loaded")
			return logging.WithUserID(ctx, cfg.UserID), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := NewTuiCmd(flags)

	app = tuiCmd.Register(app)
	app = NewWatchCmd(flags).Register(app)
	app = NewDevServerCmd(flags).Register(app)
	app = NewConfigValidateCmd(flags).Register(app)

	// Register TUI flags on root command
	app.Flags = append(app.Flags, tuiCmd.Flags()...)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'feedsync --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	return app
}

// isTUI reports whether the invocation opens the terminal UI, which owns
// the terminal while it runs.
func isTUI(c *cli.Command) bool {
	args := c.Args()
	return args.Len() == 0 || args.First() == "tui"
}

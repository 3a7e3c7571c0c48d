package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/artisanhosting/artisan-cli/internal/app"
	"github.com/artisanhosting/artisan-cli/internal/observability"
	"github.com/artisanhosting/artisan-cli/internal/session"
)

const telemetryShutdownTimeout = 5 * time.Second

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return newRootCommand().Run(ctx, args)
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "artisan",
		Usage: "Artisan Hosting command line client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: app.DefaultConfigLogLevel.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "telemetry--exporter",
				Usage: "OpenTelemetry log exporter (none|stdout|otlphttp|otlpgrpc)",
				Value: app.DefaultConfigTelemetryExporter,
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "API base URL",
				Value: app.DefaultConfigAPIBaseURL,
			},
			&cli.DurationFlag{
				Name:  "api--timeout",
				Usage: "timeout for each API request",
				Value: app.DefaultConfigAPITimeout,
			},
			&cli.StringFlag{
				Name:  "state--dir",
				Usage: "directory holding the session and credentials files (default ~/" + app.DefaultConfigStateDirName + ")",
			},
		},
		Commands: []*cli.Command{
			authCommand(),
		},
	}
}

// action loads configuration, sets up logging and builds the App before
// handing over to run.
func action(run func(ctx context.Context, cmd *cli.Command, application *app.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		shutdown, err := observability.Instrument(ctx, cfg.LogLevel, string(cfg.LogFormat), cfg.Telemetry.Exporter)
		if err != nil {
			return fmt.Errorf("failed to set up observability layer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
			defer cancel()
			if shutdownErr := shutdown(shutdownCtx); shutdownErr != nil {
				slog.ErrorContext(shutdownCtx, "telemetry shutdown failed", "error", shutdownErr)
			}
		}()

		application, err := app.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create app: %w", err)
		}

		if err := run(ctx, cmd, application); err != nil {
			return explain(err)
		}
		return nil
	}
}

// explain adds a remedy to errors the user can resolve by logging in.
func explain(err error) error {
	switch {
	case errors.Is(err, session.ErrMissingToken):
		return fmt.Errorf("%w: run 'artisan auth login <email>' first", err)
	case errors.Is(err, session.ErrFatal):
		return fmt.Errorf("%w; run 'artisan auth login <email>' to sign in again", err)
	default:
		return err
	}
}

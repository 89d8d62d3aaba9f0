package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/CDNAtlas/internal/app"
	"github.com/turtacn/CDNAtlas/internal/config"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
)

// NewServeCmd starts the HTTP API.
func NewServeCmd() *cobra.Command {
	var (
		host  string
		port  int
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := *cliCtx.Config
			if host != "" {
				cfg.Server.Host = host
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			// The server logs in the configured format, not the CLI console.
			logger, err := logging.NewLogger(cfg.Log.Logging())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, &cfg, cliCtx.ConfigPath, watch, logger)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	cmd.Flags().BoolVar(&watch, "watch-config", true, "reload the log level when the config file changes")
	return cmd
}

// Serve builds the application and runs the HTTP API until ctx is
// cancelled.  When configPath is set and watch is true, log level changes in
// the file apply without a restart.
func Serve(ctx context.Context, cfg *config.Config, configPath string, watch bool, logger logging.Logger) error {
	app.Version = Version
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Warn("shutdown incomplete", logging.Err(err))
		}
	}()

	logger.Info("starting CDNAtlas API server",
		logging.String("version", Version),
		logging.String("addr", cfg.Server.Addr()),
		logging.String("dataset", a.Report.Source),
		logging.Int("relations", len(a.Dataset.Relations)),
		logging.Int("skipped", len(a.Report.Skipped)),
	)

	if watch && configPath != "" {
		err := config.Watch(configPath, func(next *config.Config) {
			level, err := logging.ParseLevel(next.Log.Level)
			if err != nil {
				return
			}
			logging.SetLevel(logger, level)
			logger.Info("log level reloaded", logging.String("level", level.String()))
		}, func(err error) {
			logger.Warn("ignoring invalid config revision", logging.Err(err))
		})
		if err != nil {
			logger.Warn("config watch disabled", logging.Err(err))
		}
	}

	return a.Serve(ctx)
}

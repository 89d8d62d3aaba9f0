// Command apiserver serves the CDNAtlas HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/CDNAtlas/internal/config"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/internal/interfaces/cli"
)

const defaultConfigPath = "configs/config.yaml"

// Build-time variables injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	datasetPath := flag.String("dataset", "", "dataset file (overrides dataset.path)")
	port := flag.Int("port", 0, "HTTP port (overrides server.port)")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	// A missing default config file falls back to environment and defaults.
	path := *configPath
	if _, err := os.Stat(path); err != nil && path == defaultConfigPath {
		path = ""
	}
	cfg, err := config.LoadOrEnv(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *datasetPath != "" {
		cfg.Dataset.Path = *datasetPath
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log.Logging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	cli.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Serve(ctx, cfg, path, true, logger); err != nil {
		logger.Error("server exited with error", logging.Err(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("server stopped")
}

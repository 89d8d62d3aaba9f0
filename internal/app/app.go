// Package app wires configuration, observability, the dataset, the layer
// cache and the atlas service into a runnable process.  The CLI and the
// apiserver binary share it.
package app

import (
	"context"
	stderrors "errors"
	"io/fs"
	"net/http"
	"os"

	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/CDNAtlas/internal/application/atlas"
	"github.com/turtacn/CDNAtlas/internal/config"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/cache"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/dataset"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/tracing"
	httpserver "github.com/turtacn/CDNAtlas/internal/interfaces/http"
	"github.com/turtacn/CDNAtlas/internal/interfaces/http/handlers"
	"github.com/turtacn/CDNAtlas/internal/interfaces/http/middleware"
)

// Version is reported by the health endpoints.  Overridden at build time.
var Version = "dev"

// App holds the long-lived components of a CDNAtlas process.
type App struct {
	Config    *config.Config
	Logger    logging.Logger
	Dataset   *dataset.Dataset
	Report    *dataset.LoadReport
	Service   atlas.Service
	Metrics   *prometheus.AppMetrics
	Collector prometheus.MetricsCollector
	Tracer    trace.Tracer

	closers []func(context.Context) error
}

// New builds an App from cfg.  On error every component created so far is
// closed.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (_ *App, err error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: prometheus.NewNoopAppMetrics()}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	if cfg.Metrics.Enabled {
		a.Collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
			EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.Metrics = prometheus.NewAppMetrics(a.Collector)
	}

	tp, shutdown, err := tracing.Init(ctx, cfg.Tracing.Tracing(), logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdown)
	a.Tracer = tracing.Tracer(tp)

	a.Dataset, a.Report, err = loadDataset(ctx, cfg.Dataset, logger, a.Metrics)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return c.Close() })

	a.Service, err = atlas.NewService(atlas.Deps{
		Dataset: a.Dataset,
		Cache:   cache.NewReadThrough(c, "layer", cfg.Cache.TTL, logger, a.Metrics),
		Logger:  logger,
		Metrics: a.Metrics,
		Tracer:  a.Tracer,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// loadDataset reads the configured dataset.  When the configured path is the
// default and no such file exists, the embedded sample is used instead.
func loadDataset(ctx context.Context, cfg config.DatasetConfig, logger logging.Logger, metrics *prometheus.AppMetrics) (*dataset.Dataset, *dataset.LoadReport, error) {
	path := cfg.Path
	if path == config.DefaultDatasetPath {
		if _, err := os.Stat(path); stderrors.Is(err, fs.ErrNotExist) {
			logger.Warn("default dataset not found, using embedded sample", logging.String("path", path))
			path = dataset.SampleSource
		}
	}
	loader := dataset.NewLoader(dataset.Options{Format: cfg.Format, Strict: cfg.Strict}, logger, metrics)
	return loader.Load(ctx, path)
}

// Router builds the HTTP route tree over the App's service.
func (a *App) Router() http.Handler {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = a.Config.Server.CORSOrigins

	rc := httpserver.RouterConfig{
		AtlasHandler:      handlers.NewAtlasHandler(a.Service, a.Logger),
		HealthHandler:     handlers.NewHealthHandler(Version, handlers.NewCheckFunc("atlas", a.Service.Ready)),
		CORSMiddleware:    middleware.NewCORSMiddleware(cors),
		LoggingMiddleware: middleware.NewLoggingMiddleware(a.Logger, middleware.DefaultLoggingConfig()),
		Metrics:           a.Metrics,
		RequestTimeout:    a.Config.Server.RequestTimeout,
	}
	if a.Collector != nil {
		rc.MetricsCollector = a.Collector
		rc.MetricsPath = a.Config.Metrics.Path
	}
	return httpserver.NewRouter(rc)
}

// Serve runs the HTTP API until ctx is cancelled, then drains it.
func (a *App) Serve(ctx context.Context) error {
	srv := httpserver.NewServer(a.Config.Server, a.Router(), a.Logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if err := srv.Stop(context.Background()); err != nil {
		return err
	}
	return <-errCh
}

// Close releases components in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}

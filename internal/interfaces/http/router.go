package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CDNAtlas/internal/interfaces/http/handlers"
	"github.com/turtacn/CDNAtlas/internal/interfaces/http/middleware"
)

// DefaultMetricsPath is where the Prometheus scrape endpoint is mounted when
// RouterConfig.MetricsPath is empty.
const DefaultMetricsPath = "/metrics"

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	AtlasHandler  *handlers.AtlasHandler
	HealthHandler *handlers.HealthHandler

	// Middleware
	CORSMiddleware    *middleware.CORSMiddleware
	LoggingMiddleware *middleware.LoggingMiddleware

	// Infrastructure
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
	RequestTimeout   time.Duration
}

// NewRouter constructs the complete HTTP route tree from the given
// configuration.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.CORSMiddleware != nil {
		r.Use(cfg.CORSMiddleware.Handler)
	}
	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware.Handler)
	}

	// --- Health ---
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = DefaultMetricsPath
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.RequestTimeout > 0 {
			api.Use(chimw.Timeout(cfg.RequestTimeout))
		}
		if cfg.AtlasHandler != nil {
			cfg.AtlasHandler.RegisterRoutes(api)
		}
	})

	return r
}

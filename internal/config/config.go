// Package config defines the CDNAtlas configuration structures, their
// defaults and validation, and the viper-based loader.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/tracing"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatasetConfig locates the static dataset.
type DatasetConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"` // "auto" | "json" | "yaml"
	// Strict rejects the whole dataset on the first invalid record instead of
	// skipping it.
	Strict bool `mapstructure:"strict"`
}

// RedisConfig holds Redis connection parameters for the layer cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// CacheConfig selects and tunes the computed-layer cache.
type CacheConfig struct {
	Backend    string        `mapstructure:"backend"` // "memory" | "redis" | "none"
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string   `mapstructure:"format"` // "json" | "console"
	Output []string `mapstructure:"output"`
}

// Logging converts to the logging package's configuration.
func (l LogConfig) Logging() logging.LogConfig {
	return logging.LogConfig{
		Level:       logging.Level(strings.ToLower(l.Level)),
		Format:      l.Format,
		OutputPaths: l.Output,
	}
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Namespace            string `mapstructure:"namespace"`
	Path                 string `mapstructure:"path"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"` // "stdout" | "none"
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Tracing converts to the tracing package's configuration.
func (t TracingConfig) Tracing() tracing.Config {
	return tracing.Config{
		Enabled:     t.Enabled,
		ServiceName: t.ServiceName,
		Exporter:    t.Exporter,
		SampleRatio: t.SampleRatio,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Dataset DatasetConfig `mapstructure:"dataset"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate returns the first semantic error in c.  It expects ApplyDefaults
// to have run.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.MaxBodySize < 0 {
		return fmt.Errorf("config: server.max_body_size must be ≥ 0, got %d", c.Server.MaxBodySize)
	}

	// Dataset
	switch c.Dataset.Format {
	case "auto", "json", "yaml":
	default:
		return fmt.Errorf("config: dataset.format %q is invalid; expected auto|json|yaml", c.Dataset.Format)
	}

	// Cache
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("config: cache.redis.addr is required when cache.backend is redis")
		}
		if c.Cache.Redis.DB < 0 {
			return fmt.Errorf("config: cache.redis.db must be ≥ 0, got %d", c.Cache.Redis.DB)
		}
	default:
		return fmt.Errorf("config: cache.backend %q is invalid; expected memory|redis|none", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("config: cache.ttl must be ≥ 0, got %s", c.Cache.TTL)
	}

	// Log
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}

	// Tracing
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("config: tracing.sample_ratio %v is out of range [0, 1]", c.Tracing.SampleRatio)
	}
	switch c.Tracing.Exporter {
	case tracing.ExporterStdout, tracing.ExporterNone:
	default:
		return fmt.Errorf("config: tracing.exporter %q is invalid; expected stdout|none", c.Tracing.Exporter)
	}

	return nil
}

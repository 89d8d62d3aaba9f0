package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
)

func validConfig() *Config {
	return DefaultConfig()
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port low", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"body size", func(c *Config) { c.Server.MaxBodySize = -1 }, "max_body_size"},
		{"dataset format", func(c *Config) { c.Dataset.Format = "csv" }, "dataset.format"},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"redis addr", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.Redis.Addr = "" }, "cache.redis.addr"},
		{"redis db", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.Redis.DB = -1 }, "cache.redis.db"},
		{"cache ttl", func(c *Config) { c.Cache.TTL = -time.Second }, "cache.ttl"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "text" }, "log.format"},
		{"metrics namespace", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Namespace = "" }, "metrics.namespace"},
		{"sample ratio", func(c *Config) { c.Tracing.SampleRatio = 1.5 }, "sample_ratio"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			err := c.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.want)
			}
		})
	}
}

func TestValidate_RedisBackend(t *testing.T) {
	c := validConfig()
	c.Cache.Backend = "redis"
	assert.NoError(t, c.Validate())
}

func TestServerConfig_Addr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:9000", ServerConfig{Host: "127.0.0.1", Port: 9000}.Addr())
}

func TestLogConfig_Logging(t *testing.T) {
	lc := LogConfig{Level: "DEBUG", Format: "console", Output: []string{"stderr"}}.Logging()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, "console", lc.Format)
	assert.Equal(t, []string{"stderr"}, lc.OutputPaths)
}

func TestTracingConfig_Tracing(t *testing.T) {
	tc := TracingConfig{Enabled: true, ServiceName: "svc", Exporter: "none", SampleRatio: 0.5}.Tracing()
	assert.True(t, tc.Enabled)
	assert.Equal(t, "svc", tc.ServiceName)
	assert.Equal(t, "none", tc.Exporter)
	assert.Equal(t, 0.5, tc.SampleRatio)
}

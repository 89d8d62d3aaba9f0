package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  mode: debug
  request_timeout: 2s
dataset:
  path: "testdata/dataset.yaml"
  format: yaml
cache:
  backend: redis
  ttl: 30s
  redis:
    addr: "redis:6379"
    db: 2
log:
  level: debug
  format: console
metrics:
  enabled: true
  namespace: atlas
tracing:
  enabled: true
  exporter: none
  sample_ratio: 0.25
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "testdata/dataset.yaml", cfg.Dataset.Path)
	assert.Equal(t, "yaml", cfg.Dataset.Format)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.Equal(t, DefaultRedisKeyPrefix, cfg.Cache.Redis.KeyPrefix)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "atlas", cfg.Metrics.Namespace)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRatio)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("CDNATLAS_SERVER_PORT", "7070")
	t.Setenv("CDNATLAS_CACHE_REDIS_ADDR", "cache:6380")
	t.Setenv("CDNATLAS_LOG_LEVEL", "warn")

	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "cache:6380", cfg.Cache.Redis.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "server:\n  mode: production\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "server: [unclosed\n"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CDNATLAS_DATASET_PATH", "/data/atlas.json")
	t.Setenv("CDNATLAS_CACHE_BACKEND", "none")
	t.Setenv("CDNATLAS_TRACING_SAMPLE_RATIO", "0.5")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/data/atlas.json", cfg.Dataset.Path)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, 0.5, cfg.Tracing.SampleRatio)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadOrEnv(t *testing.T) {
	cfg, err := LoadOrEnv("")
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)

	cfg, err = LoadOrEnv(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CDNATLAS_TEST_DOTENV=from-file\nCDNATLAS_TEST_PRESET=from-file\n"), 0o644))

	t.Setenv("CDNATLAS_TEST_PRESET", "from-env")
	t.Setenv("CDNATLAS_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("CDNATLAS_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "absent.env")))
	assert.Equal(t, "from-file", os.Getenv("CDNATLAS_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("CDNATLAS_TEST_PRESET"))
}

func TestLoadDotEnv_NothingPresent(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	changed := make(chan *Config, 16)

	require.NoError(t, Watch(path, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	}, nil))

	updated := strings.Replace(validConfigYAML, "level: debug", "level: error", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	// A rewrite can surface as several events; wait for the final content.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.Log.Level == "error" {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestWatch_MissingFile(t *testing.T) {
	assert.Error(t, Watch(filepath.Join(t.TempDir(), "missing.yaml"), func(*Config) {}, nil))
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultDatasetPath, cfg.Dataset.Path)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Tracing.Enabled)
}

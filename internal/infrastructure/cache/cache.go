// Package cache stores computed arc layers and statistics so repeated map
// interactions with the same filter do not recompute geometry.  Backends are
// in-process memory, Redis, or none; ReadThrough adds request coalescing on
// top of any of them.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/turtacn/CDNAtlas/internal/config"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/pkg/errors"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

// Cache is a key/value store of JSON-serialisable values.
type Cache interface {
	// Get decodes the value stored at key into dest, or returns ErrCacheMiss.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores value at key.  A zero ttl uses the backend default.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// Serializer converts values to and from their stored form.
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type jsonSerializer struct{}

func (jsonSerializer) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonSerializer) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// New builds the backend selected by cfg.  The redis backend pings the server
// before returning.
func New(ctx context.Context, cfg config.CacheConfig, log logging.Logger) (Cache, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryCache(cfg.MaxEntries, cfg.TTL), nil
	case BackendRedis:
		rdb, err := NewRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		return NewRedisCache(rdb, log, WithPrefix(cfg.Redis.KeyPrefix), WithDefaultTTL(cfg.TTL)), nil
	case BackendNone:
		return NewNoopCache(), nil
	}
	return nil, errors.Newf(errors.ErrCodeValidation, "unknown cache backend %q", cfg.Backend)
}

// ─────────────────────────────────────────────────────────────────────────────
// Noop
// ─────────────────────────────────────────────────────────────────────────────

type noopCache struct{}

// NewNoopCache returns a Cache that never stores anything.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string, interface{}) error { return ErrCacheMiss }
func (noopCache) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}
func (noopCache) Delete(context.Context, ...string) error { return nil }
func (noopCache) Ping(context.Context) error              { return nil }
func (noopCache) Close() error                            { return nil }

// Key joins parts into a cache key.
func Key(namespace string, parts ...interface{}) string {
	k := namespace
	for _, p := range parts {
		k += fmt.Sprintf(":%v", p)
	}
	return k
}

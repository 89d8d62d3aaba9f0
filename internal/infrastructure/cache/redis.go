package cache

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/CDNAtlas/internal/config"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/pkg/errors"
)

var ErrConnectionFailed = errors.New(errors.ErrCodeServiceUnavailable, "redis connection failed")

// NewRedisClient dials Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log logging.Logger) (redis.UniversalClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		log.Error("redis ping failed", logging.String("addr", cfg.Addr), logging.Err(err))
		return nil, ErrConnectionFailed.WithCause(err).WithDetail(cfg.Addr)
	}
	log.Info("redis connected", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return rdb, nil
}

type redisCache struct {
	client     redis.UniversalClient
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	serializer Serializer
	jitter     bool
}

type RedisOption func(*redisCache)

func WithPrefix(prefix string) RedisOption {
	return func(c *redisCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) RedisOption {
	return func(c *redisCache) { c.defaultTTL = ttl }
}

func WithSerializer(s Serializer) RedisOption {
	return func(c *redisCache) { c.serializer = s }
}

// WithoutJitter stores entries with their exact TTL.
func WithoutJitter() RedisOption {
	return func(c *redisCache) { c.jitter = false }
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient, log logging.Logger, opts ...RedisOption) Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &redisCache{
		client:     client,
		logger:     log,
		prefix:     config.DefaultRedisKeyPrefix,
		defaultTTL: config.DefaultCacheTTL,
		serializer: jsonSerializer{},
		jitter:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisCache) fullKey(key string) string {
	return c.prefix + key
}

// jitterTTL spreads expiries by ±10% so a burst of identical writes does not
// expire at once.
func (c *redisCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || !c.jitter {
		return ttl
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	if err := c.serializer.Unmarshal(data, dest); err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache")
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete from cache")
	}
	return nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis ping failed")
	}
	return nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

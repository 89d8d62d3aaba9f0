package cache

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/prometheus"
)

// LoadFunc computes a value on a cache miss.
type LoadFunc func(ctx context.Context) (interface{}, error)

// ReadThrough serves values from a Cache and computes misses once per key
// even under concurrent callers.  Backend failures are logged, counted and
// bypassed: a broken cache degrades to recomputation, never to an error.
type ReadThrough struct {
	cache   Cache
	name    string
	ttl     time.Duration
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	group   singleflight.Group
}

// NewReadThrough wraps c.  name labels the cache metrics.
func NewReadThrough(c Cache, name string, ttl time.Duration, log logging.Logger, metrics *prometheus.AppMetrics) *ReadThrough {
	if c == nil {
		c = NewNoopCache()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	return &ReadThrough{
		cache:   c,
		name:    name,
		ttl:     ttl,
		logger:  log.Named("cache").With(logging.String("cache", name)),
		metrics: metrics,
	}
}

// Cache returns the wrapped backend.
func (r *ReadThrough) Cache() Cache { return r.cache }

// Fetch decodes the value for key into dest, calling load on a miss.  hit
// reports whether the value came from the cache.
func (r *ReadThrough) Fetch(ctx context.Context, key string, dest interface{}, load LoadFunc) (hit bool, err error) {
	err = r.cache.Get(ctx, key, dest)
	switch {
	case err == nil:
		prometheus.RecordCacheAccess(r.metrics, r.name, true)
		return true, nil
	case stderrors.Is(err, ErrCacheMiss):
	case ctx.Err() != nil:
		return false, ctx.Err()
	default:
		prometheus.RecordCacheError(r.metrics, r.name, "get")
		r.logger.Warn("cache get failed, recomputing", logging.String("key", key), logging.Err(err))
	}
	prometheus.RecordCacheAccess(r.metrics, r.name, false)

	if err := ctx.Err(); err != nil {
		return false, err
	}
	// load runs detached from the caller's cancellation; each caller waits
	// only on its own ctx.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		v, loadErr := load(loadCtx)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := r.cache.Set(loadCtx, key, v, r.ttl); setErr != nil {
			prometheus.RecordCacheError(r.metrics, r.name, "set")
			r.logger.Warn("cache set failed", logging.String("key", key), logging.Err(setErr))
		}
		return v, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	if res.Err != nil {
		return false, res.Err
	}
	if res.Shared {
		r.logger.Debug("coalesced load", logging.String("key", key))
	}
	val := res.Val

	data, err := jsonSerializer{}.Marshal(val)
	if err != nil {
		return false, ErrSerializationFailed.WithCause(err)
	}
	if err := (jsonSerializer{}).Unmarshal(data, dest); err != nil {
		return false, ErrSerializationFailed.WithCause(err)
	}
	return false, nil
}

// Invalidate drops keys from the backend.
func (r *ReadThrough) Invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Delete(ctx, keys...); err != nil {
		prometheus.RecordCacheError(r.metrics, r.name, "delete")
		r.logger.Warn("cache delete failed", logging.Err(err))
	}
}

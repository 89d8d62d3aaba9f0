package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// memoryCache is a bounded LRU with per-entry expiry.  Values are stored
// serialised so callers never share mutable state with the cache.
type memoryCache struct {
	mu         sync.Mutex
	maxEntries int
	defaultTTL time.Duration
	order      *list.List
	items      map[string]*list.Element
	serializer Serializer
	now        func() time.Time
}

// NewMemoryCache creates an in-process cache.  maxEntries <= 0 means
// unbounded; defaultTTL <= 0 means entries never expire.
func NewMemoryCache(maxEntries int, defaultTTL time.Duration) Cache {
	return newMemoryCache(maxEntries, defaultTTL)
}

func newMemoryCache(maxEntries int, defaultTTL time.Duration) *memoryCache {
	return &memoryCache{
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		serializer: jsonSerializer{},
		now:        time.Now,
	}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	el, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return ErrCacheMiss
	}
	e := el.Value.(*memoryEntry)
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.removeElement(el)
		c.mu.Unlock()
		return ErrCacheMiss
	}
	c.order.MoveToFront(el)
	data := e.data
	c.mu.Unlock()

	return c.serializer.Unmarshal(data, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*memoryEntry)
		e.data, e.expiresAt = data, expiresAt
		c.order.MoveToFront(el)
		return nil
	}
	c.items[key] = c.order.PushFront(&memoryEntry{key: key, data: data, expiresAt: expiresAt})
	for c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		c.removeElement(c.order.Back())
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if el, ok := c.items[k]; ok {
			c.removeElement(el)
		}
	}
	return nil
}

func (c *memoryCache) Ping(context.Context) error { return nil }

func (c *memoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
	return nil
}

// Len reports the number of stored entries, including expired ones not yet
// evicted.
func (c *memoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// caller holds c.mu
func (c *memoryCache) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*memoryEntry).key)
}

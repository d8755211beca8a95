// Package querycache is a keyed read-through cache for store results.
// Concurrent reads of the same key share one fetch, fetch failures are
// retried a fixed number of times, and writers invalidate the keys they
// touched so the next read goes back to the source. Errors are never
// cached.
package querycache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchRetries is how many times a failed fetch is retried before the error
// is returned to every waiting caller.
const FetchRetries = 2

// Cache holds fetched values by key until invalidated.
type Cache struct {
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]any
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]any)}
}

// Do returns the cached value for key, or runs fetch to produce it. All
// concurrent callers for the same missing key share a single fetch. The
// fetch is attempted up to 1+FetchRetries times; only a successful result
// is stored.
func (c *Cache) Do(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		var lastErr error
		for attempt := 0; attempt <= FetchRetries; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			v, err := fetch(ctx)
			if err == nil {
				c.mu.Lock()
				c.entries[key] = v
				c.mu.Unlock()
				return v, nil
			}
			lastErr = err
		}
		return nil, lastErr
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Invalidate removes the given keys. Missing keys are ignored, so callers
// can invalidate unconditionally after a write.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// Get is the typed wrapper around Cache.Do. A cached value stored under key
// must always have been produced by a fetch of the same T.
func Get[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	v, err := c.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

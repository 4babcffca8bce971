package locator

import (
	"context"
	"sync"
)

// Cache memoizes floor lookups: requested id to registered version.
//
// Keys have the form "<interface>_<id>".
type Cache interface {
	// Get returns the cached version and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryCache is an in-process Cache. It is safe for concurrent use.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]string
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: map[string]string{}}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.items[key]
	return v, ok, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = value
	return nil
}

// Len returns the number of cached keys.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Clear drops every cached key.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = map[string]string{}
}

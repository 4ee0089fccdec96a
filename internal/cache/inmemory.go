package cache

import (
	"context"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 1 * time.Hour

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache.
// Instances are not shared: every owner builds its own so entries never leak across runs.
type InMemoryCache struct {
	cache *goCache.Cache
}

// NewInMemoryCache creates a new InMemoryCache instance.
// A zero expiration keeps entries for the lifetime of the cache.
func NewInMemoryCache(expiration time.Duration) *InMemoryCache {
	if expiration <= 0 {
		return &InMemoryCache{cache: goCache.New(goCache.NoExpiration, 0)}
	}
	return &InMemoryCache{cache: goCache.New(expiration, DefaultCleanupInterval)}
}

// Get retrieves a value from the cache
func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.cache.Get(key)
}

// Set adds a value to the cache with the specified expiration
func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	if expiration <= 0 {
		expiration = goCache.DefaultExpiration
	}
	c.cache.Set(key, value, expiration)
}

// ItemCount returns the number of cached entries, expired ones included until cleanup.
func (c *InMemoryCache) ItemCount() int {
	return c.cache.ItemCount()
}

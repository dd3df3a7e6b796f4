package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-memory vector caching with expiry
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get returns a copy of the cached vector
func (c *MemoryCache) Get(key string) ([]float32, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	vec, ok := val.([]float32)
	if !ok {
		return nil, false
	}
	return cloneVector(vec), true
}

// Set stores a copy of vector. A zero ttl uses the cache default.
func (c *MemoryCache) Set(key string, vector []float32, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, cloneVector(vector), ttl)
	return nil
}

// cloneVector keeps callers from mutating cached rows
func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

package cache

import "time"

// LayeredCache checks memory first and falls back to disk
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

// Get retrieves a vector, promoting disk hits into memory
func (c *LayeredCache) Get(key string) ([]float32, bool) {
	if vec, found := c.memory.Get(key); found {
		return vec, true
	}

	if vec, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, vec, 0)
		return vec, true
	}

	return nil, false
}

// Set stores a vector in both layers
func (c *LayeredCache) Set(key string, vector []float32, ttl time.Duration) error {
	if err := c.memory.Set(key, vector, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, vector, ttl)
}

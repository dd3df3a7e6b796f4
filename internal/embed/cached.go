package embed

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/attrib/internal/cache"
)

// CachedEmbedder serves previously computed vectors from a cache and embeds
// only the misses, in one backend call
type CachedEmbedder struct {
	next  Embedder
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedEmbedder wraps next with a vector cache. ttl 0 uses the cache's
// default expiry.
func NewCachedEmbedder(next Embedder, c cache.Cache, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: c, ttl: ttl}
}

// Name returns the wrapped backend's name
func (c *CachedEmbedder) Name() string {
	return c.next.Name()
}

// Embed returns cached vectors where possible
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	// first position of each missing key; duplicates are filled from it
	missing := make(map[string]int)
	var missTexts []string
	var missKeys []string

	for i, text := range texts {
		keys[i] = cache.Key(c.next.Name(), text)
		if vec, found := c.cache.Get(keys[i]); found {
			vectors[i] = vec
			continue
		}
		if _, seen := missing[keys[i]]; !seen {
			missing[keys[i]] = len(missTexts)
			missTexts = append(missTexts, text)
			missKeys = append(missKeys, keys[i])
		}
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	computed, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if err := checkBatch(missTexts, computed); err != nil {
		return nil, err
	}

	for i, key := range missKeys {
		if err := c.cache.Set(key, computed[i], c.ttl); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to cache embedding: %v\n", err)
		}
	}

	for i := range texts {
		if vectors[i] == nil {
			vectors[i] = computed[missing[keys[i]]]
		}
	}

	return vectors, nil
}

// Close closes the wrapped backend if it holds resources
func (c *CachedEmbedder) Close() error {
	if closer, ok := c.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Package cache stores embedding vectors keyed by model and text so repeated
// context ingestion does not pay for the same embedding twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for vector caching
type Cache interface {
	Get(key string) ([]float32, bool)
	Set(key string, vector []float32, ttl time.Duration) error
}

// Key generates a cache key for the embedding of text under a model namespace
// (e.g., "ollama/nomic-embed-text")
func Key(namespace, text string) string {
	hash := sha256.Sum256([]byte(namespace + "\x00" + text))
	return "attrib:v1:" + hex.EncodeToString(hash[:])
}

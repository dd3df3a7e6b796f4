// Package embed computes sentence embeddings for the attribution engine.
//
// Backends (OpenAI-compatible, Ollama, and an offline feature-hashing
// embedder) implement Embedder. The engine never talks to a backend directly:
// it goes through an Index, which acquires the backend in the background and
// makes the first caller wait for it.
package embed

import (
	"context"
	"fmt"
)

// Embedder computes embedding vectors for a batch of texts
type Embedder interface {
	// Name identifies the backend and model (e.g., "ollama/nomic-embed-text")
	Name() string

	// Embed returns exactly one vector per text, in input order. All vectors
	// share the same width.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Loader acquires an Embedder. It may block for a long time (model pull,
// server warm-up) and should honour ctx cancellation.
type Loader func(ctx context.Context) (Embedder, error)

// Static returns a Loader that hands out an already constructed embedder
func Static(e Embedder) Loader {
	return func(ctx context.Context) (Embedder, error) {
		return e, nil
	}
}

// checkBatch verifies that a backend honoured the one-vector-per-text contract
func checkBatch(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("backend returned %d vectors for %d texts", len(vectors), len(texts))
	}

	width := -1
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("backend returned an empty vector at index %d", i)
		}
		if width >= 0 && len(v) != width {
			return fmt.Errorf("vector width mismatch at index %d: %d != %d", i, len(v), width)
		}
		width = len(v)
	}

	return nil
}

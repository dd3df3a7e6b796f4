package embed

import (
	"context"
	"fmt"
	"io"

	"github.com/ppiankov/attrib/internal/worker"
)

// LimitedEmbedder splits large batches into chunks and rate-limits each
// request to the backend's host
type LimitedEmbedder struct {
	next      Embedder
	limiter   *worker.Limiter
	endpoint  string
	batchSize int
}

// NewLimitedEmbedder wraps next. batchSize <= 0 sends everything in one request.
func NewLimitedEmbedder(next Embedder, limiter *worker.Limiter, endpoint string, batchSize int) *LimitedEmbedder {
	return &LimitedEmbedder{
		next:      next,
		limiter:   limiter,
		endpoint:  endpoint,
		batchSize: batchSize,
	}
}

// Name returns the wrapped backend's name
func (l *LimitedEmbedder) Name() string {
	return l.next.Name()
}

// Embed embeds texts chunk by chunk, waiting for the limiter before each call
func (l *LimitedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	size := l.batchSize
	if size <= 0 || size > len(texts) {
		size = len(texts)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}

		if l.limiter != nil {
			if err := l.limiter.Wait(ctx, l.endpoint); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
		}

		chunk, err := l.next.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(chunk) != end-start {
			return nil, fmt.Errorf("backend returned %d vectors for %d texts", len(chunk), end-start)
		}
		vectors = append(vectors, chunk...)
	}

	return vectors, nil
}

// Close closes the wrapped backend if it holds resources
func (l *LimitedEmbedder) Close() error {
	if closer, ok := l.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

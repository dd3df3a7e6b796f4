package embed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/attrib/internal/cache"
	"github.com/ppiankov/attrib/internal/model"
	"github.com/ppiankov/attrib/internal/util"
	"github.com/ppiankov/attrib/internal/worker"
)

// Config holds embedding backend configuration
type Config struct {
	// Provider name: "openai", "ollama", "hash"
	Provider string

	// Model name (provider-specific); empty picks the provider default
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (OpenAI-compatible gateways, remote Ollama)
	BaseURL string

	// Dimensions requests a vector width (OpenAI v3 models, hash embedder)
	Dimensions int

	// BatchSize caps texts per backend request
	BatchSize int

	// Timeout for a single backend request
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout
	HTTPClient *http.Client

	// Cache, when set, serves repeated texts without calling the backend
	Cache    cache.Cache
	CacheTTL time.Duration

	// Limiter, when set, throttles requests per backend host
	Limiter *worker.Limiter
}

// ConfigFromModel converts the application config into an embed.Config,
// wiring the shared HTTP client, vector cache and rate limiter
func ConfigFromModel(cfg *model.Config) Config {
	config := Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
		Timeout:    cfg.Embedding.Timeout,
		HTTPClient: util.NewHTTPClient(cfg.Embedding.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		Limiter:    worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
	}

	if cfg.Cache.Enabled {
		config.Cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		config.CacheTTL = cfg.Cache.DiskTTL
	}

	return config
}

// NewEmbedder creates a bare backend for the configured provider
func NewEmbedder(config Config) (Embedder, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIEmbedder(config)

	case "ollama":
		return NewOllamaEmbedder(config)

	case "hash":
		return NewHashEmbedder(config.Dimensions), nil

	default:
		return nil, fmt.Errorf("%w: unknown embedding provider: %s (supported: openai, ollama, hash)", model.ErrInvalidConfiguration, config.Provider)
	}
}

// NewLoader returns a Loader that constructs the backend, checks that it is
// reachable, and wraps it with rate limiting and caching as configured
func NewLoader(config Config) Loader {
	return func(ctx context.Context) (Embedder, error) {
		backend, err := NewEmbedder(config)
		if err != nil {
			return nil, err
		}

		if pinger, ok := backend.(interface{ Ping(context.Context) error }); ok {
			if err := pinger.Ping(ctx); err != nil {
				return nil, err
			}
		}

		var e Embedder = backend
		if remote, ok := backend.(interface{ Endpoint() string }); ok {
			e = NewLimitedEmbedder(e, config.Limiter, remote.Endpoint(), config.BatchSize)
		}
		if config.Cache != nil {
			e = NewCachedEmbedder(e, config.Cache, config.CacheTTL)
		}

		return e, nil
	}
}

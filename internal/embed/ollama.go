package embed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaModel is used when no model is configured
const DefaultOllamaModel = "nomic-embed-text"

// OllamaEmbedder uses a local Ollama server's /api/embed endpoint
type OllamaEmbedder struct {
	client  *api.Client
	baseURL string
	model   string
}

// NewOllamaEmbedder creates a new Ollama embedder. The base URL falls back to
// OLLAMA_HOST and then to http://localhost:11434.
func NewOllamaEmbedder(config Config) (*OllamaEmbedder, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL %q: %w", baseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	model := config.Model
	if model == "" {
		model = DefaultOllamaModel
	}

	return &OllamaEmbedder{
		client:  api.NewClient(parsed, httpClient),
		baseURL: baseURL,
		model:   model,
	}, nil
}

// Name returns the provider and model
func (e *OllamaEmbedder) Name() string {
	return "ollama/" + e.model
}

// Endpoint returns the server base URL
func (e *OllamaEmbedder) Endpoint() string {
	return e.baseURL
}

// Ping checks that the Ollama server is reachable
func (e *OllamaEmbedder) Ping(ctx context.Context) error {
	if err := e.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama not reachable at %s: %w", e.baseURL, err)
	}
	return nil
}

// Embed embeds all texts in one /api/embed call
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	return resp.Embeddings, nil
}

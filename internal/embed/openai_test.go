package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func TestOpenAIEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("Expected path /embeddings, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req struct {
			Input      []string `json:"input"`
			Model      string   `json:"model"`
			Dimensions int      `json:"dimensions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Model != "text-embedding-3-small" || req.Dimensions != 3 || len(req.Input) != 2 {
			t.Errorf("Unexpected request: %+v", req)
		}

		// Out of order on purpose
		resp := openai.EmbeddingResponse{
			Object: "list",
			Data: []openai.Embedding{
				{Object: "embedding", Index: 1, Embedding: []float32{0, 1, 0}},
				{Object: "embedding", Index: 0, Embedding: []float32{1, 0, 0}},
			},
			Model: openai.SmallEmbedding3,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedder(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Dimensions: 3,
		Timeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create embedder: %v", err)
	}
	if e.Name() != "openai/text-embedding-3-small" {
		t.Errorf("Unexpected name: %s", e.Name())
	}

	vecs, err := e.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("Expected vectors ordered by index, got %v", vecs)
	}
}

func TestOpenAIEmbedder_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	e, _ := NewOpenAIEmbedder(Config{APIKey: "bad", BaseURL: server.URL, Timeout: 5 * time.Second})
	if _, err := e.Embed(context.Background(), []string{"x"}); err == nil {
		t.Error("Expected error for 401 response")
	}
}

func TestNewOpenAIEmbedder_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder(Config{}); err == nil {
		t.Error("Expected error without API key")
	}
}

package embed

import (
	"context"
	"math"
	"testing"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	h := NewHashEmbedder(0)
	if h.Name() != "hash/384" {
		t.Errorf("Unexpected name: %s", h.Name())
	}

	a, err := h.Embed(context.Background(), []string{"Availability measures uptime."})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	b, _ := NewHashEmbedder(0).Embed(context.Background(), []string{"availability MEASURES uptime"})

	if len(a[0]) != DefaultHashDimensions {
		t.Fatalf("Expected width %d, got %d", DefaultHashDimensions, len(a[0]))
	}
	if math.Abs(dot(a[0], b[0])-1) > 1e-6 {
		t.Errorf("Expected case and punctuation to be ignored, cosine %f", dot(a[0], b[0]))
	}
}

func TestHashEmbedder_Similarity(t *testing.T) {
	h := NewHashEmbedder(256)
	vecs, _ := h.Embed(context.Background(), []string{
		"the scrap rate of line two",
		"scrap rate of line two was high",
		"quarterly revenue forecast",
	})

	related := dot(vecs[0], vecs[1])
	unrelated := dot(vecs[0], vecs[2])
	if related <= unrelated {
		t.Errorf("Expected overlapping texts to be closer: related=%f unrelated=%f", related, unrelated)
	}
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	vecs, _ := NewHashEmbedder(8).Embed(context.Background(), []string{"!!!"})
	for _, v := range vecs[0] {
		if v != 0 {
			t.Fatalf("Expected zero vector for text without tokens, got %v", vecs[0])
		}
	}
}

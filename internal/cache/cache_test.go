package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestKey_Namespaced(t *testing.T) {
	a := Key("ollama/nomic-embed-text", "Cycle time is high.")
	b := Key("openai/text-embedding-3-small", "Cycle time is high.")
	if a == b {
		t.Error("Expected different namespaces to produce different keys")
	}
	if a != Key("ollama/nomic-embed-text", "Cycle time is high.") {
		t.Error("Expected keys to be stable")
	}
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []float32{1, 2, 3}, 0)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("Expected a hit")
	}
	got[0] = 99

	again, _ := c.Get("k")
	if again[0] != 1 {
		t.Errorf("Cached vector was mutated through a returned slice: %v", again)
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set("k", []float32{0.5, -0.25}, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || len(got) != 2 || got[1] != -0.25 {
		t.Fatalf("Unexpected vector: %v (hit=%v)", got, ok)
	}

	if err := c.Set("old", []float32{1}, -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := c.Get("old"); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "old.vec.json")); !os.IsNotExist(err) {
		t.Error("Expected expired entry to be removed from disk")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected Clear to drop every entry")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	_ = disk.Set("k", []float32{3}, 0)

	mem := NewMemoryCache(time.Hour, time.Minute)
	c := &LayeredCache{memory: mem, disk: disk}

	if _, ok := c.Get("k"); !ok {
		t.Fatal("Expected disk hit")
	}
	if _, ok := mem.Get("k"); !ok {
		t.Error("Expected disk hit to be promoted to memory")
	}
}

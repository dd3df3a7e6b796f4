package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://localhost:11434/api/embed"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://api.openai.com/v1"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)

	start := time.Now()
	if err := limiter.WaitWithDelay(context.Background(), "http://example.com", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	if d := time.Since(start); d < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", d)
	}
}

func TestLimiter_WaitWithDelayCancelled(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.WaitWithDelay(ctx, "http://example.com", time.Second); err == nil {
		t.Error("expected cancelled context to abort the wait")
	}
}

func TestLimiter_PerHost(t *testing.T) {
	limiter := NewLimiter(0.1, 1)

	if err := limiter.Wait(context.Background(), "http://localhost:11434/api/embed"); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}

	// same host, different path shares the bucket; the next token is 10s away
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, "http://localhost:11434/api/tags"); err == nil {
		t.Error("expected the host bucket to be exhausted")
	}

	if err := limiter.Wait(context.Background(), "http://other.example"); err != nil {
		t.Errorf("expected another host to pass: %v", err)
	}
}

func TestHostKey(t *testing.T) {
	tests := map[string]string{
		"http://example.com/foo": "example.com",
		"http://localhost:11434": "localhost:11434",
		"hash":                   "hash",
		"::invalid":              "::invalid",
	}
	for in, want := range tests {
		if got := hostKey(in); got != want {
			t.Errorf("hostKey(%q) = %q, want %q", in, got, want)
		}
	}
}

package embed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/attrib/internal/model"
)

// fakeEmbedder returns fixed-width vectors and counts calls
type fakeEmbedder struct {
	width  int
	calls  int32
	err    error
	closed int32
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.width)
		out[i][0] = float32(len(texts[i]))
	}
	return out, nil
}

func (f *fakeEmbedder) Close() error {
	atomic.AddInt32(&f.closed, 1)
	return nil
}

func TestIndex_StartDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	loader := func(ctx context.Context) (Embedder, error) {
		<-release
		return &fakeEmbedder{width: 4}, nil
	}

	idx := Start(loader, 0)
	defer idx.Shutdown()

	if idx.Ready() {
		t.Fatal("Expected index not to be ready before the loader returns")
	}

	done := make(chan error, 1)
	go func() {
		_, err := idx.Embed(context.Background(), []string{"hello"})
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("Embed returned before the model was loaded")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)

	if err := <-done; err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if !idx.Ready() || idx.Err() != nil {
		t.Errorf("Expected ready index without error, got ready=%v err=%v", idx.Ready(), idx.Err())
	}
}

func TestIndex_LoadFailure(t *testing.T) {
	root := errors.New("model not found")
	idx := Start(func(ctx context.Context) (Embedder, error) {
		return nil, root
	}, 0)
	defer idx.Shutdown()

	for i := 0; i < 2; i++ {
		_, err := idx.Embed(context.Background(), []string{"text"})
		if !errors.Is(err, model.ErrModelUnavailable) {
			t.Fatalf("call %d: expected ErrModelUnavailable, got %v", i, err)
		}
		if !errors.Is(err, root) {
			t.Errorf("call %d: expected root cause to be wrapped, got %v", i, err)
		}
	}

	var mu *model.ModelUnavailableError
	if !errors.As(idx.Err(), &mu) {
		t.Errorf("Expected Err to return *ModelUnavailableError, got %v", idx.Err())
	}
}

func TestIndex_LoadTimeout(t *testing.T) {
	idx := Start(func(ctx context.Context) (Embedder, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, 10*time.Millisecond)
	defer idx.Shutdown()

	_, err := idx.Wait(context.Background())
	if !errors.Is(err, model.ErrModelUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected unavailable with deadline cause, got %v", err)
	}
}

func TestIndex_ComputeFailure(t *testing.T) {
	idx := Start(Static(&fakeEmbedder{width: 3, err: errors.New("GPU on fire")}), 0)
	defer idx.Shutdown()

	_, err := idx.Embed(context.Background(), []string{"text"})
	if !errors.Is(err, model.ErrModelUnavailable) {
		t.Errorf("Expected ErrModelUnavailable, got %v", err)
	}
}

// ragged returns vectors of different widths
type ragged struct{}

func (ragged) Name() string { return "ragged" }

func (ragged) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, i+1)
	}
	return out, nil
}

func TestIndex_MalformedBatch(t *testing.T) {
	idx := Start(Static(ragged{}), 0)
	defer idx.Shutdown()

	_, err := idx.Embed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, model.ErrModelUnavailable) {
		t.Errorf("Expected width mismatch to be reported as unavailable, got %v", err)
	}
}

func TestIndex_WaitCancelled(t *testing.T) {
	idx := Start(func(ctx context.Context) (Embedder, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, 0)
	defer idx.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := idx.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected caller deadline, got %v", err)
	}
}

func TestIndex_Shutdown(t *testing.T) {
	fake := &fakeEmbedder{width: 2}
	idx := Start(Static(fake), 0)

	if _, err := idx.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	idx.Shutdown()
	idx.Shutdown() // idempotent

	_, err := idx.Embed(context.Background(), []string{"text"})
	if !errors.Is(err, ErrIndexClosed) || !errors.Is(err, model.ErrModelUnavailable) {
		t.Errorf("Expected closed index error, got %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&fake.closed) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if atomic.LoadInt32(&fake.closed) != 1 {
		t.Error("Expected the embedder to be closed after shutdown")
	}
}

func TestIndex_ShutdownWhileLoading(t *testing.T) {
	started := make(chan struct{})
	idx := Start(func(ctx context.Context) (Embedder, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}, 0)

	<-started
	idx.Shutdown()

	_, err := idx.Wait(context.Background())
	if !errors.Is(err, ErrIndexClosed) {
		t.Errorf("Expected closed index error, got %v", err)
	}
}

func TestIndex_EmptyBatch(t *testing.T) {
	fake := &fakeEmbedder{width: 2}
	idx := Start(Static(fake), 0)
	defer idx.Shutdown()

	vectors, err := idx.Embed(context.Background(), nil)
	if err != nil || len(vectors) != 0 {
		t.Fatalf("Expected empty result, got %v, %v", vectors, err)
	}
	if atomic.LoadInt32(&fake.calls) != 0 {
		t.Error("Expected the backend not to be called for an empty batch")
	}
}

package embed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ppiankov/attrib/internal/model"
)

// ErrIndexClosed is the cause reported after Shutdown
var ErrIndexClosed = errors.New("embedding index shut down")

// Index owns an embedding backend that is loaded by a background goroutine.
// Construction never blocks; Wait and Embed block until loading finishes.
type Index struct {
	ready  chan struct{} // closed when the loader returns
	done   chan struct{} // closed by Shutdown
	cancel context.CancelFunc
	once   sync.Once

	mu       sync.RWMutex
	embedder Embedder
	err      error
	closed   bool
}

// Start begins loading the backend in the background. A positive timeout
// bounds the load; zero waits as long as the loader takes.
func Start(loader Loader, timeout time.Duration) *Index {
	ctx, cancel := context.WithCancel(context.Background())
	x := &Index{
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go x.load(ctx, loader, timeout)

	return x
}

func (x *Index) load(ctx context.Context, loader Loader, timeout time.Duration) {
	defer close(x.ready)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	e, err := loader(ctx)
	if err == nil && e == nil {
		err = errors.New("loader returned no embedder")
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	switch {
	case err != nil:
		x.err = fmt.Errorf("load embedder: %w", err)
	case x.closed:
		// Shut down while loading; nobody will use it
		go closeEmbedder(e)
	default:
		x.embedder = e
	}
}

// Wait blocks until the backend is ready, the index is shut down, or ctx is
// done. A failed load is reported as *model.ModelUnavailableError.
func (x *Index) Wait(ctx context.Context) (Embedder, error) {
	select {
	case <-x.ready:
	case <-x.done:
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for embedding model: %w", ctx.Err())
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	switch {
	case x.closed:
		return nil, &model.ModelUnavailableError{Cause: ErrIndexClosed}
	case x.err != nil:
		return nil, &model.ModelUnavailableError{Cause: x.err}
	}

	return x.embedder, nil
}

// Embed waits for the backend and embeds texts. Backend failures and
// malformed batches are reported as *model.ModelUnavailableError.
func (x *Index) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := x.Wait(ctx)
	if err != nil {
		return nil, err
	}

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, &model.ModelUnavailableError{Cause: fmt.Errorf("%s: %w", e.Name(), err)}
	}
	if err := checkBatch(texts, vectors); err != nil {
		return nil, &model.ModelUnavailableError{Cause: fmt.Errorf("%s: %w", e.Name(), err)}
	}

	return vectors, nil
}

// Ready reports whether loading has finished (successfully or not)
func (x *Index) Ready() bool {
	select {
	case <-x.ready:
		return true
	default:
		return false
	}
}

// Err returns the load error, or nil while loading or after a successful load
func (x *Index) Err() error {
	if !x.Ready() {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.err != nil {
		return &model.ModelUnavailableError{Cause: x.err}
	}
	return nil
}

// Shutdown cancels a pending load and releases the backend. It returns
// immediately; embedding calls already in flight are not awaited.
func (x *Index) Shutdown() {
	x.once.Do(func() {
		x.mu.Lock()
		x.closed = true
		e := x.embedder
		x.embedder = nil
		x.mu.Unlock()

		close(x.done)
		x.cancel()

		if e != nil {
			go closeEmbedder(e)
		}
	})
}

func closeEmbedder(e Embedder) {
	closer, ok := e.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close embedder %s: %v\n", e.Name(), err)
	}
}

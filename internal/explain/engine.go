// Package explain attributes generated answers to the context they were
// produced from. An Engine holds an append-only store of context sentences
// and, for every response, finds the best supporting sentence per response
// segment, numbers the references and annotates the text with [n] markers.
package explain

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/attrib/internal/embed"
	"github.com/ppiankov/attrib/internal/model"
	"github.com/ppiankov/attrib/internal/normalize"
)

// Option configures an Engine
type Option func(*options)

type options struct {
	loader      embed.Loader
	loadTimeout time.Duration
	trace       io.Writer
	colored     bool
}

// WithEmbeddings supplies the embedding backend used when UseEmbeddings is
// set. The loader runs in the background from New; loadTimeout 0 means no
// deadline.
func WithEmbeddings(loader embed.Loader, loadTimeout time.Duration) Option {
	return func(o *options) {
		o.loader = loader
		o.loadTimeout = loadTimeout
	}
}

// WithTrace redirects the verbose trace (default os.Stderr)
func WithTrace(w io.Writer) Option {
	return func(o *options) {
		o.trace = w
	}
}

// WithColor toggles colour in the verbose trace
func WithColor(enabled bool) Option {
	return func(o *options) {
		o.colored = enabled
	}
}

// Engine is safe for concurrent Ingest and Attribute calls
type Engine struct {
	cfg        model.AttributionConfig
	normalizer *normalize.Normalizer
	store      *Store
	matcher    matcher
	index      *embed.Index // nil unless UseEmbeddings
	trace      *tracer      // nil unless Verbose
}

// New validates cfg and builds an engine. With UseEmbeddings the backend
// starts loading immediately; New itself never waits for it.
func New(cfg model.AttributionConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{trace: os.Stderr, colored: true}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		cfg:        cfg,
		normalizer: normalize.New(cfg.TokenizeContext),
	}

	var vectors vectorizer
	if cfg.UseEmbeddings {
		if o.loader == nil {
			return nil, fmt.Errorf("%w: use_embeddings is set but no embedding backend was provided", model.ErrInvalidConfiguration)
		}
		e.index = embed.Start(o.loader, o.loadTimeout)
		vectors = e.index
		e.matcher = &embeddingMatcher{threshold: cfg.Threshold, vectors: e.index}
	} else {
		e.matcher = &fuzzyMatcher{threshold: cfg.Threshold}
	}

	e.store = newStore(e.normalizer, vectors)

	if cfg.Verbose {
		e.trace = newTracer(o.trace, o.colored)
	}

	return e, nil
}

// Ingest adds context entries to the store; see Store.Ingest
func (e *Engine) Ingest(ctx context.Context, entries []model.ContextEntry) (int, error) {
	return e.store.Ingest(ctx, entries)
}

// Attribute splits response into segments, attributes each one to the best
// context sentence and returns the annotated text, the reference list and one
// record per segment
func (e *Engine) Attribute(ctx context.Context, response string) (*model.Attribution, error) {
	segments := e.normalizer.Response(response)
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: response contains no sentences", model.ErrEmptyResponse)
	}

	snap := e.store.snapshot()

	matches, err := e.matcher.Match(ctx, segments, snap)
	if err != nil {
		return nil, fmt.Errorf("%s match: %w", e.matcher.Name(), err)
	}

	reg := newRegistry()
	annotated := make([]string, len(segments))
	records := make([]model.AttributionRecord, len(segments))

	for i, segment := range segments {
		m := matches[i]
		rec := model.AttributionRecord{Segment: segment, Score: m.Score}
		annotated[i] = segment

		if m.Matched() {
			sentence, info := snap.sentences[m.Index], snap.infos[m.Index]
			n := reg.register(info.SourceName, sentence, info.OriginalContext)
			annotated[i] = InsertMarker(segment, n)

			rec.Matched = true
			rec.Context = &sentence
			rec.SourceName = &info.SourceName
			rec.OriginalContext = &info.OriginalContext
			rec.Reference = n
		}
		records[i] = rec

		if e.trace != nil {
			running, err := renderExplanation(reg.references())
			if err != nil {
				return nil, fmt.Errorf("render explanation: %w", err)
			}
			e.trace.segment(rec, joinSegments(annotated[:i+1]), running)
		}
	}

	refs := reg.references()
	explanation, err := renderExplanation(refs)
	if err != nil {
		return nil, fmt.Errorf("render explanation: %w", err)
	}

	return &model.Attribution{
		Text:        joinSegments(annotated),
		Explanation: explanation,
		References:  refs,
		Records:     records,
	}, nil
}

// Strategy names the active matcher ("fuzzy" or "embedding")
func (e *Engine) Strategy() string {
	return e.matcher.Name()
}

// Len returns the number of stored context sentences
func (e *Engine) Len() int {
	return e.store.Len()
}

// Sentences returns the stored context sentences in insertion order
func (e *Engine) Sentences() []string {
	return e.store.Sentences()
}

// Store exposes the context store for inspection
func (e *Engine) Store() *Store {
	return e.store
}

// WaitReady blocks until the embedding backend is loaded. It returns nil
// immediately in fuzzy mode.
func (e *Engine) WaitReady(ctx context.Context) error {
	if e.index == nil {
		return nil
	}
	_, err := e.index.Wait(ctx)
	return err
}

// Shutdown releases the embedding backend without waiting for in-flight work.
// The engine must not be used for embedding afterwards.
func (e *Engine) Shutdown() {
	if e.index != nil {
		e.index.Shutdown()
	}
}

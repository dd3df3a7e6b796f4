package explain

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/ppiankov/attrib/internal/model"
	"github.com/ppiankov/attrib/internal/normalize"
)

// vectorizer is the part of embed.Index the store and matcher need
type vectorizer interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the append-only context store: unique sentences in insertion order,
// their provenance, and (when embeddings are enabled) one vector per sentence
type Store struct {
	normalizer *normalize.Normalizer
	vectors    vectorizer // nil when embeddings are disabled

	ingestMu sync.Mutex // serializes Ingest calls end to end

	mu         sync.RWMutex
	sentences  []string
	infos      []model.SentenceInfo
	embeddings [][]float32
	index      map[string]int
}

// snapshot is a consistent, read-only view of the store
type snapshot struct {
	sentences  []string
	infos      []model.SentenceInfo
	embeddings [][]float32
}

func newStore(normalizer *normalize.Normalizer, vectors vectorizer) *Store {
	return &Store{
		normalizer: normalizer,
		vectors:    vectors,
		index:      make(map[string]int),
	}
}

// Ingest normalizes entries and appends every sentence not already stored.
// The call is all-or-nothing: any invalid entry, empty entry or embedding
// failure leaves the store untouched. Returns the number of new sentences.
func (s *Store) Ingest(ctx context.Context, entries []model.ContextEntry) (int, error) {
	for i, entry := range entries {
		if err := validateEntry(entry); err != nil {
			return 0, fmt.Errorf("%w: item at index %d: %v", model.ErrInvalidContextFormat, i, err)
		}
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	var (
		added []string
		infos []model.SentenceInfo
		seen  = make(map[string]struct{})
	)

	for i, entry := range entries {
		units, err := s.normalizer.Context(entry.Text)
		if err != nil {
			return 0, fmt.Errorf("context %q at index %d: %w", entry.SourceName, i, err)
		}

		for _, unit := range units {
			if s.contains(unit) {
				continue
			}
			if _, dup := seen[unit]; dup {
				continue
			}
			seen[unit] = struct{}{}
			added = append(added, unit)
			infos = append(infos, model.SentenceInfo{
				SourceName:      entry.SourceName,
				OriginalContext: entry.Text,
			})
		}
	}

	if len(added) == 0 {
		return 0, nil
	}

	var vectors [][]float32
	if s.vectors != nil {
		var err error
		vectors, err = s.vectors.Embed(ctx, added)
		if err != nil {
			return 0, fmt.Errorf("embed context: %w", err)
		}
		if err := s.checkWidth(vectors); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, unit := range added {
		s.index[unit] = len(s.sentences)
		s.sentences = append(s.sentences, unit)
		s.infos = append(s.infos, infos[i])
	}
	if s.vectors != nil {
		s.embeddings = append(s.embeddings, vectors...)
	}

	return len(added), nil
}

func (s *Store) contains(unit string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[unit]
	return ok
}

// checkWidth rejects vectors whose width differs from what is already stored
func (s *Store) checkWidth(vectors [][]float32) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.embeddings) == 0 || len(vectors) == 0 {
		return nil
	}
	if want, got := len(s.embeddings[0]), len(vectors[0]); want != got {
		return &model.ModelUnavailableError{
			Cause: fmt.Errorf("embedding width changed from %d to %d", want, got),
		}
	}
	return nil
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.sentences)
	snap := snapshot{
		sentences: s.sentences[:n:n],
		infos:     s.infos[:n:n],
	}
	if s.vectors != nil {
		snap.embeddings = s.embeddings[:n:n]
	}
	return snap
}

// Len returns the number of stored sentences
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sentences)
}

// EmbeddingCount returns the number of stored vectors
func (s *Store) EmbeddingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.embeddings)
}

// Sentences returns a copy of the stored sentences in insertion order
func (s *Store) Sentences() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.sentences))
	copy(out, s.sentences)
	return out
}

// Info returns the provenance of a stored sentence
func (s *Store) Info(sentence string) (model.SentenceInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[sentence]
	if !ok {
		return model.SentenceInfo{}, false
	}
	return s.infos[i], true
}

func validateEntry(entry model.ContextEntry) error {
	if !utf8.ValidString(entry.SourceName) {
		return fmt.Errorf("source name is not valid UTF-8")
	}
	if !utf8.ValidString(entry.Text) {
		return fmt.Errorf("context text is not valid UTF-8")
	}
	return nil
}

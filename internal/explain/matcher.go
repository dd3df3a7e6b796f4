package explain

import (
	"context"
	"fmt"
	"math"

	"github.com/ppiankov/attrib/internal/embed"
	"github.com/ppiankov/attrib/internal/model"
)

// Match is the outcome for one response segment. Index is the matched
// sentence's position in the snapshot, or -1 when nothing cleared the
// threshold.
type Match struct {
	Index int
	Score float64
}

// Matched reports whether the segment was attributed
func (m Match) Matched() bool {
	return m.Index >= 0
}

// matcher maps response segments onto context sentences
type matcher interface {
	Name() string
	Match(ctx context.Context, segments []string, snap snapshot) ([]Match, error)
}

// fuzzyMatcher scores segments lexically with PartialRatio. Below the
// threshold it still reports the best score found.
type fuzzyMatcher struct {
	threshold float64
}

func (m *fuzzyMatcher) Name() string { return "fuzzy" }

func (m *fuzzyMatcher) Match(ctx context.Context, segments []string, snap snapshot) ([]Match, error) {
	matches := make([]Match, len(segments))

	for i, segment := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		best, bestIdx := 0.0, -1
		for j, sentence := range snap.sentences {
			score := PartialRatio(segment, sentence)
			if bestIdx < 0 || score > best {
				best, bestIdx = score, j
			}
		}

		if bestIdx >= 0 && best >= m.threshold {
			matches[i] = Match{Index: bestIdx, Score: best}
		} else {
			matches[i] = Match{Index: -1, Score: best}
		}
	}

	return matches, nil
}

// embeddingMatcher scores segments by cosine similarity (x100) against the
// stored sentence vectors. Below the threshold the score is reported as 0.
type embeddingMatcher struct {
	threshold float64
	vectors   embeddingIndex
}

// embeddingIndex is a vectorizer whose backend can be awaited without
// computing anything
type embeddingIndex interface {
	vectorizer
	Wait(ctx context.Context) (embed.Embedder, error)
}

func (m *embeddingMatcher) Name() string { return "embedding" }

func (m *embeddingMatcher) Match(ctx context.Context, segments []string, snap snapshot) ([]Match, error) {
	matches := make([]Match, len(segments))

	if len(snap.sentences) == 0 {
		// Nothing to compare against, but a backend that failed to load is
		// still reported
		if _, err := m.vectors.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embed response: %w", err)
		}
		for i := range matches {
			matches[i] = Match{Index: -1}
		}
		return matches, nil
	}

	queries, err := m.vectors.Embed(ctx, segments)
	if err != nil {
		return nil, fmt.Errorf("embed response: %w", err)
	}
	if len(queries) != len(segments) {
		return nil, &model.ModelUnavailableError{
			Cause: fmt.Errorf("got %d vectors for %d segments", len(queries), len(segments)),
		}
	}
	if len(snap.embeddings) != len(snap.sentences) {
		return nil, fmt.Errorf("context store out of sync: %d embeddings for %d sentences", len(snap.embeddings), len(snap.sentences))
	}

	for i, q := range queries {
		if len(q) != len(snap.embeddings[0]) {
			return nil, &model.ModelUnavailableError{
				Cause: fmt.Errorf("response vector width %d does not match context width %d", len(q), len(snap.embeddings[0])),
			}
		}

		best, bestIdx := 0.0, -1
		for j, c := range snap.embeddings {
			score := Cosine(q, c) * 100
			if bestIdx < 0 || score > best {
				best, bestIdx = score, j
			}
		}

		if best >= m.threshold {
			matches[i] = Match{Index: bestIdx, Score: best}
		} else {
			matches[i] = Match{Index: -1, Score: 0}
		}
	}

	return matches, nil
}

// Cosine returns the cosine similarity of two equal-width vectors, or 0 when
// either has zero norm. Negative values are returned as is.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

package explain

import "github.com/ppiankov/attrib/internal/model"

type refKey struct {
	source  string
	context string
}

// registry numbers references for a single attribution call. A (source,
// sentence) pair keeps the number it was first given.
type registry struct {
	refs    []model.Reference
	numbers map[refKey]int
}

func newRegistry() *registry {
	return &registry{numbers: make(map[refKey]int)}
}

func (r *registry) register(sourceName, sentence, originalContext string) int {
	key := refKey{source: sourceName, context: sentence}
	if n, ok := r.numbers[key]; ok {
		return n
	}

	n := len(r.refs) + 1
	r.numbers[key] = n
	r.refs = append(r.refs, model.Reference{
		Number:          n,
		Context:         sentence,
		OriginalContext: originalContext,
		SourceName:      sourceName,
	})
	return n
}

func (r *registry) references() []model.Reference {
	out := make([]model.Reference, len(r.refs))
	copy(out, r.refs)
	return out
}

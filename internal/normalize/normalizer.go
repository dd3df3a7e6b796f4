// Package normalize turns raw context and response text into the units the
// attribution engine matches on.
package normalize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/ppiankov/attrib/internal/model"
)

// MinUnitLength is the minimum trimmed length (in characters) of a context unit
const MinUnitLength = 10

// Normalizer splits text into candidate units
type Normalizer struct {
	tokenize bool
}

// New creates a normalizer. When tokenizeContext is false, plain-text context
// is kept whole instead of being split into sentences.
func New(tokenizeContext bool) *Normalizer {
	return &Normalizer{tokenize: tokenizeContext}
}

// Context normalizes one raw context string. JSON arrays and objects become
// one unit per element/object; anything else is plain text. Returns
// model.ErrEmptyContext if no unit survives the length filter.
func (n *Normalizer) Context(text string) ([]string, error) {
	if units := jsonUnits(text); len(units) > 0 {
		return units, nil
	}

	var candidates []string
	if n.tokenize {
		candidates = Sentences(text)
	} else {
		candidates = []string{text}
	}

	units := keepLong(candidates)
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: no unit of at least %d characters after tokenization or JSON parsing", model.ErrEmptyContext, MinUnitLength)
	}

	return units, nil
}

// Response splits an answer into segments. Responses are always treated as
// natural language and are not length-filtered.
func (n *Normalizer) Response(text string) []string {
	return Sentences(text)
}

// abbreviations end with a period but do not end a sentence
var abbreviations = map[string]struct{}{
	"dr": {}, "mr": {}, "mrs": {}, "ms": {}, "prof": {}, "st": {}, "jr": {}, "sr": {},
	"vs": {}, "e.g": {}, "i.e": {}, "cf": {}, "approx": {}, "fig": {},
}

// Sentences splits text on Unicode sentence boundaries (UAX #29), trimming
// each sentence and dropping blanks. A boundary right after a known
// abbreviation ("Dr.", "e.g.") is not a sentence end.
func Sentences(text string) []string {
	var (
		out     []string
		pending strings.Builder
	)

	tokens := sentences.FromString(text)
	for tokens.Next() {
		pending.WriteString(tokens.Value())

		s := strings.TrimSpace(pending.String())
		if s == "" {
			pending.Reset()
			continue
		}
		if endsWithAbbreviation(s) {
			continue
		}

		out = append(out, s)
		pending.Reset()
	}

	if s := strings.TrimSpace(pending.String()); s != "" {
		out = append(out, s)
	}

	return out
}

func endsWithAbbreviation(s string) bool {
	if !strings.HasSuffix(s, ".") {
		return false
	}

	fields := strings.Fields(strings.TrimSuffix(s, "."))
	if len(fields) == 0 {
		return false
	}
	word := strings.TrimLeft(fields[len(fields)-1], "([\"'")

	_, ok := abbreviations[strings.ToLower(word)]
	return ok
}

func keepLong(units []string) []string {
	kept := make([]string, 0, len(units))
	for _, u := range units {
		if longEnough(u) {
			kept = append(kept, u)
		}
	}
	return kept
}

func longEnough(unit string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(unit)) >= MinUnitLength
}

package explain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ppiankov/attrib/internal/model"
)

// InsertMarker adds "[n]" to a segment: before a trailing '.' or ',',
// otherwise at the end.
//
//	InsertMarker("Cycle time is high.", 1) == "Cycle time is high[1]."
//	InsertMarker("no punctuation", 2)      == "no punctuation[2]"
func InsertMarker(segment string, n int) string {
	marker := "[" + strconv.Itoa(n) + "]"

	if strings.HasSuffix(segment, ".") || strings.HasSuffix(segment, ",") {
		last := len(segment) - 1
		return segment[:last] + marker + segment[last:]
	}
	return segment + marker
}

func joinSegments(segments []string) string {
	return strings.TrimSpace(strings.Join(segments, " "))
}

// renderExplanation serializes references as an indented JSON array in
// reference-number order
func renderExplanation(refs []model.Reference) (string, error) {
	if refs == nil {
		refs = []model.Reference{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(refs); err != nil {
		return "", err
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContextEntry is one labeled source document supplied by the caller
type ContextEntry struct {
	SourceName string `json:"source_name"` // Label shown in references (e.g., "kpi_catalog")
	Text       string `json:"text"`        // Raw text; may itself be JSON
}

// SentenceInfo is the provenance of a stored context sentence
type SentenceInfo struct {
	SourceName      string `json:"source_name"`
	OriginalContext string `json:"original_context"` // The raw text the sentence was cut from
}

// ParseContextEntries decodes a context bundle. Accepted shapes:
//
//	[["source", "text"], ...]
//	[{"source_name": "source", "text": "text"}, ...]
//
// Any item that is not a (source, text) pair of strings fails the whole bundle.
func ParseContextEntries(data []byte) ([]ContextEntry, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: bundle must be a JSON array: %v", ErrInvalidContextFormat, err)
	}

	entries := make([]ContextEntry, 0, len(items))
	for i, raw := range items {
		entry, err := parseContextItem(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: item at index %d: %v", ErrInvalidContextFormat, i, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func parseContextItem(raw json.RawMessage) (ContextEntry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ContextEntry{}, fmt.Errorf("empty item")
	}

	switch trimmed[0] {
	case '[':
		var pair []json.RawMessage
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return ContextEntry{}, err
		}
		if len(pair) != 2 {
			return ContextEntry{}, fmt.Errorf("expected (source_name, text) pair, got %d elements", len(pair))
		}
		return entryFromRaw(pair[0], pair[1])

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return ContextEntry{}, err
		}
		rawName, okName := obj["source_name"]
		rawText, okText := obj["text"]
		if !okName || !okText {
			return ContextEntry{}, fmt.Errorf("object needs source_name and text")
		}
		return entryFromRaw(rawName, rawText)

	default:
		return ContextEntry{}, fmt.Errorf("expected a pair or an object")
	}
}

func entryFromRaw(rawName, rawText json.RawMessage) (ContextEntry, error) {
	name, ok := decodeString(rawName)
	if !ok {
		return ContextEntry{}, fmt.Errorf("source name must be a string, got %s", rawName)
	}
	text, ok := decodeString(rawText)
	if !ok {
		return ContextEntry{}, fmt.Errorf("context text must be a string")
	}
	return ContextEntry{SourceName: name, Text: text}, nil
}

// decodeString rejects null and non-string JSON values
func decodeString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

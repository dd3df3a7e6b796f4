package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// jsonUnits returns the units of a JSON array or object context, or nil if
// text is not one (or yields nothing long enough)
func jsonUnits(text string) []string {
	trimmed := []byte(strings.TrimSpace(text))
	if len(trimmed) == 0 || (trimmed[0] != '[' && trimmed[0] != '{') || !json.Valid(trimmed) {
		return nil
	}

	if trimmed[0] == '{' {
		unit, err := Canonical(trimmed)
		if err != nil || !longEnough(unit) {
			return nil
		}
		return []string{unit}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil
	}

	var units []string
	for _, item := range items {
		unit, err := elementText(item)
		if err != nil {
			continue
		}
		if longEnough(unit) {
			units = append(units, unit)
		}
	}

	return units
}

// elementText renders one array element: objects canonically, strings
// verbatim, everything else as compact JSON
func elementText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("empty element")
	}

	switch trimmed[0] {
	case '{':
		return Canonical(trimmed)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
}

// Canonical re-serializes a JSON document deterministically, keeping the
// source key order: one member per line, no indentation, ": " between key and
// value. {"a":1,"b":[2]} becomes "{\n\"a\": 1,\n\"b\": [\n2\n]\n}".
func Canonical(data []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var b strings.Builder
	if err := writeValue(dec, &b); err != nil {
		return "", fmt.Errorf("canonicalize JSON: %w", err)
	}

	return b.String(), nil
}

func writeValue(dec *json.Decoder, b *strings.Builder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return writeContainer(dec, b, '{', '}', true)
		case '[':
			return writeContainer(dec, b, '[', ']', false)
		}
		return fmt.Errorf("unexpected delimiter %q", v)
	case string:
		writeString(b, v)
	case json.Number:
		b.WriteString(v.String())
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case nil:
		b.WriteString("null")
	default:
		return fmt.Errorf("unexpected token %T", tok)
	}

	return nil
}

func writeContainer(dec *json.Decoder, b *strings.Builder, open, closing byte, keyed bool) error {
	b.WriteByte(open)

	n := 0
	for dec.More() {
		if n > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')

		if keyed {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := tok.(string)
			if !ok {
				return fmt.Errorf("object key is %T", tok)
			}
			writeString(b, key)
			b.WriteString(": ")
		}

		if err := writeValue(dec, b); err != nil {
			return err
		}
		n++
	}

	// consume the closing delimiter
	if _, err := dec.Token(); err != nil {
		return err
	}

	if n > 0 {
		b.WriteByte('\n')
	}
	b.WriteByte(closing)

	return nil
}

func writeString(b *strings.Builder, s string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	b.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

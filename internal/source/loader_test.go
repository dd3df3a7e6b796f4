package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/attrib/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestSplitNamed(t *testing.T) {
	tests := []struct {
		arg, name, value string
	}{
		{"kpi=docs/kpi.json", "kpi", "docs/kpi.json"},
		{"docs/kpi.json", "", "docs/kpi.json"},
		{"https://example.com/?q=1", "", "https://example.com/?q=1"},
		{"glossary=https://example.com/?q=1", "glossary", "https://example.com/?q=1"},
		{"=path", "", "=path"},
	}
	for _, tt := range tests {
		name, value := splitNamed(tt.arg)
		if name != tt.name || value != tt.value {
			t.Errorf("splitNamed(%q) = (%q, %q), want (%q, %q)", tt.arg, name, value, tt.name, tt.value)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kpi_catalog.json", `{"id": "oee"}`)

	entry, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if entry.SourceName != "kpi_catalog" || entry.Text != `{"id": "oee"}` {
		t.Errorf("Unexpected entry: %+v", entry)
	}

	named, err := LoadFile("catalog=" + path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if named.SourceName != "catalog" {
		t.Errorf("Expected explicit name, got %q", named.SourceName)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadBundle_Invalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bundle.json", `[["doc1", 42]]`)

	if _, err := LoadBundle(path); !errors.Is(err, model.ErrInvalidContextFormat) {
		t.Errorf("Expected ErrInvalidContextFormat, got %v", err)
	}
}

func TestLoader_LoadOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><head><title>Shift report</title></head><body><p>Line two ran all night.</p></body></html>")
	}))
	defer server.Close()

	dir := t.TempDir()
	bundle := writeFile(t, dir, "bundle.json", `[{"source_name": "b1", "text": "Bundle text sentence."}]`)
	file := writeFile(t, dir, "notes.txt", "Notes text sentence.")

	loader := NewLoader(newTestFetcher(false))
	entries, err := loader.Load(context.Background(), Sources{
		Bundles: []string{bundle},
		Files:   []string{file},
		URLs:    []string{server.URL + "/report", "night=" + server.URL + "/report"},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	names := []string{"b1", "notes", "Shift report", "night"}
	if len(entries) != len(names) {
		t.Fatalf("Expected %d entries, got %d", len(names), len(entries))
	}
	for i, name := range names {
		if entries[i].SourceName != name {
			t.Errorf("entry %d: expected source %q, got %q", i, name, entries[i].SourceName)
		}
	}
	if entries[2].Text != "Line two ran all night." {
		t.Errorf("Unexpected page text: %q", entries[2].Text)
	}
}

func TestLoader_URLsDisabled(t *testing.T) {
	if _, err := NewLoader(nil).LoadURL(context.Background(), "https://example.com"); err == nil {
		t.Error("Expected error when no fetcher is configured")
	}
	if !(Sources{}).Empty() {
		t.Error("Expected empty sources")
	}
}

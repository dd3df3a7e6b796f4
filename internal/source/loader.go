// Package source turns CLI context arguments (files, URLs, JSON bundles) into
// labeled context entries.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/attrib/internal/model"
)

// Sources lists the context arguments of one invocation. Entries are produced
// in the order bundles, files, URLs, each in argument order, so the first
// source of a repeated sentence is predictable.
type Sources struct {
	Bundles []string // JSON bundle paths
	Files   []string // "name=path" or "path"
	URLs    []string // "name=url" or "url"
}

// Empty reports whether no source was given
func (s Sources) Empty() bool {
	return len(s.Bundles) == 0 && len(s.Files) == 0 && len(s.URLs) == 0
}

// Loader resolves Sources into context entries
type Loader struct {
	fetcher *Fetcher // nil disables URL sources
}

// NewLoader creates a loader; fetcher may be nil if no URLs are expected
func NewLoader(fetcher *Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load reads every source. The first failure aborts the whole load.
func (l *Loader) Load(ctx context.Context, sources Sources) ([]model.ContextEntry, error) {
	var entries []model.ContextEntry

	for _, path := range sources.Bundles {
		bundle, err := LoadBundle(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, bundle...)
	}

	for _, arg := range sources.Files {
		entry, err := LoadFile(arg)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	for _, arg := range sources.URLs {
		entry, err := l.LoadURL(ctx, arg)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// LoadBundle reads a JSON file of (source_name, text) pairs
func LoadBundle(path string) ([]model.ContextEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read context bundle: %w", err)
	}

	entries, err := model.ParseContextEntries(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// LoadFile reads one context file given as "name=path" or "path". Without an
// explicit name the file's base name (minus extension) is used.
func LoadFile(arg string) (model.ContextEntry, error) {
	name, path := splitNamed(arg)
	if path == "" {
		return model.ContextEntry{}, fmt.Errorf("%w: empty path in %q", model.ErrInvalidContextFormat, arg)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.ContextEntry{}, fmt.Errorf("read context file: %w", err)
	}

	return model.ContextEntry{SourceName: name, Text: string(data)}, nil
}

// LoadURL fetches one context page given as "name=url" or "url". Without an
// explicit name the page title is used.
func (l *Loader) LoadURL(ctx context.Context, arg string) (model.ContextEntry, error) {
	if l.fetcher == nil {
		return model.ContextEntry{}, fmt.Errorf("URL sources are not enabled")
	}

	name, rawURL := splitNamed(arg)
	page, err := l.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return model.ContextEntry{}, fmt.Errorf("context URL %s: %w", rawURL, err)
	}

	if name == "" {
		name = page.Title
	}
	if name == "" {
		name = page.FinalURL
	}

	return model.ContextEntry{SourceName: name, Text: page.Text}, nil
}

// splitNamed splits "name=value". An '=' preceded by a path or URL character
// (as in "https://host/?q=1") belongs to the value.
func splitNamed(arg string) (name, value string) {
	idx := strings.Index(arg, "=")
	if idx <= 0 {
		return "", arg
	}

	prefix := arg[:idx]
	if strings.ContainsAny(prefix, `/\:?`) {
		return "", arg
	}
	return prefix, arg[idx+1:]
}

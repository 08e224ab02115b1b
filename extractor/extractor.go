// Package extractor turns source documents into raw text. It makes no
// structural assumptions: output is opaque text with whatever layout
// artifacts (page breaks, running headers) the source format produces,
// and downstream stages must tolerate them.
package extractor

import (
	"context"
	"fmt"
)

// Extractor converts a document at a path into raw text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
	SupportedFormats() []string
}

// Registry maps file extensions to extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry creates a registry with the built-in extractors registered.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	for _, e := range []Extractor{&PDFExtractor{}, &TextExtractor{}} {
		for _, f := range e.SupportedFormats() {
			r.extractors[f] = e
		}
	}
	return r
}

// Register adds or replaces the extractor for a format.
func (r *Registry) Register(format string, e Extractor) {
	r.extractors[format] = e
}

// Get returns the extractor for a format.
func (r *Registry) Get(format string) (Extractor, error) {
	e, ok := r.extractors[format]
	if !ok {
		return nil, fmt.Errorf("no extractor for format: %s", format)
	}
	return e, nil
}

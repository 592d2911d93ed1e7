// Package extract turns source files into graph nodes, edges, and
// unresolved references. A registry dispatches on file extension to one of
// the per-language extractors; extractors are pure and never touch the
// store.
package extract

import (
	"path/filepath"
	"strings"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// Extractor is a per-language extraction capability. Given a file path and
// its source, Extract returns everything found in the file; parse errors for
// individual subtrees are reported in ExtractionResult.Errors and never
// abort the file.
type Extractor interface {
	Extensions() []string
	LanguageName() string
	Extract(filePath string, source []byte) *graph.ExtractionResult
}

// Registry holds the configured extractors and resolves file extensions to
// one of them, first match wins. It is immutable after construction and safe
// for concurrent use.
type Registry struct {
	extractors []Extractor
}

// NewRegistry returns a registry with all built-in language extractors.
func NewRegistry() *Registry {
	return &Registry{
		extractors: []Extractor{
			&RustExtractor{},
			&GoExtractor{},
			&JavaExtractor{},
		},
	}
}

// ForPath returns the extractor handling the file's extension, or nil when
// no extractor claims it.
func (r *Registry) ForPath(path string) Extractor {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil
	}
	for _, e := range r.extractors {
		for _, handled := range e.Extensions() {
			if handled == ext {
				return e
			}
		}
	}
	return nil
}

// Extractors returns the registered extractors in dispatch order.
func (r *Registry) Extractors() []Extractor {
	return r.extractors
}

// Languages returns the human-readable names of all registered languages.
func (r *Registry) Languages() []string {
	names := make([]string, 0, len(r.extractors))
	for _, e := range r.extractors {
		names = append(names, e.LanguageName())
	}
	return names
}

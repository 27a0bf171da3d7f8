package extractors

import (
	"sort"
	"sync"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/extractors/docx"
	"github.com/custodia-labs/intake-cli/internal/extractors/eml"
	"github.com/custodia-labs/intake-cli/internal/extractors/html"
	"github.com/custodia-labs/intake-cli/internal/extractors/pdf"
	"github.com/custodia-labs/intake-cli/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps capabilities to extractors. The last registration for a
// capability wins.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.Capability]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[domain.Capability]driven.Extractor),
	}
}

// NewDefaultRegistry creates a registry with every built-in extractor.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(html.New())
	r.Register(eml.New())
	return r
}

// Register adds an extractor for each of its capabilities.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range e.Capabilities() {
		r.extractors[c] = e
	}
}

// For returns the extractor for a capability.
func (r *Registry) For(c domain.Capability) (driven.Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[c]
	return e, ok
}

// Capabilities returns the registered capabilities, sorted.
func (r *Registry) Capabilities() []domain.Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Capability, 0, len(r.extractors))
	for c := range r.extractors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

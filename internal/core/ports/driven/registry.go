package driven

import "github.com/custodia-labs/intake-cli/internal/core/domain"

// ExtractorRegistry selects a native extractor by capability.
type ExtractorRegistry interface {
	// Register adds an extractor for each capability it reports.
	Register(extractor Extractor)

	// For returns the extractor for a capability, if one is registered.
	For(capability domain.Capability) (Extractor, bool)

	// Capabilities returns all capabilities with a registered extractor.
	Capabilities() []domain.Capability
}

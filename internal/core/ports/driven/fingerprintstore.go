package driven

import (
	"context"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// FingerprintStore is the dedupe gate's table of seen content.
type FingerprintStore interface {
	// Get returns the record for a fingerprint.
	// Returns domain.ErrNotFound if the fingerprint was never recorded.
	Get(ctx context.Context, fp domain.Fingerprint) (*domain.FingerprintRecord, error)

	// CurrentForGroup returns the current record of a logical document.
	// Returns domain.ErrNotFound if the group has no current version.
	CurrentForGroup(ctx context.Context, groupKey string) (*domain.FingerprintRecord, error)

	// Record stores a new fingerprint. When supersedes is non-empty the
	// superseded record stops being current in the same operation, so at most
	// one record per group is current.
	Record(ctx context.Context, rec domain.FingerprintRecord, supersedes domain.Fingerprint) error
}

// GroupingPolicy derives the logical-document key used to detect new versions.
type GroupingPolicy interface {
	// Name identifies the policy.
	Name() string

	// GroupKey returns the group for a file, or "" to opt the file out of grouping.
	GroupKey(relpath string) string
}

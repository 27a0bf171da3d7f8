package driven

import (
	"context"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// StatusStore holds the current processing status per filename.
// Last write wins.
type StatusStore interface {
	// Put overwrites the status for a filename.
	Put(ctx context.Context, filename string, status domain.ProcessingStatus) error

	// Get returns the status for a filename.
	// Returns domain.ErrNotFound if the file has no status.
	Get(ctx context.Context, filename string) (*domain.ProcessingStatus, error)

	// List returns all statuses keyed by filename.
	List(ctx context.Context) (map[string]domain.ProcessingStatus, error)
}

// TimelineWriter appends rows to the audit timeline.
// The header is written once, with the first row.
type TimelineWriter interface {
	// Append writes one entry.
	Append(ctx context.Context, entry domain.TimelineEntry) error

	// AppendRecords writes column-keyed records merged from control files.
	// Records are projected onto domain.TimelineColumns.
	AppendRecords(ctx context.Context, records []map[string]string) error

	// List returns all rows as column-keyed records.
	List(ctx context.Context) ([]map[string]string, error)
}

// ArtifactStore persists extracted text so downstream readers need not re-derive it.
type ArtifactStore interface {
	// Put stores text for a file and returns its location.
	Put(ctx context.Context, relpath string, fp domain.Fingerprint, text string) (string, error)

	// Get returns the text stored at a location.
	Get(ctx context.Context, location string) (string, error)
}

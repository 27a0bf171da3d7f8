package driven

import (
	"context"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// EventStore is the durable append-only record of events.
// It is the only state shared between consumers.
type EventStore interface {
	// Append durably stores the event and returns its position.
	// It returns only once the record is persisted. Failures are
	// *domain.StoreIOError and the event must be treated as not stored.
	Append(ctx context.Context, event *domain.Event) (domain.Cursor, error)

	// ReadAfter returns up to limit events positioned after cursor, in append order.
	// Records that cannot be decoded are reported in the batch and skipped.
	ReadAfter(ctx context.Context, cursor domain.Cursor, limit int) (ReadBatch, error)

	// Find returns all events matching the filter, in append order.
	Find(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)

	// Head returns the position of the last appended event, or 0 when empty.
	Head(ctx context.Context) (domain.Cursor, error)

	// Close releases resources.
	Close() error
}

// ReadBatch is one page of the stream.
type ReadBatch struct {
	// Events are the decoded events in append order.
	Events []domain.Event

	// Skipped are records that could not be decoded.
	Skipped []*domain.DecodeError

	// Next is the cursor to resume from. It advances past skipped records.
	Next domain.Cursor
}

// CursorStore persists each consumer's read position.
type CursorStore interface {
	// Get returns the saved cursor for a consumer, or 0 if none was saved.
	Get(ctx context.Context, consumer string) (domain.Cursor, error)

	// Save stores the cursor for a consumer.
	Save(ctx context.Context, consumer string, cursor domain.Cursor) error
}

package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// Ensure EventStore implements the interface.
var _ driven.EventStore = (*EventStore)(nil)

// EventStore is an in-memory implementation of driven.EventStore.
// Events are stored as encoded records so readers get independent copies.
type EventStore struct {
	mu      sync.RWMutex
	records [][]byte
	failErr error
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{}
}

// FailAppends makes every later Append fail with a StoreIOError wrapping err.
// Pass nil to restore normal behaviour. Useful for testing.
func (s *EventStore) FailAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// AppendRaw stores an arbitrary record, bypassing encoding.
// Useful for testing decode failures.
func (s *EventStore) AppendRaw(record []byte) domain.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return domain.Cursor(len(s.records))
}

// Append stores an event and returns its position.
func (s *EventStore) Append(_ context.Context, event *domain.Event) (domain.Cursor, error) {
	if event == nil {
		return 0, domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil {
		return 0, domain.NewStoreIOError("append event", s.failErr)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return 0, domain.NewStoreIOError("encode event", err)
	}
	s.records = append(s.records, data)
	event.Seq = domain.Cursor(len(s.records))
	return event.Seq, nil
}

// ReadAfter returns up to limit events after cursor.
func (s *EventStore) ReadAfter(_ context.Context, cursor domain.Cursor, limit int) (driven.ReadBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := driven.ReadBatch{Next: cursor}
	if cursor < 0 {
		cursor = 0
	}
	for i := int(cursor); i < len(s.records); i++ {
		if limit > 0 && len(batch.Events)+len(batch.Skipped) >= limit {
			break
		}
		pos := domain.Cursor(i + 1)
		event, err := decode(s.records[i], pos)
		if err != nil {
			batch.Skipped = append(batch.Skipped, &domain.DecodeError{Position: int64(pos), Err: err})
		} else {
			batch.Events = append(batch.Events, event)
		}
		batch.Next = pos
	}
	return batch, nil
}

// Find returns all decodable events matching the filter.
func (s *EventStore) Find(_ context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Event
	for i, record := range s.records {
		event, err := decode(record, domain.Cursor(i+1))
		if err != nil {
			continue
		}
		if filter.Matches(event) {
			out = append(out, event)
		}
	}
	return out, nil
}

// Head returns the position of the last record.
func (s *EventStore) Head(_ context.Context) (domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Cursor(len(s.records)), nil
}

// Close is a no-op.
func (s *EventStore) Close() error {
	return nil
}

func decode(record []byte, pos domain.Cursor) (domain.Event, error) {
	var event domain.Event
	if err := json.Unmarshal(record, &event); err != nil {
		return domain.Event{}, err
	}
	event.Seq = pos
	return event, nil
}

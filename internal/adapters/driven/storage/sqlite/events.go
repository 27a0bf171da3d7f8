package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// eventStore implements driven.EventStore.
type eventStore struct {
	store *Store
}

var _ driven.EventStore = (*eventStore)(nil)

// Append inserts one event. The row ID is the event's cursor position.
func (s *eventStore) Append(ctx context.Context, event *domain.Event) (domain.Cursor, error) {
	if event == nil {
		return 0, domain.ErrInvalidInput
	}

	record, err := json.Marshal(event)
	if err != nil {
		return 0, domain.NewStoreIOError("encode event", err)
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO events (id, ts, kind, file_relpath, intake_id, record)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.ID, event.TS.UTC(), string(event.Kind), event.FileRelpath, event.IntakeID(), string(record))
	if err != nil {
		return 0, domain.NewStoreIOError("append event", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, domain.NewStoreIOError("append event", err)
	}
	event.Seq = domain.Cursor(seq)
	return event.Seq, nil
}

// ReadAfter returns up to limit events with seq greater than cursor.
// Rows whose record does not decode are reported in Skipped.
func (s *eventStore) ReadAfter(ctx context.Context, cursor domain.Cursor, limit int) (driven.ReadBatch, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT seq, record FROM events WHERE seq > ? ORDER BY seq LIMIT ?
	`, int64(cursor), limit)
	if err != nil {
		return driven.ReadBatch{}, domain.NewStoreIOError("read events", err)
	}
	defer rows.Close()

	batch := driven.ReadBatch{Next: cursor}
	for rows.Next() {
		var seq int64
		var record string
		if err := rows.Scan(&seq, &record); err != nil {
			return driven.ReadBatch{}, domain.NewStoreIOError("scan event", err)
		}
		event, err := decodeEvent(record, seq)
		if err != nil {
			batch.Skipped = append(batch.Skipped, &domain.DecodeError{Position: seq, Err: err})
		} else {
			batch.Events = append(batch.Events, event)
		}
		batch.Next = domain.Cursor(seq)
	}
	if err := rows.Err(); err != nil {
		return driven.ReadBatch{}, domain.NewStoreIOError("iterate events", err)
	}
	return batch, nil
}

// Find returns events matching the filter, using the indexed columns.
func (s *eventStore) Find(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	query := `SELECT seq, record FROM events WHERE 1 = 1`
	var args []any
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.FileRelpath != "" {
		query += ` AND file_relpath = ?`
		args = append(args, filter.FileRelpath)
	}
	if filter.IntakeID != "" {
		query += ` AND intake_id = ?`
		args = append(args, filter.IntakeID)
	}
	query += ` ORDER BY seq`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStoreIOError("find events", err)
	}
	defer rows.Close()

	var events []domain.Event //nolint:prealloc // size unknown from query
	for rows.Next() {
		var seq int64
		var record string
		if err := rows.Scan(&seq, &record); err != nil {
			return nil, domain.NewStoreIOError("scan event", err)
		}
		event, err := decodeEvent(record, seq)
		if err != nil {
			continue
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreIOError("iterate events", err)
	}
	return events, nil
}

// Head returns the highest seq, or zero for an empty stream.
func (s *eventStore) Head(ctx context.Context) (domain.Cursor, error) {
	var head sql.NullInt64
	if err := s.store.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`).Scan(&head); err != nil {
		return 0, domain.NewStoreIOError("read head", err)
	}
	return domain.Cursor(head.Int64), nil
}

// Close closes the underlying database.
func (s *eventStore) Close() error {
	return s.store.Close()
}

func decodeEvent(record string, seq int64) (domain.Event, error) {
	var event domain.Event
	if err := json.Unmarshal([]byte(record), &event); err != nil {
		return domain.Event{}, err
	}
	event.Seq = domain.Cursor(seq)
	return event, nil
}

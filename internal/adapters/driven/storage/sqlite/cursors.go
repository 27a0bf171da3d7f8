package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	store *Store
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Get returns the saved cursor for a consumer, or zero if none was saved.
func (s *cursorStore) Get(ctx context.Context, consumer string) (domain.Cursor, error) {
	var pos int64
	err := s.store.db.QueryRowContext(ctx, `
		SELECT position FROM consumer_cursors WHERE consumer = ?
	`, consumer).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.NewStoreIOError("read cursor", err)
	}
	return domain.Cursor(pos), nil
}

// Save upserts the cursor for a consumer.
func (s *cursorStore) Save(ctx context.Context, consumer string, cursor domain.Cursor) error {
	if consumer == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO consumer_cursors (consumer, position, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(consumer) DO UPDATE SET
			position = excluded.position,
			updated_at = excluded.updated_at
	`, consumer, int64(cursor), time.Now().UTC())
	if err != nil {
		return domain.NewStoreIOError("save cursor", err)
	}
	return nil
}

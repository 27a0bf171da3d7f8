package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// fingerprintStore implements driven.FingerprintStore.
type fingerprintStore struct {
	store *Store
}

var _ driven.FingerprintStore = (*fingerprintStore)(nil)

// Get retrieves the record for a fingerprint.
func (s *fingerprintStore) Get(ctx context.Context, fp domain.Fingerprint) (*domain.FingerprintRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT fingerprint, file_relpath, intake_id, group_key, decision, current, seen_at
		FROM fingerprints WHERE fingerprint = ?
	`, string(fp))
	return scanFingerprint(row)
}

// CurrentForGroup returns the live record of a document group.
func (s *fingerprintStore) CurrentForGroup(ctx context.Context, groupKey string) (*domain.FingerprintRecord, error) {
	if groupKey == "" {
		return nil, domain.ErrNotFound
	}
	row := s.store.db.QueryRowContext(ctx, `
		SELECT fingerprint, file_relpath, intake_id, group_key, decision, current, seen_at
		FROM fingerprints WHERE group_key = ? AND current = 1
		ORDER BY seen_at DESC LIMIT 1
	`, groupKey)
	return scanFingerprint(row)
}

// Record stores a fingerprint and, in the same transaction, retires the
// version it supersedes.
func (s *fingerprintStore) Record(
	ctx context.Context, rec domain.FingerprintRecord, supersedes domain.Fingerprint,
) error {
	if rec.Fingerprint == "" {
		return domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStoreIOError("begin fingerprint tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if supersedes != "" {
		if _, err := tx.ExecContext(ctx, `
			UPDATE fingerprints SET current = 0 WHERE fingerprint = ?
		`, string(supersedes)); err != nil {
			return domain.NewStoreIOError("retire fingerprint", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO fingerprints (fingerprint, file_relpath, intake_id, group_key, decision, current, seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			group_key = excluded.group_key,
			current = excluded.current
	`, string(rec.Fingerprint), rec.FileRelpath, rec.IntakeID, rec.GroupKey, string(rec.Decision),
		boolToInt(rec.Current), rec.SeenAt.UTC()); err != nil {
		return domain.NewStoreIOError("record fingerprint", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStoreIOError("commit fingerprint", err)
	}
	return nil
}

func scanFingerprint(row *sql.Row) (*domain.FingerprintRecord, error) {
	var rec domain.FingerprintRecord
	var fp, decision string
	var current int
	var seenAt sql.NullTime
	if err := row.Scan(&fp, &rec.FileRelpath, &rec.IntakeID, &rec.GroupKey, &decision, &current, &seenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning fingerprint: %w", err)
	}
	rec.Fingerprint = domain.Fingerprint(fp)
	rec.Decision = domain.DedupeDecision(decision)
	rec.Current = current == 1
	if seenAt.Valid {
		rec.SeenAt = seenAt.Time
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// Ensure FingerprintStore implements the interface.
var _ driven.FingerprintStore = (*FingerprintStore)(nil)

// FingerprintStore is an in-memory implementation of driven.FingerprintStore.
type FingerprintStore struct {
	mu      sync.RWMutex
	records map[domain.Fingerprint]domain.FingerprintRecord
}

// NewFingerprintStore creates a new in-memory fingerprint store.
func NewFingerprintStore() *FingerprintStore {
	return &FingerprintStore{
		records: make(map[domain.Fingerprint]domain.FingerprintRecord),
	}
}

// Get returns the record for a fingerprint.
func (s *FingerprintStore) Get(_ context.Context, fp domain.Fingerprint) (*domain.FingerprintRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[fp]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// CurrentForGroup returns the current record of a group.
func (s *FingerprintStore) CurrentForGroup(_ context.Context, groupKey string) (*domain.FingerprintRecord, error) {
	if groupKey == "" {
		return nil, domain.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.Current && rec.GroupKey == groupKey {
			found := rec
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Record stores a fingerprint, clearing Current on the superseded one.
func (s *FingerprintStore) Record(_ context.Context, rec domain.FingerprintRecord, supersedes domain.Fingerprint) error {
	if rec.Fingerprint == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if supersedes != "" {
		if old, ok := s.records[supersedes]; ok {
			old.Current = false
			s.records[supersedes] = old
		}
	}
	s.records[rec.Fingerprint] = rec
	return nil
}

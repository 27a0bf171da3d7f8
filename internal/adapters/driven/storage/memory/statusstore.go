package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// Ensure StatusStore implements the interface.
var _ driven.StatusStore = (*StatusStore)(nil)

// StatusStore is an in-memory implementation of driven.StatusStore.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[string]domain.ProcessingStatus
}

// NewStatusStore creates a new in-memory status store.
func NewStatusStore() *StatusStore {
	return &StatusStore{
		statuses: make(map[string]domain.ProcessingStatus),
	}
}

// Put overwrites the status for a filename.
func (s *StatusStore) Put(_ context.Context, filename string, status domain.ProcessingStatus) error {
	if filename == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[filename] = status
	return nil
}

// Get returns the status for a filename.
func (s *StatusStore) Get(_ context.Context, filename string) (*domain.ProcessingStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &status, nil
}

// List returns a copy of all statuses.
func (s *StatusStore) List(_ context.Context) (map[string]domain.ProcessingStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.ProcessingStatus, len(s.statuses))
	for k, v := range s.statuses {
		out[k] = v
	}
	return out, nil
}

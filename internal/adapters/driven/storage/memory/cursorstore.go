package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// Ensure CursorStore implements the interface.
var _ driven.CursorStore = (*CursorStore)(nil)

// CursorStore is an in-memory implementation of driven.CursorStore.
type CursorStore struct {
	mu      sync.RWMutex
	cursors map[string]domain.Cursor
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		cursors: make(map[string]domain.Cursor),
	}
}

// Get returns the saved cursor for a consumer.
func (s *CursorStore) Get(_ context.Context, consumer string) (domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors[consumer], nil
}

// Save stores the cursor for a consumer.
func (s *CursorStore) Save(_ context.Context, consumer string, cursor domain.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[consumer] = cursor
	return nil
}

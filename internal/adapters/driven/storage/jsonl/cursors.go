package jsonl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/fsutil"
)

// CursorsFileName is the cursor document inside the data directory.
const CursorsFileName = "cursors.json"

// Ensure CursorStore implements the interface.
var _ driven.CursorStore = (*CursorStore)(nil)

// CursorStore keeps consumer cursors in a JSON document.
type CursorStore struct {
	path string
	mu   sync.Mutex
}

// NewCursorStore creates a cursor store at <dataDir>/cursors.json.
func NewCursorStore(dataDir string) *CursorStore {
	return &CursorStore{path: filepath.Join(dataDir, CursorsFileName)}
}

// Get returns the saved cursor for a consumer, or zero.
func (s *CursorStore) Get(_ context.Context, consumer string) (domain.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursors, err := s.load()
	if err != nil {
		return 0, err
	}
	return cursors[consumer], nil
}

// Save replaces the cursor for a consumer.
func (s *CursorStore) Save(_ context.Context, consumer string, cursor domain.Cursor) error {
	if consumer == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := fsutil.UpdateLocked(s.path, func() error {
		cursors, err := s.load()
		if err != nil {
			return err
		}
		cursors[consumer] = cursor

		data, err := json.MarshalIndent(cursors, "", "  ")
		if err != nil {
			return domain.NewStoreIOError("encode cursors", err)
		}
		if err := fsutil.AtomicWrite(s.path, data, 0o644); err != nil {
			return domain.NewStoreIOError("save cursors", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrStoreIO) {
		return domain.NewStoreIOError("lock cursors", err)
	}
	return err
}

func (s *CursorStore) load() (map[string]domain.Cursor, error) {
	cursors := make(map[string]domain.Cursor)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return cursors, nil
	}
	if err != nil {
		return nil, domain.NewStoreIOError("read cursors", err)
	}
	if err := json.Unmarshal(data, &cursors); err != nil {
		return nil, domain.NewStoreIOError("decode cursors", fmt.Errorf("%s: %w", CursorsFileName, err))
	}
	return cursors, nil
}

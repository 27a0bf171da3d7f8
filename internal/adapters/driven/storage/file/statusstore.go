package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/fsutil"
)

// StatusFileName is the status document inside the data directory.
const StatusFileName = "status.json"

// Ensure StatusStore implements the interface.
var _ driven.StatusStore = (*StatusStore)(nil)

// StatusStore keeps {filename: status} in a JSON document.
// Each Put rewrites the document atomically under an advisory lock.
type StatusStore struct {
	path string
	mu   sync.Mutex
}

// NewStatusStore creates a status store at <dataDir>/status.json.
func NewStatusStore(dataDir string) *StatusStore {
	return &StatusStore{path: filepath.Join(dataDir, StatusFileName)}
}

// Path returns the document path.
func (s *StatusStore) Path() string {
	return s.path
}

// Put overwrites the status for a filename.
func (s *StatusStore) Put(_ context.Context, filename string, status domain.ProcessingStatus) error {
	if filename == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Other processes (intake process beside intake watch) rewrite the same
	// document, so the whole load and write runs under the file lock.
	err := fsutil.UpdateLocked(s.path, func() error {
		statuses, err := s.load()
		if err != nil {
			return err
		}
		statuses[filename] = status

		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return domain.NewStoreIOError("encode status", err)
		}
		if err := fsutil.AtomicWrite(s.path, data, 0o644); err != nil {
			return domain.NewStoreIOError("write status", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrStoreIO) {
		return domain.NewStoreIOError("lock status", err)
	}
	return err
}

// Get returns the status for a filename.
func (s *StatusStore) Get(_ context.Context, filename string) (*domain.ProcessingStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses, err := s.load()
	if err != nil {
		return nil, err
	}
	status, ok := statuses[filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &status, nil
}

// List returns all statuses.
func (s *StatusStore) List(_ context.Context) (map[string]domain.ProcessingStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *StatusStore) load() (map[string]domain.ProcessingStatus, error) {
	statuses := make(map[string]domain.ProcessingStatus)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return statuses, nil
	}
	if err != nil {
		return nil, domain.NewStoreIOError("read status", err)
	}
	if len(data) == 0 {
		return statuses, nil
	}
	if err := json.Unmarshal(data, &statuses); err != nil {
		return nil, domain.NewStoreIOError("decode status", err)
	}
	return statuses, nil
}

package memory

import (
	"context"
	"path"
	"strings"
	"sync"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore is an in-memory implementation of driven.ArtifactStore.
type ArtifactStore struct {
	mu    sync.RWMutex
	texts map[string]string
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		texts: make(map[string]string),
	}
}

// Put stores text under a path-derived location.
func (s *ArtifactStore) Put(_ context.Context, relpath string, fp domain.Fingerprint, text string) (string, error) {
	stem := strings.TrimSuffix(path.Base(relpath), path.Ext(relpath))
	location := "text/" + stem + "." + fp.Short(12) + ".txt"

	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[location] = text
	return location, nil
}

// Get returns stored text.
func (s *ArtifactStore) Get(_ context.Context, location string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.texts[location]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

// Len returns the number of stored artifacts.
func (s *ArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.texts)
}

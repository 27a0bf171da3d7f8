package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/fsutil"
)

// TextDirName is the artifact directory inside the data directory.
const TextDirName = "text"

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore writes extracted text under <dataDir>/text.
// Locations are relative to dataDir so the data directory can be moved.
type ArtifactStore struct {
	dataDir string
}

// NewArtifactStore creates an artifact store rooted at dataDir.
func NewArtifactStore(dataDir string) *ArtifactStore {
	return &ArtifactStore{dataDir: dataDir}
}

// Put writes text to text/<stem>.<fp12>.txt and returns that location.
// The fingerprint suffix keeps two versions of one file name apart.
func (s *ArtifactStore) Put(_ context.Context, relpath string, fp domain.Fingerprint, text string) (string, error) {
	base := filepath.Base(relpath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	location := filepath.ToSlash(filepath.Join(TextDirName, stem+"."+fp.Short(12)+".txt"))

	if err := fsutil.AtomicWrite(filepath.Join(s.dataDir, filepath.FromSlash(location)), []byte(text), 0o644); err != nil {
		return "", domain.NewStoreIOError("write artifact", err)
	}
	return location, nil
}

// Get reads the text at location.
func (s *ArtifactStore) Get(_ context.Context, location string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(location))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", domain.ErrInvalidInput
	}
	data, err := os.ReadFile(filepath.Join(s.dataDir, clean))
	if errors.Is(err, os.ErrNotExist) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", domain.NewStoreIOError("read artifact", err)
	}
	return string(data), nil
}

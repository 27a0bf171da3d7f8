package jsonl

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/fsutil"
)

// FingerprintsFileName is the fingerprint document inside the data directory.
const FingerprintsFileName = "fingerprints.json"

// Ensure FingerprintStore implements the interface.
var _ driven.FingerprintStore = (*FingerprintStore)(nil)

// fingerprintDoc is the on-disk shape of one record.
type fingerprintDoc struct {
	FileRelpath string    `json:"file_relpath"`
	IntakeID    string    `json:"intake_id,omitempty"`
	GroupKey    string    `json:"group_key,omitempty"`
	Decision    string    `json:"decision"`
	Current     bool      `json:"current"`
	SeenAt      time.Time `json:"seen_at"`
}

// FingerprintStore keeps fingerprints in a JSON document keyed by digest.
type FingerprintStore struct {
	path string
	mu   sync.Mutex
}

// NewFingerprintStore creates a store at <dataDir>/fingerprints.json.
func NewFingerprintStore(dataDir string) *FingerprintStore {
	return &FingerprintStore{path: filepath.Join(dataDir, FingerprintsFileName)}
}

// Get returns the record for a fingerprint.
func (s *FingerprintStore) Get(_ context.Context, fp domain.Fingerprint) (*domain.FingerprintRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load()
	if err != nil {
		return nil, err
	}
	doc, ok := docs[string(fp)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return toRecord(fp, doc), nil
}

// CurrentForGroup returns the live record of a group.
func (s *FingerprintStore) CurrentForGroup(_ context.Context, groupKey string) (*domain.FingerprintRecord, error) {
	if groupKey == "" {
		return nil, domain.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load()
	if err != nil {
		return nil, err
	}
	var best *domain.FingerprintRecord
	for fp, doc := range docs {
		if !doc.Current || doc.GroupKey != groupKey {
			continue
		}
		if best == nil || doc.SeenAt.After(best.SeenAt) {
			best = toRecord(domain.Fingerprint(fp), doc)
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

// Record stores a fingerprint and retires the one it supersedes in a single write.
func (s *FingerprintStore) Record(_ context.Context, rec domain.FingerprintRecord, supersedes domain.Fingerprint) error {
	if rec.Fingerprint == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := fsutil.UpdateLocked(s.path, func() error {
		docs, err := s.load()
		if err != nil {
			return err
		}
		if supersedes != "" {
			if old, ok := docs[string(supersedes)]; ok {
				old.Current = false
				docs[string(supersedes)] = old
			}
		}
		docs[string(rec.Fingerprint)] = fingerprintDoc{
			FileRelpath: rec.FileRelpath,
			IntakeID:    rec.IntakeID,
			GroupKey:    rec.GroupKey,
			Decision:    string(rec.Decision),
			Current:     rec.Current,
			SeenAt:      rec.SeenAt.UTC(),
		}

		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return domain.NewStoreIOError("encode fingerprints", err)
		}
		if err := fsutil.AtomicWrite(s.path, data, 0o644); err != nil {
			return domain.NewStoreIOError("save fingerprints", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrStoreIO) {
		return domain.NewStoreIOError("lock fingerprints", err)
	}
	return err
}

func (s *FingerprintStore) load() (map[string]fingerprintDoc, error) {
	docs := make(map[string]fingerprintDoc)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return docs, nil
	}
	if err != nil {
		return nil, domain.NewStoreIOError("read fingerprints", err)
	}
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, domain.NewStoreIOError("decode fingerprints", err)
	}
	return docs, nil
}

func toRecord(fp domain.Fingerprint, doc fingerprintDoc) *domain.FingerprintRecord {
	return &domain.FingerprintRecord{
		Fingerprint: fp,
		FileRelpath: doc.FileRelpath,
		IntakeID:    doc.IntakeID,
		GroupKey:    doc.GroupKey,
		Decision:    domain.DedupeDecision(doc.Decision),
		Current:     doc.Current,
		SeenAt:      doc.SeenAt,
	}
}

package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// Ensure Timeline implements the interface.
var _ driven.TimelineWriter = (*Timeline)(nil)

// Timeline is an in-memory implementation of driven.TimelineWriter.
type Timeline struct {
	mu      sync.RWMutex
	rows    []map[string]string
	failErr error
}

// NewTimeline creates a new in-memory timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// FailAppends makes later appends fail with err. Pass nil to restore.
// Useful for testing.
func (t *Timeline) FailAppends(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failErr = err
}

// Append writes one entry.
func (t *Timeline) Append(_ context.Context, entry domain.TimelineEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failErr != nil {
		return domain.NewStoreIOError("append timeline", t.failErr)
	}
	t.rows = append(t.rows, entry.Record())
	return nil
}

// AppendRecords writes merged records projected onto the fixed columns.
func (t *Timeline) AppendRecords(_ context.Context, records []map[string]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failErr != nil {
		return domain.NewStoreIOError("append timeline", t.failErr)
	}
	for _, record := range records {
		row := domain.RecordRow(record)
		projected := make(map[string]string, len(row))
		for i, col := range domain.TimelineColumns {
			projected[col] = row[i]
		}
		t.rows = append(t.rows, projected)
	}
	return nil
}

// List returns copies of all rows.
func (t *Timeline) List(_ context.Context) ([]map[string]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]map[string]string, len(t.rows))
	for i, row := range t.rows {
		cp := make(map[string]string, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[i] = cp
	}
	return out, nil
}

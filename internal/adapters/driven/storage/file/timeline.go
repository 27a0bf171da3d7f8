package file

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/fsutil"
)

// TimelineFileName is the timeline file inside the data directory.
const TimelineFileName = "timeline.csv"

// Ensure Timeline implements the interface.
var _ driven.TimelineWriter = (*Timeline)(nil)

// Timeline appends rows to a CSV file with the fixed TimelineColumns header.
// The header is written once, by whichever append creates the file.
type Timeline struct {
	path string
}

// NewTimeline creates a timeline at <dataDir>/timeline.csv.
func NewTimeline(dataDir string) *Timeline {
	return &Timeline{path: filepath.Join(dataDir, TimelineFileName)}
}

// Path returns the CSV path.
func (t *Timeline) Path() string {
	return t.path
}

// Append writes one entry.
func (t *Timeline) Append(_ context.Context, entry domain.TimelineEntry) error {
	return t.appendRows([][]string{entry.Row()})
}

// AppendRecords writes merged records projected onto the fixed columns.
func (t *Timeline) AppendRecords(_ context.Context, records []map[string]string) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, domain.RecordRow(record))
	}
	return t.appendRows(rows)
}

func (t *Timeline) appendRows(rows [][]string) error {
	err := fsutil.AppendLocked(t.path, func(f *os.File, size int64) error {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if size == 0 {
			if err := w.Write(domain.TimelineColumns); err != nil {
				return err
			}
		}
		if err := w.WriteAll(rows); err != nil {
			return err
		}
		_, err := f.Write(buf.Bytes())
		return err
	})
	if err != nil {
		return domain.NewStoreIOError("append timeline", err)
	}
	return nil
}

// List reads all rows keyed by header column.
func (t *Timeline) List(_ context.Context) ([]map[string]string, error) {
	f, err := os.Open(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStoreIOError("open timeline", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStoreIOError("read timeline header", err)
	}

	var rows []map[string]string
	for line := 2; ; line++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, domain.NewStoreIOError("read timeline", fmt.Errorf("line %d: %w", line, err))
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/fsutil"
)

// EventsFileName is the stream file inside the data directory.
const EventsFileName = "events.jsonl"

// maxLineBytes bounds a single event line.
const maxLineBytes = 4 << 20

// Ensure EventStore implements the interface.
var _ driven.EventStore = (*EventStore)(nil)

// EventStore is a JSON Lines implementation of driven.EventStore.
type EventStore struct {
	path string

	mu        sync.Mutex
	knownSize int64
	knownLine int64
}

// NewEventStore creates an event store at <dataDir>/events.jsonl.
// The file is created on first append.
func NewEventStore(dataDir string) (*EventStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &EventStore{path: filepath.Join(dataDir, EventsFileName)}, nil
}

// Path returns the stream file path.
func (s *EventStore) Path() string {
	return s.path
}

// Append writes one event line and returns its line number.
func (s *EventStore) Append(_ context.Context, event *domain.Event) (domain.Cursor, error) {
	if event == nil {
		return 0, domain.ErrInvalidInput
	}

	line, err := json.Marshal(event)
	if err != nil {
		return 0, domain.NewStoreIOError("encode event", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	var pos int64
	err = fsutil.AppendLocked(s.path, func(f *os.File, size int64) error {
		lines, err := s.linesLocked(f, size)
		if err != nil {
			return err
		}

		// A torn write from a crashed process leaves a partial last line.
		// Terminate it so it becomes one undecodable record instead of
		// corrupting this one.
		if size > 0 {
			last := make([]byte, 1)
			if _, err := f.ReadAt(last, size-1); err != nil {
				return fmt.Errorf("read tail: %w", err)
			}
			if last[0] != '\n' {
				if _, err := f.Write([]byte{'\n'}); err != nil {
					return fmt.Errorf("terminate partial line: %w", err)
				}
				lines++
				size++
			}
		}

		if _, err := f.Write(line); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		pos = lines + 1
		s.knownSize = size + int64(len(line))
		s.knownLine = pos
		return nil
	})
	if err != nil {
		s.knownSize, s.knownLine = 0, 0
		return 0, domain.NewStoreIOError("append event", err)
	}

	event.Seq = domain.Cursor(pos)
	return event.Seq, nil
}

// linesLocked returns the number of newline-terminated lines in the first
// size bytes of f. Another process may have appended since the last call,
// so the cache is only trusted when the size still matches.
func (s *EventStore) linesLocked(f *os.File, size int64) (int64, error) {
	if size == s.knownSize {
		return s.knownLine, nil
	}
	n, err := countLines(io.NewSectionReader(f, 0, size))
	if err != nil {
		return 0, fmt.Errorf("count lines: %w", err)
	}
	return n, nil
}

// ReadAfter returns up to limit events after line cursor.
func (s *EventStore) ReadAfter(ctx context.Context, cursor domain.Cursor, limit int) (driven.ReadBatch, error) {
	batch := driven.ReadBatch{Next: cursor}
	err := s.scan(ctx, func(pos int64, line []byte) bool {
		if pos <= int64(cursor) {
			return true
		}
		if limit > 0 && len(batch.Events)+len(batch.Skipped) >= limit {
			return false
		}
		event, err := decodeLine(line, pos)
		if err != nil {
			batch.Skipped = append(batch.Skipped, &domain.DecodeError{Position: pos, Err: err})
		} else {
			batch.Events = append(batch.Events, event)
		}
		batch.Next = domain.Cursor(pos)
		return true
	})
	if err != nil {
		return driven.ReadBatch{}, err
	}
	return batch, nil
}

// Find returns all decodable events matching the filter.
func (s *EventStore) Find(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	var out []domain.Event
	err := s.scan(ctx, func(pos int64, line []byte) bool {
		event, err := decodeLine(line, pos)
		if err == nil && filter.Matches(event) {
			out = append(out, event)
		}
		return true
	})
	return out, err
}

// Head returns the number of complete lines.
func (s *EventStore) Head(ctx context.Context) (domain.Cursor, error) {
	var head int64
	err := s.scan(ctx, func(pos int64, _ []byte) bool {
		head = pos
		return true
	})
	return domain.Cursor(head), err
}

// Close is a no-op; the file is opened per operation.
func (s *EventStore) Close() error {
	return nil
}

// scan calls fn for every complete line until fn returns false.
func (s *EventStore) scan(ctx context.Context, fn func(pos int64, line []byte) bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return domain.NewStoreIOError("open events", err)
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, 64*1024)
	var pos int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			// Unterminated tail is an in-flight write.
			return nil
		}
		if err != nil {
			return domain.NewStoreIOError("read events", err)
		}
		pos++
		if len(line) > maxLineBytes {
			line = line[:0]
		}
		if !fn(pos, bytes.TrimRight(line, "\r\n")) {
			return nil
		}
	}
}

func decodeLine(line []byte, pos int64) (domain.Event, error) {
	if len(bytes.TrimSpace(line)) == 0 {
		return domain.Event{}, fmt.Errorf("empty line")
	}
	var event domain.Event
	if err := json.Unmarshal(line, &event); err != nil {
		return domain.Event{}, err
	}
	event.Seq = domain.Cursor(pos)
	return event, nil
}

func countLines(r io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var n int64
	for {
		c, err := r.Read(buf)
		n += int64(bytes.Count(buf[:c], []byte{'\n'}))
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
}

package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
	"github.com/custodia-labs/intake-cli/internal/logger"
)

// updateMarker is the content of the control marker file.
type updateMarker struct {
	Type    string `json:"type"`
	EventID string `json:"eventId"`
	Linked  string `json:"linked"`
}

// markerNewNote is the marker type that requests a note merge.
const markerNewNote = "new_note"

// Watcher turns new files in the watch directory into intake events and
// merges control files into the timeline.
type Watcher struct {
	watchDir string
	dataDir  string
	interval time.Duration
	intake   *IntakeService
	bus      driving.EventBus
	events   driven.EventStore
	timeline driven.TimelineWriter
}

// NewWatcher creates a watcher. The update marker is read from dataDir;
// everything else lives in watchDir.
func NewWatcher(
	watchDir, dataDir string,
	interval time.Duration,
	intake *IntakeService,
	bus driving.EventBus,
	events driven.EventStore,
	timeline driven.TimelineWriter,
) *Watcher {
	if interval <= 0 {
		interval = domain.DefaultPipelineConfig().PollInterval
	}
	return &Watcher{
		watchDir: watchDir,
		dataDir:  dataDir,
		interval: interval,
		intake:   intake,
		bus:      bus,
		events:   events,
		timeline: timeline,
	}
}

// Run scans the watch directory on every poll interval and whenever the
// filesystem reports a change, until ctx is done or a store fails.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.watchDir, 0o755); err != nil {
		return fmt.Errorf("creating watch dir: %w", err)
	}

	var changes <-chan fsnotify.Event
	var watchErrs <-chan error
	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		if err = fsw.Add(w.watchDir); err == nil {
			changes, watchErrs = fsw.Events, fsw.Errors
		}
		defer fsw.Close()
	}
	if err != nil {
		logger.WarnOnce("fsnotify", "filesystem notifications unavailable, polling only: %v", err)
	}

	logger.Info("watching %s every %s", w.watchDir, w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.Scan(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, domain.ErrStoreIO) {
				return err
			}
			logger.Error("watch: %v", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			logger.Debug("watch: %s %s", change.Op, change.Name)
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Warn("watch: notification error: %v", err)
		}
	}
}

// Scan handles control files, then submits every file not yet seen.
// It returns how many files were submitted.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	if err := w.checkUpdates(ctx); err != nil {
		if errors.Is(err, domain.ErrStoreIO) {
			return 0, err
		}
		logger.Warn("watch: processing update: %v", err)
	}

	entries, err := os.ReadDir(w.watchDir)
	if err != nil {
		return 0, fmt.Errorf("reading watch dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	submitted := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return submitted, ctx.Err()
		}
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") || domain.IsControlFile(name) {
			continue
		}

		seen, err := w.intake.Seen(ctx, name)
		if err != nil {
			return submitted, err
		}
		if seen {
			continue
		}
		if _, err := w.intake.Submit(ctx, filepath.Join(w.watchDir, name), domain.Classification{}); err != nil {
			if errors.Is(err, domain.ErrStoreIO) {
				return submitted, err
			}
			logger.Warn("watch: %s: %v", name, err)
			continue
		}
		submitted++
	}
	return submitted, nil
}

// checkUpdates processes the update marker if one is present. A new_note
// marker merges NewNote.csv into the timeline; any marker also merges each
// OCR batch output that has not been merged before. The marker is removed
// afterwards.
func (w *Watcher) checkUpdates(ctx context.Context) error {
	markerPath := filepath.Join(w.dataDir, domain.ControlUpdateMarker)
	data, err := os.ReadFile(markerPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var marker updateMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		logger.Warn("watch: ignoring malformed %s: %v", domain.ControlUpdateMarker, err)
	}

	if marker.Type == markerNewNote {
		logger.Info("watch: note update for event %s", valueOr(marker.EventID, "unknown"))
		notePath := filepath.Join(w.watchDir, domain.ControlNewNote)
		if err := w.mergeOnce(ctx, notePath); err != nil {
			return err
		}
		if err := os.Remove(notePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	batches, err := filepath.Glob(filepath.Join(w.watchDir, domain.ControlBatchPrefix+"*"))
	if err != nil {
		return err
	}
	sort.Strings(batches)
	for _, batch := range batches {
		if !domain.IsControlFile(filepath.Base(batch)) {
			continue
		}
		if err := w.mergeOnce(ctx, batch); err != nil {
			return err
		}
	}

	return os.Remove(markerPath)
}

// mergeOnce appends the rows of a control CSV to the timeline unless a
// timeline.merged event already exists for the same name and mtime.
func (w *Watcher) mergeOnce(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	name := filepath.Base(path)
	key := fmt.Sprintf("%s@%d", name, info.ModTime().UnixNano())

	merged, err := w.events.Find(ctx, domain.EventFilter{Kind: domain.KindTimelineMerged, FileRelpath: name})
	if err != nil {
		return err
	}
	for _, e := range merged {
		if e.DetailString(domain.DetailSource) == key {
			return nil
		}
	}

	records, err := readRecords(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := w.timeline.AppendRecords(ctx, records); err != nil {
		return err
	}
	logger.Info("watch: merged %d rows from %s into timeline", len(records), name)

	_, err = w.bus.Publish(ctx, domain.Event{
		Kind:        domain.KindTimelineMerged,
		FileRelpath: name,
		Title:       "Merged into timeline: " + name,
		Details: map[string]any{
			domain.DetailSource: key,
			domain.DetailRows:   len(records),
		},
	})
	return err
}

// readRecords reads a CSV with a header row as column-keyed records.
func readRecords(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var records []map[string]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		record := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				record[strings.TrimSpace(col)] = row[i]
			}
		}
		records = append(records, record)
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

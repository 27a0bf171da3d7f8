package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

func relpaths(events []domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.FileRelpath
	}
	return out
}

func TestWatcher_Scan(t *testing.T) {
	t.Run("submits new regular files only", func(t *testing.T) {
		h := newHarness(t)
		h.writeFile(t, "b.pdf", "b")
		h.writeFile(t, "a.txt", "a")
		h.writeFile(t, ".hidden.txt", "h")
		h.writeFile(t, "NewNote.csv", "Filename\n")
		h.writeFile(t, "OCR_batch.csv", "Filename\n")
		h.writeFile(t, "case_updates.json", "{}")
		require.NoError(t, os.MkdirAll(filepath.Join(h.watchDir, "folder"), 0o755))

		n, err := h.watcher.Scan(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"a.txt", "b.pdf"}, relpaths(h.find(t, domain.KindIntake)))
	})

	t.Run("rescans and restarts never resubmit", func(t *testing.T) {
		h := newHarness(t)
		h.writeFile(t, "a.txt", "a")
		ctx := context.Background()

		n, err := h.watcher.Scan(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		n, err = h.watcher.Scan(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		restarted := NewWatcher(h.watchDir, h.dataDir, time.Second,
			NewIntakeService(h.watchDir, h.bus, h.events, h.gate, h.engine, h.recorder),
			h.bus, h.events, h.timeline)
		n, err = restarted.Scan(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		h.writeFile(t, "b.txt", "b")
		n, err = restarted.Scan(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Len(t, h.find(t, domain.KindIntake), 2)
	})

	t.Run("store failure stops the scan", func(t *testing.T) {
		h := newHarness(t)
		h.writeFile(t, "a.txt", "a")
		h.events.FailAppends(assert.AnError)

		_, err := h.watcher.Scan(context.Background())

		assert.ErrorIs(t, err, domain.ErrStoreIO)
	})

	t.Run("cancellation stops before the next file", func(t *testing.T) {
		h := newHarness(t)
		h.writeFile(t, "a.txt", "a")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		n, err := h.watcher.Scan(ctx)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, n)
		assert.Empty(t, h.find(t, domain.KindIntake))
	})
}

func TestWatcher_ControlFiles(t *testing.T) {
	writeMarker := func(t *testing.T, h *harness, content string) string {
		t.Helper()
		path := filepath.Join(h.dataDir, domain.ControlUpdateMarker)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("note marker merges NewNote.csv", func(t *testing.T) {
		h := newHarness(t)
		notes := h.writeFile(t, "NewNote.csv", "Date,Filename,Note\n2024-03-01,letter.pdf,called the clinic\n")
		marker := writeMarker(t, h, `{"type":"new_note","eventId":"e1"}`)

		_, err := h.watcher.Scan(context.Background())
		require.NoError(t, err)

		rows := h.rows(t)
		require.Len(t, rows, 1)
		assert.Equal(t, "called the clinic", rows[0][domain.ColumnNote])
		assert.Equal(t, "letter.pdf", rows[0][domain.ColumnFilename])
		assert.NoFileExists(t, notes)
		assert.NoFileExists(t, marker)
		assert.Len(t, h.find(t, domain.KindTimelineMerged), 1)
	})

	t.Run("batch outputs merge once", func(t *testing.T) {
		h := newHarness(t)
		h.writeFile(t, "OCR_batch1.csv", "Filename,Status\nscan1.pdf,processed\nscan2.pdf,processed\n")
		ctx := context.Background()

		writeMarker(t, h, `{"type":"ocr_complete"}`)
		_, err := h.watcher.Scan(ctx)
		require.NoError(t, err)
		writeMarker(t, h, `{"type":"ocr_complete"}`)
		_, err = h.watcher.Scan(ctx)
		require.NoError(t, err)

		assert.Len(t, h.rows(t), 2)
		merged := h.find(t, domain.KindTimelineMerged)
		require.Len(t, merged, 1)
		assert.Equal(t, 2, merged[0].DetailInt(domain.DetailRows))
		assert.FileExists(t, filepath.Join(h.watchDir, "OCR_batch1.csv"))
	})

	t.Run("no marker means no merge", func(t *testing.T) {
		h := newHarness(t)
		h.writeFile(t, "NewNote.csv", "Note\nhello\n")

		_, err := h.watcher.Scan(context.Background())
		require.NoError(t, err)

		assert.Empty(t, h.rows(t))
		assert.FileExists(t, filepath.Join(h.watchDir, "NewNote.csv"))
	})

	t.Run("malformed marker is still cleared", func(t *testing.T) {
		h := newHarness(t)
		marker := writeMarker(t, h, "not json")

		_, err := h.watcher.Scan(context.Background())
		require.NoError(t, err)

		assert.NoFileExists(t, marker)
	})
}

func TestWatcher_Run(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.watcher.Run(ctx) }()

	h.writeFile(t, "late.txt", "arrived after start")

	require.Eventually(t, func() bool {
		return len(h.find(t, domain.KindIntake)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

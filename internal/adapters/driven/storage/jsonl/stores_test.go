package jsonl

import (
	"context"
	"os"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

func TestCursorStore_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := NewCursorStore(dir)
	cur, err := store.Get(ctx, "extraction-engine")
	require.NoError(t, err)
	assert.Equal(t, domain.Cursor(0), cur)

	require.NoError(t, store.Save(ctx, "extraction-engine", 7))
	require.NoError(t, store.Save(ctx, "dedupe-gate", 3))

	reopened := NewCursorStore(dir)
	cur, err = reopened.Get(ctx, "extraction-engine")
	require.NoError(t, err)
	assert.Equal(t, domain.Cursor(7), cur)
	cur, err = reopened.Get(ctx, "dedupe-gate")
	require.NoError(t, err)
	assert.Equal(t, domain.Cursor(3), cur)
}

func TestCursorStore_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CursorsFileName), []byte("{"), 0o644))

	_, err := NewCursorStore(dir).Get(context.Background(), "x")

	assert.ErrorIs(t, err, domain.ErrStoreIO)
}

func TestFingerprintStore_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	now := time.Now().UTC()

	store := NewFingerprintStore(dir)
	require.NoError(t, store.Record(ctx, domain.FingerprintRecord{
		Fingerprint: "fp1", FileRelpath: "lease.pdf", GroupKey: "lease",
		Decision: domain.DedupeAccepted, Current: true, SeenAt: now,
	}, ""))
	require.NoError(t, store.Record(ctx, domain.FingerprintRecord{
		Fingerprint: "fp2", FileRelpath: "lease (1).pdf", GroupKey: "lease",
		Decision: domain.DedupeSuperseded, Current: true, SeenAt: now.Add(time.Second),
	}, "fp1"))

	reopened := NewFingerprintStore(dir)
	cur, err := reopened.CurrentForGroup(ctx, "lease")
	require.NoError(t, err)
	assert.Equal(t, domain.Fingerprint("fp2"), cur.Fingerprint)

	old, err := reopened.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.False(t, old.Current)
	assert.Equal(t, domain.DedupeAccepted, old.Decision)

	_, err = reopened.Get(ctx, "fp3")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Two stores on one directory stand in for two intake processes.
func TestFingerprintStore_SeparateInstancesKeepAllRecords(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	a, b := NewFingerprintStore(dir), NewFingerprintStore(dir)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		store := a
		if i%2 == 1 {
			store = b
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Record(ctx, domain.FingerprintRecord{
				Fingerprint: domain.Fingerprint(fmt.Sprintf("fp%02d", i)),
				FileRelpath: fmt.Sprintf("doc%02d.pdf", i),
				Decision:    domain.DedupeAccepted,
				Current:     true,
				SeenAt:      time.Now(),
			}, ""))
		}(i)
	}
	wg.Wait()

	reopened := NewFingerprintStore(dir)
	for i := 0; i < 20; i++ {
		_, err := reopened.Get(ctx, domain.Fingerprint(fmt.Sprintf("fp%02d", i)))
		assert.NoError(t, err, "fp%02d", i)
	}
}

func TestCursorStore_SeparateInstancesKeepAllCursors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	a, b := NewCursorStore(dir), NewCursorStore(dir)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		store := a
		if i%2 == 0 {
			store = b
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Save(ctx, fmt.Sprintf("consumer-%d", i), domain.Cursor(i)))
		}(i)
	}
	wg.Wait()

	reopened := NewCursorStore(dir)
	for i := 1; i <= 20; i++ {
		cur, err := reopened.Get(ctx, fmt.Sprintf("consumer-%d", i))
		require.NoError(t, err)
		assert.Equal(t, domain.Cursor(i), cur)
	}
}

package jsonl

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *EventStore {
	t.Helper()
	store, err := NewEventStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func intakeEvent(id, relpath string) *domain.Event {
	return &domain.Event{
		ID:          id,
		TS:          time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Type:        domain.KindIntake,
		Kind:        domain.KindIntake,
		FileRelpath: relpath,
	}
}

func TestEventStore_EmptyStream(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	head, err := store.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Cursor(0), head)

	batch, err := store.ReadAfter(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, batch.Events)
	assert.Equal(t, domain.Cursor(0), batch.Next)
}

func TestEventStore_AppendAssignsLineNumbers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		pos, err := store.Append(ctx, intakeEvent(fmt.Sprintf("e%d", i), fmt.Sprintf("f%d.pdf", i)))
		require.NoError(t, err)
		assert.Equal(t, domain.Cursor(i), pos)
	}

	batch, err := store.ReadAfter(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, batch.Events, 2)
	assert.Equal(t, "e2", batch.Events[0].ID)
	assert.Equal(t, domain.Cursor(2), batch.Events[0].Seq)
	assert.Equal(t, domain.Cursor(3), batch.Next)
}

func TestEventStore_SecondInstanceSeesAppends(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	writerA, err := NewEventStore(dir)
	require.NoError(t, err)
	writerB, err := NewEventStore(dir)
	require.NoError(t, err)

	_, err = writerA.Append(ctx, intakeEvent("a", "a.pdf"))
	require.NoError(t, err)
	pos, err := writerB.Append(ctx, intakeEvent("b", "b.pdf"))
	require.NoError(t, err)
	assert.Equal(t, domain.Cursor(2), pos)

	pos, err = writerA.Append(ctx, intakeEvent("c", "c.pdf"))
	require.NoError(t, err)
	assert.Equal(t, domain.Cursor(3), pos)
}

func TestEventStore_ConcurrentAppends(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Append(ctx, intakeEvent(fmt.Sprintf("e%d", i), "x.pdf"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	batch, err := store.ReadAfter(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, batch.Events, 20)
	assert.Empty(t, batch.Skipped)
}

func TestEventStore_CorruptLineIsSkipped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, intakeEvent("a", "a.pdf"))
	require.NoError(t, err)

	f, err := os.OpenFile(store.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"id\": \"torn\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = store.Append(ctx, intakeEvent("c", "c.pdf"))
	require.NoError(t, err)

	batch, err := store.ReadAfter(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, batch.Events, 2)
	require.Len(t, batch.Skipped, 1)
	assert.Equal(t, int64(2), batch.Skipped[0].Position)
	assert.Equal(t, domain.Cursor(3), batch.Next)
}

func TestEventStore_TornTailIsTerminated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, intakeEvent("a", "a.pdf"))
	require.NoError(t, err)

	f, err := os.OpenFile(store.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"id":"half`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// The partial tail is invisible until something terminates it.
	head, err := store.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Cursor(1), head)

	pos, err := store.Append(ctx, intakeEvent("b", "b.pdf"))
	require.NoError(t, err)
	assert.Equal(t, domain.Cursor(3), pos)

	batch, err := store.ReadAfter(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, batch.Events, 2)
	assert.Equal(t, "b", batch.Events[1].ID)
	assert.Len(t, batch.Skipped, 1)
}

func TestEventStore_Find(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, intakeEvent("i1", "a.pdf"))
	require.NoError(t, err)
	_, err = store.Append(ctx, &domain.Event{
		ID: "t1", Kind: domain.KindTextReady, FileRelpath: "a.pdf",
		Details: map[string]any{domain.DetailIntakeID: "i1"},
	})
	require.NoError(t, err)

	found, err := store.Find(ctx, domain.EventFilter{IntakeID: "i1"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = store.Find(ctx, domain.EventFilter{Kind: domain.KindTextReady})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, domain.Cursor(2), found[0].Seq)
}

func TestEventStore_ReadAfterHonoursContext(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Append(context.Background(), intakeEvent("a", "a.pdf"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.ReadAfter(ctx, 0, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

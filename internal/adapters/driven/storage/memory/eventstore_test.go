package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

func appendN(t *testing.T, store *EventStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		e := &domain.Event{ID: fmt.Sprintf("e%d", i+1), Kind: domain.KindIntake, FileRelpath: fmt.Sprintf("f%d.pdf", i+1)}
		_, err := store.Append(context.Background(), e)
		require.NoError(t, err)
	}
}

func TestEventStore_Append(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	e := &domain.Event{ID: "a", Kind: domain.KindIntake}
	pos, err := store.Append(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, domain.Cursor(1), pos)
	assert.Equal(t, domain.Cursor(1), e.Seq)

	head, err := store.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Cursor(1), head)

	_, err = store.Append(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEventStore_Append_Failure(t *testing.T) {
	store := NewEventStore()
	store.FailAppends(errors.New("disk gone"))

	_, err := store.Append(context.Background(), &domain.Event{ID: "a"})

	assert.ErrorIs(t, err, domain.ErrStoreIO)
	head, _ := store.Head(context.Background())
	assert.Equal(t, domain.Cursor(0), head)
}

func TestEventStore_ReadAfter(t *testing.T) {
	store := NewEventStore()
	appendN(t, store, 5)
	ctx := context.Background()

	t.Run("from beginning", func(t *testing.T) {
		batch, err := store.ReadAfter(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, batch.Events, 5)
		assert.Equal(t, "e1", batch.Events[0].ID)
		assert.Equal(t, domain.Cursor(5), batch.Next)
	})

	t.Run("from cursor with limit", func(t *testing.T) {
		batch, err := store.ReadAfter(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, batch.Events, 2)
		assert.Equal(t, "e3", batch.Events[0].ID)
		assert.Equal(t, domain.Cursor(3), batch.Events[0].Seq)
		assert.Equal(t, domain.Cursor(4), batch.Next)
	})

	t.Run("at head", func(t *testing.T) {
		batch, err := store.ReadAfter(ctx, 5, 10)
		require.NoError(t, err)
		assert.Empty(t, batch.Events)
		assert.Equal(t, domain.Cursor(5), batch.Next)
	})
}

func TestEventStore_ReadAfter_SkipsCorrupt(t *testing.T) {
	store := NewEventStore()
	appendN(t, store, 1)
	store.AppendRaw([]byte("{not json"))
	appendN(t, store, 1)

	batch, err := store.ReadAfter(context.Background(), 0, 0)

	require.NoError(t, err)
	assert.Len(t, batch.Events, 2)
	require.Len(t, batch.Skipped, 1)
	assert.Equal(t, int64(2), batch.Skipped[0].Position)
	assert.ErrorIs(t, batch.Skipped[0], domain.ErrDecode)
	assert.Equal(t, domain.Cursor(3), batch.Next)
}

func TestEventStore_Find(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()
	_, _ = store.Append(ctx, &domain.Event{ID: "i1", Kind: domain.KindIntake, FileRelpath: "a.pdf"})
	_, _ = store.Append(ctx, &domain.Event{ID: "d1", Kind: domain.KindDedupe, FileRelpath: "a.pdf",
		Details: map[string]any{domain.DetailIntakeID: "i1"}})
	_, _ = store.Append(ctx, &domain.Event{ID: "i2", Kind: domain.KindIntake, FileRelpath: "b.pdf"})

	intakes, err := store.Find(ctx, domain.EventFilter{Kind: domain.KindIntake})
	require.NoError(t, err)
	assert.Len(t, intakes, 2)

	forItem, err := store.Find(ctx, domain.EventFilter{IntakeID: "i1"})
	require.NoError(t, err)
	assert.Len(t, forItem, 2)

	byPath, err := store.Find(ctx, domain.EventFilter{Kind: domain.KindIntake, FileRelpath: "b.pdf"})
	require.NoError(t, err)
	require.Len(t, byPath, 1)
	assert.Equal(t, domain.Cursor(3), byPath[0].Seq)
}

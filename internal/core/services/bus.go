package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
	"github.com/custodia-labs/intake-cli/internal/logger"
)

// Ensure Bus implements the interface.
var _ driving.EventBus = (*Bus)(nil)

// DefaultBatchSize is how many records a consumer reads per poll.
const DefaultBatchSize = 256

// Bus publishes to and reads from the single event stream.
type Bus struct {
	store        driven.EventStore
	cursors      driven.CursorStore
	pollInterval time.Duration
	batchSize    int
	runID        string
	now          func() time.Time
}

// NewBus creates a bus over an event store.
// Consumers poll for new events every pollInterval once they are caught up.
func NewBus(store driven.EventStore, cursors driven.CursorStore, pollInterval time.Duration) *Bus {
	if pollInterval <= 0 {
		pollInterval = domain.DefaultPipelineConfig().PollInterval
	}
	return &Bus{
		store:        store,
		cursors:      cursors,
		pollInterval: pollInterval,
		batchSize:    DefaultBatchSize,
		runID:        uuid.New().String(),
		now:          time.Now,
	}
}

// RunID identifies this process in the details of every event it publishes.
func (b *Bus) RunID() string {
	return b.runID
}

// Publish fills in the ID, timestamp and type of an event and appends it.
func (b *Bus) Publish(ctx context.Context, event domain.Event) (domain.Event, error) {
	if event.Kind == "" {
		event.Kind = event.Type
	}
	if event.Kind == "" {
		return domain.Event{}, domain.ErrInvalidInput
	}
	event.Type = event.Kind
	if event.TS.IsZero() {
		event.TS = b.now().UTC()
	}
	if event.ID == "" {
		event.ID = domain.NewEventID(event.FileRelpath, event.Kind, event.TS)
	}

	details := make(map[string]any, len(event.Details)+1)
	for k, v := range event.Details {
		details[k] = v
	}
	if _, ok := details[domain.DetailRunID]; !ok {
		details[domain.DetailRunID] = b.runID
	}
	event.Details = details

	if _, err := b.store.Append(ctx, &event); err != nil {
		return domain.Event{}, err
	}
	logger.Debug("published %s for %s at %d", event.Kind, event.FileRelpath, event.Seq)
	return event, nil
}

// Replay returns every event after cursor that exists now.
func (b *Bus) Replay(ctx context.Context, cursor domain.Cursor) ([]domain.Event, error) {
	var out []domain.Event
	for {
		batch, err := b.store.ReadAfter(ctx, cursor, b.batchSize)
		if err != nil {
			return out, err
		}
		logSkipped("replay", batch.Skipped)
		out = append(out, batch.Events...)
		if batch.Next <= cursor {
			return out, nil
		}
		cursor = batch.Next
	}
}

// Consume streams events after cursor, then polls for new ones until ctx is done.
// A read failure is sent on the error channel and ends the stream.
func (b *Bus) Consume(ctx context.Context, cursor domain.Cursor) (<-chan domain.Event, <-chan error) {
	events := make(chan domain.Event)
	errc := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errc)

		for {
			batch, err := b.store.ReadAfter(ctx, cursor, b.batchSize)
			if err != nil {
				if ctx.Err() == nil {
					errc <- err
				}
				return
			}
			logSkipped("consume", batch.Skipped)
			for _, event := range batch.Events {
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}

			if batch.Next > cursor {
				cursor = batch.Next
				continue
			}
			if !b.wait(ctx) {
				return
			}
		}
	}()

	return events, errc
}

// Subscribe runs handler for every event after the consumer's saved cursor.
// The cursor is saved after each event, so a crash replays at most the event
// in flight. Handler errors are logged and skipped; a store failure ends the
// subscription with that error. Cancellation ends it with nil, before the next
// event is started.
func (b *Bus) Subscribe(ctx context.Context, consumer string, handler driving.Handler) error {
	if consumer == "" || handler == nil {
		return domain.ErrInvalidInput
	}

	cursor, err := b.cursors.Get(ctx, consumer)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	logger.Debug("%s: resuming after %d", consumer, cursor)

	// Cursor writes must land even when the stop signal arrives mid-event.
	saveCtx := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			return nil
		}

		batch, err := b.store.ReadAfter(ctx, cursor, b.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		logSkipped(consumer, batch.Skipped)

		for _, event := range batch.Events {
			if ctx.Err() != nil {
				return nil
			}
			if err := handler(ctx, event); err != nil {
				// Stopped mid-event: leave the cursor so the event is replayed.
				if ctx.Err() != nil {
					return nil
				}
				if errors.Is(err, domain.ErrStoreIO) {
					return err
				}
				logger.Error("%s: %s %s: %v", consumer, event.Kind, event.FileRelpath, err)
			}
			cursor = event.Seq
			if err := b.cursors.Save(saveCtx, consumer, cursor); err != nil {
				return err
			}
		}

		if batch.Next > cursor {
			cursor = batch.Next
			if err := b.cursors.Save(saveCtx, consumer, cursor); err != nil {
				return err
			}
			continue
		}
		if len(batch.Events) > 0 {
			continue
		}
		if !b.wait(ctx) {
			return nil
		}
	}
}

// Drain runs handler for the consumer's events up to the current head of the
// stream and returns. It finishes work a stopped subscription left behind, so
// it should be given a context that outlives the stop signal.
func (b *Bus) Drain(ctx context.Context, consumer string, handler driving.Handler) error {
	if consumer == "" || handler == nil {
		return domain.ErrInvalidInput
	}

	cursor, err := b.cursors.Get(ctx, consumer)
	if err != nil {
		return err
	}
	head, err := b.store.Head(ctx)
	if err != nil {
		return err
	}

	for cursor < head {
		batch, err := b.store.ReadAfter(ctx, cursor, b.batchSize)
		if err != nil {
			return err
		}
		logSkipped(consumer, batch.Skipped)

		for _, event := range batch.Events {
			if event.Seq > head {
				return nil
			}
			if err := handler(ctx, event); err != nil {
				if errors.Is(err, domain.ErrStoreIO) {
					return err
				}
				logger.Error("%s: %s %s: %v", consumer, event.Kind, event.FileRelpath, err)
			}
			cursor = event.Seq
			if err := b.cursors.Save(ctx, consumer, cursor); err != nil {
				return err
			}
		}

		if batch.Next <= cursor {
			return nil
		}
		cursor = batch.Next
		if err := b.cursors.Save(ctx, consumer, cursor); err != nil {
			return err
		}
	}
	return nil
}

// wait sleeps for one poll interval. It returns false if ctx ended first.
func (b *Bus) wait(ctx context.Context) bool {
	timer := time.NewTimer(b.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func logSkipped(consumer string, skipped []*domain.DecodeError) {
	for _, derr := range skipped {
		logger.Warn("%s: skipping record: %v", consumer, derr)
	}
}

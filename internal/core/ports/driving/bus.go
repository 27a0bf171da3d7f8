package driving

import (
	"context"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// Handler processes one event for a named consumer.
// Returning an error does not stop the consumer; only store failures and
// cancellation do.
type Handler func(ctx context.Context, event domain.Event) error

// EventBus publishes and consumes the single ordered event stream.
type EventBus interface {
	// Publish appends an event and returns it as stored (ID, timestamp and
	// position filled in). It never drops an event silently.
	Publish(ctx context.Context, event domain.Event) (domain.Event, error)

	// Replay returns every event after cursor that exists now.
	Replay(ctx context.Context, cursor domain.Cursor) ([]domain.Event, error)

	// Consume yields events after cursor in append order, then keeps polling
	// for new ones until ctx is done. Both channels close when it stops.
	Consume(ctx context.Context, cursor domain.Cursor) (<-chan domain.Event, <-chan error)

	// Subscribe runs handler for a named consumer from its saved cursor,
	// saving the cursor after each event. It blocks until ctx is done or the
	// store fails.
	Subscribe(ctx context.Context, consumer string, handler Handler) error

	// Drain runs handler for a named consumer from its saved cursor up to the
	// events that exist now, then returns.
	Drain(ctx context.Context, consumer string, handler Handler) error
}

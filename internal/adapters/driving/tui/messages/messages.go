// Package messages defines Bubbletea message types for the monitor.
package messages

import (
	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// EventReceived carries one event from the stream.
type EventReceived struct {
	Event domain.Event
}

// StreamEnded is sent when the event stream closes. Err is nil on a clean stop.
type StreamEnded struct {
	Err error
}

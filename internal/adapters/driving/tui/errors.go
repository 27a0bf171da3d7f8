package tui

import "errors"

// ErrMissingEventBus is returned when the event bus is not provided.
var ErrMissingEventBus = errors.New("tui: event bus is required")

// Package tui provides a live terminal monitor for the event stream.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports the monitor needs.
type Ports struct {
	// Bus is the event stream to tail.
	Bus driving.EventBus

	// From is the position to start reading after. Zero replays everything,
	// so outcome counts cover the whole history.
	From domain.Cursor
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Bus == nil {
		return ErrMissingEventBus
	}
	return nil
}

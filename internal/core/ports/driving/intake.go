package driving

import (
	"context"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// IntakeService brings files into the pipeline.
type IntakeService interface {
	// Route classifies a file by extension without side effects.
	Route(path string) domain.Route

	// Submit records a file as seen by publishing its intake event.
	// Downstream consumers pick it up from the stream.
	Submit(ctx context.Context, path string, meta domain.Classification) (*domain.IntakeNotification, error)

	// ProcessFile submits a file and drives it through dedupe, extraction and
	// recording in-process. Exactly one timeline row is written whatever happens.
	ProcessFile(ctx context.Context, path string, meta domain.Classification) (*domain.Outcome, error)
}

// Pipeline runs the watch loop and every consumer until stopped.
type Pipeline interface {
	// Run blocks until ctx is done or a store fails.
	Run(ctx context.Context) error
}

// ReportService answers read-only queries about pipeline state.
type ReportService interface {
	// Status returns the current status of a file.
	Status(ctx context.Context, filename string) (*domain.ProcessingStatus, error)

	// Statuses returns all current statuses keyed by filename.
	Statuses(ctx context.Context) (map[string]domain.ProcessingStatus, error)

	// Timeline returns all timeline rows.
	Timeline(ctx context.Context) ([]map[string]string, error)

	// Capabilities returns the probed extraction capabilities.
	Capabilities() domain.Capabilities
}

package services

import (
	"context"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
)

// Ensure ReportService implements the interface.
var _ driving.ReportService = (*ReportService)(nil)

// ReportService answers read-only queries about pipeline state.
type ReportService struct {
	statuses driven.StatusStore
	timeline driven.TimelineWriter
	caps     domain.Capabilities
}

// NewReportService creates a report service.
func NewReportService(
	statuses driven.StatusStore, timeline driven.TimelineWriter, caps domain.Capabilities,
) *ReportService {
	return &ReportService{statuses: statuses, timeline: timeline, caps: caps}
}

// Status returns the current status of a file.
func (s *ReportService) Status(ctx context.Context, filename string) (*domain.ProcessingStatus, error) {
	return s.statuses.Get(ctx, filename)
}

// Statuses returns all current statuses.
func (s *ReportService) Statuses(ctx context.Context) (map[string]domain.ProcessingStatus, error) {
	return s.statuses.List(ctx)
}

// Timeline returns all timeline rows.
func (s *ReportService) Timeline(ctx context.Context) ([]map[string]string, error) {
	return s.timeline.List(ctx)
}

// Capabilities returns the probed extraction capabilities.
func (s *ReportService) Capabilities() domain.Capabilities {
	return s.caps
}

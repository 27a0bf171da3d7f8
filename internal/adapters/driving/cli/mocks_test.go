package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
)

// mockIntakeService implements driving.IntakeService for testing.
type mockIntakeService struct {
	outcomes map[string]*domain.Outcome
	errs     map[string]error
	meta     []domain.Classification
}

func (m *mockIntakeService) Route(path string) domain.Route {
	if filepath.Ext(path) == ".pdf" {
		return domain.Route{
			Extension:   ".pdf",
			Capability:  domain.CapabilityDocument,
			Handler:     "ocr/extract",
			Destination: domain.DestinationDatabase,
			Action:      domain.ActionExtractText,
			CanProcess:  true,
			Reason:      "Supported format: .pdf",
		}
	}
	return domain.Route{
		Extension:   filepath.Ext(path),
		Capability:  domain.CapabilityUnsupported,
		Destination: domain.DestinationGenerated,
		Action:      domain.ActionSkip,
		Reason:      "Unsupported format: " + filepath.Ext(path),
	}
}

func (m *mockIntakeService) Submit(
	_ context.Context, path string, _ domain.Classification,
) (*domain.IntakeNotification, error) {
	return &domain.IntakeNotification{Relpath: filepath.Base(path)}, nil
}

func (m *mockIntakeService) ProcessFile(
	_ context.Context, path string, meta domain.Classification,
) (*domain.Outcome, error) {
	m.meta = append(m.meta, meta)
	if err := m.errs[path]; err != nil {
		return nil, err
	}
	if o, ok := m.outcomes[path]; ok {
		return o, nil
	}
	return &domain.Outcome{
		Notification: domain.IntakeNotification{Relpath: filepath.Base(path)},
		Status:       domain.StatusProcessed,
	}, nil
}

// mockPipeline implements driving.Pipeline for testing.
type mockPipeline struct {
	err error
	ran bool
}

func (m *mockPipeline) Run(context.Context) error {
	m.ran = true
	return m.err
}

// mockEventBus implements driving.EventBus for testing.
type mockEventBus struct {
	events []domain.Event
	err    error
}

func (m *mockEventBus) Publish(_ context.Context, e domain.Event) (domain.Event, error) {
	return e, nil
}

func (m *mockEventBus) Replay(_ context.Context, cursor domain.Cursor) ([]domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Event
	for _, e := range m.events {
		if e.Seq > cursor {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEventBus) Consume(ctx context.Context, cursor domain.Cursor) (<-chan domain.Event, <-chan error) {
	events := make(chan domain.Event)
	errc := make(chan error, 1)
	go func() {
		defer close(events)
		defer close(errc)
		batch, err := m.Replay(ctx, cursor)
		if err != nil {
			errc <- err
			return
		}
		for _, e := range batch {
			events <- e
		}
	}()
	return events, errc
}

func (m *mockEventBus) Subscribe(context.Context, string, driving.Handler) error {
	return nil
}

func (m *mockEventBus) Drain(context.Context, string, driving.Handler) error {
	return nil
}

// mockReportService implements driving.ReportService for testing.
type mockReportService struct {
	statuses map[string]domain.ProcessingStatus
	rows     []map[string]string
	caps     domain.Capabilities
}

func (m *mockReportService) Status(_ context.Context, filename string) (*domain.ProcessingStatus, error) {
	s, ok := m.statuses[filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *mockReportService) Statuses(context.Context) (map[string]domain.ProcessingStatus, error) {
	return m.statuses, nil
}

func (m *mockReportService) Timeline(context.Context) ([]map[string]string, error) {
	return m.rows, nil
}

func (m *mockReportService) Capabilities() domain.Capabilities {
	return m.caps
}

// setupServices installs s for one test and resets command flags afterwards.
func setupServices(t *testing.T, s *Services) {
	t.Helper()
	SetServices(s)
	t.Cleanup(func() {
		SetServices(nil)
		processCategories, processFlags, processNote = nil, nil, ""
		eventsFrom, eventsKind, eventsFollow, eventsOutput = 0, "", false, outputText
		timelineLimit = 0
		monitorFrom = 0
	})
}

// execute runs the root command with args and returns stdout and stderr.
func execute(args ...string) (string, string, error) {
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

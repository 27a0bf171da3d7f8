package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
	"github.com/custodia-labs/intake-cli/internal/logger"
)

// Ensure IntakeService implements the interface.
var _ driving.IntakeService = (*IntakeService)(nil)

// IntakeService brings files into the pipeline, either by publishing them for
// the consumers or by driving them through in-process.
type IntakeService struct {
	watchDir string
	router   Router
	bus      driving.EventBus
	events   driven.EventStore
	gate     *DedupeGate
	engine   *ExtractionEngine
	recorder *TimelineRecorder
}

// NewIntakeService creates an intake service. Relative paths in events are
// computed against watchDir.
func NewIntakeService(
	watchDir string,
	bus driving.EventBus,
	events driven.EventStore,
	gate *DedupeGate,
	engine *ExtractionEngine,
	recorder *TimelineRecorder,
) *IntakeService {
	if abs, err := filepath.Abs(watchDir); err == nil {
		watchDir = abs
	}
	return &IntakeService{
		watchDir: watchDir,
		router:   NewRouter(),
		bus:      bus,
		events:   events,
		gate:     gate,
		engine:   engine,
		recorder: recorder,
	}
}

// Route classifies a file by extension.
func (s *IntakeService) Route(path string) domain.Route {
	return s.router.Resolve(path)
}

// Relpath returns path relative to the watch directory, or its base name
// when it lies outside it.
func (s *IntakeService) Relpath(path string) string {
	rel, err := filepath.Rel(s.watchDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// Seen reports whether an intake event exists for relpath.
func (s *IntakeService) Seen(ctx context.Context, relpath string) (bool, error) {
	events, err := s.events.Find(ctx, domain.EventFilter{Kind: domain.KindIntake, FileRelpath: relpath})
	if err != nil {
		return false, err
	}
	return len(events) > 0, nil
}

// Submit publishes the intake event for a regular file.
func (s *IntakeService) Submit(
	ctx context.Context, path string, meta domain.Classification,
) (*domain.IntakeNotification, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file: %w", path, domain.ErrInvalidInput)
	}

	n := domain.IntakeNotification{
		Path:           abs,
		Relpath:        s.Relpath(abs),
		Size:           info.Size(),
		ModTime:        info.ModTime(),
		Route:          s.router.Resolve(abs),
		Classification: meta,
	}

	event, err := s.bus.Publish(ctx, domain.Event{
		Kind:        domain.KindIntake,
		FileRelpath: n.Relpath,
		Title:       "New file: " + filepath.Base(abs),
		Details:     n.Details(),
	})
	if err != nil {
		return nil, err
	}
	n.IntakeID = event.ID
	logger.Info("intake: %s (%s, %d bytes)", n.Relpath, n.Route.Capability, n.Size)
	return &n, nil
}

// ProcessFile submits a file and drives it through dedupe, extraction and
// recording without waiting for the consumers. Exactly one timeline row is
// written for the file on every exit path once it has been submitted.
func (s *IntakeService) ProcessFile(
	ctx context.Context, path string, meta domain.Classification,
) (outcome *domain.Outcome, err error) {
	n, err := s.Submit(ctx, path, meta)
	if err != nil {
		return nil, err
	}

	out := domain.Outcome{
		IntakeID:     n.IntakeID,
		Notification: *n,
		Status:       domain.StatusError,
		Details:      "processing did not complete",
	}
	recordCtx := context.WithoutCancel(ctx)
	defer func() {
		if r := recover(); r != nil {
			out.Status = domain.StatusError
			out.Details = fmt.Sprintf("panic: %v", r)
		}
		if rerr := s.recorder.RecordOutcome(recordCtx, out); rerr != nil {
			err = errors.Join(err, rerr)
		}
		outcome = &out
	}()

	if !n.Route.CanProcess {
		out.Status = domain.StatusRejected
		out.Details = n.Route.Reason
		return
	}
	if ctx.Err() != nil {
		out.Status = domain.StatusCancelled
		out.Details = "stopped before processing"
		return
	}

	intake := domain.Event{
		ID:          n.IntakeID,
		Kind:        domain.KindIntake,
		FileRelpath: n.Relpath,
		Details:     n.Details(),
	}
	terminal, err := s.gate.process(ctx, intake)
	if err != nil {
		err = s.failed(&out, err)
		return
	}
	if terminal.Kind == domain.KindDedupe &&
		domain.DedupeDecision(terminal.DetailString(domain.DetailStatus)).TriggersExtraction() {
		terminal, err = s.engine.process(ctx, terminal)
		if err != nil {
			err = s.failed(&out, err)
			return
		}
	}

	out = OutcomeForEvent(*n, terminal)
	return
}

// failed fills out from a processing error. An interrupted run is an outcome,
// not a failure of ProcessFile, so its error is dropped.
func (s *IntakeService) failed(out *domain.Outcome, err error) error {
	out.Status = domain.StatusForError(err)
	out.Details = err.Error()
	if domain.IsInterrupted(err) {
		logger.Info("intake: %s %s: %v", out.Notification.Relpath, out.Status, err)
		return nil
	}
	return err
}

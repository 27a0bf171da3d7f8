package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
	"github.com/custodia-labs/intake-cli/internal/logger"
)

// RecorderConsumer is the timeline recorder's cursor name.
const RecorderConsumer = "timeline-recorder"

// TimelineRecorder projects terminal outcomes onto the timeline and the
// status store. Each intake item gets exactly one timeline row.
type TimelineRecorder struct {
	bus      driving.EventBus
	events   driven.EventStore
	timeline driven.TimelineWriter
	statuses driven.StatusStore
	now      func() time.Time
}

// NewTimelineRecorder creates a recorder.
func NewTimelineRecorder(
	bus driving.EventBus,
	events driven.EventStore,
	timeline driven.TimelineWriter,
	statuses driven.StatusStore,
) *TimelineRecorder {
	return &TimelineRecorder{
		bus:      bus,
		events:   events,
		timeline: timeline,
		statuses: statuses,
		now:      time.Now,
	}
}

// RecordOutcome writes the timeline row and status for a terminal outcome.
// Recording an intake item that already has a row is a no-op.
func (r *TimelineRecorder) RecordOutcome(ctx context.Context, outcome domain.Outcome) error {
	if outcome.IntakeID != "" {
		done, err := r.events.Find(ctx, domain.EventFilter{
			Kind:     domain.KindTimelineRecorded,
			IntakeID: outcome.IntakeID,
		})
		if err != nil {
			return err
		}
		if len(done) > 0 {
			return nil
		}
	}

	now := r.now()
	entry := outcome.Entry(now)
	if err := r.timeline.Append(ctx, entry); err != nil {
		return err
	}
	if err := r.statuses.Put(ctx, entry.Filename, domain.ProcessingStatus{
		Status:    outcome.Status,
		Details:   outcome.Details,
		Timestamp: now.UTC(),
	}); err != nil {
		return err
	}

	logger.Info("record: %s %s", outcome.Notification.Relpath, outcome.Status)
	_, err := r.bus.Publish(ctx, domain.Event{
		Kind:        domain.KindTimelineRecorded,
		FileRelpath: outcome.Notification.Relpath,
		Title:       fmt.Sprintf("Timeline %s: %s", outcome.Status, entry.Filename),
		Details: map[string]any{
			domain.DetailIntakeID: outcome.IntakeID,
			domain.DetailStatus:   string(outcome.Status),
		},
	})
	return err
}

// Handle is the consumer entry point. Intake events mark an item queued or
// rejected; terminal events are recorded as outcomes.
func (r *TimelineRecorder) Handle(ctx context.Context, event domain.Event) error {
	switch event.Kind {
	case domain.KindIntake:
		n := domain.NotificationFromEvent(event)
		if !n.Route.CanProcess {
			return r.RecordOutcome(ctx, domain.Outcome{
				IntakeID:     event.ID,
				Notification: n,
				Status:       domain.StatusRejected,
				Details:      n.Route.Reason,
			})
		}
		return r.markQueued(ctx, event, n.Route.Reason)

	case domain.KindDedupe:
		if domain.DedupeDecision(event.DetailString(domain.DetailStatus)).TriggersExtraction() {
			return r.markQueued(ctx, event, "dedupe "+event.DetailString(domain.DetailStatus))
		}
		return r.recordTerminal(ctx, event)

	case domain.KindTextReady, domain.KindItemFailed:
		return r.recordTerminal(ctx, event)

	default:
		return nil
	}
}

// markQueued updates the status of an item that is still in flight, unless
// it has already reached a terminal status.
func (r *TimelineRecorder) markQueued(ctx context.Context, event domain.Event, details string) error {
	name := baseName(event.FileRelpath)
	if current, err := r.statuses.Get(ctx, name); err == nil && current.Status.IsTerminal() &&
		!current.Timestamp.Before(event.TS) {
		return nil
	}
	return r.statuses.Put(ctx, name, domain.ProcessingStatus{
		Status:    domain.StatusQueued,
		Details:   details,
		Timestamp: r.now().UTC(),
	})
}

func (r *TimelineRecorder) recordTerminal(ctx context.Context, event domain.Event) error {
	intakeID := event.IntakeID()
	intakes, err := r.events.Find(ctx, domain.EventFilter{Kind: domain.KindIntake, IntakeID: intakeID})
	if err != nil {
		return err
	}
	if len(intakes) == 0 {
		return fmt.Errorf("intake %s for %s: %w", intakeID, event.FileRelpath, domain.ErrNotFound)
	}
	outcome := OutcomeForEvent(domain.NotificationFromEvent(intakes[0]), event)
	return r.RecordOutcome(ctx, outcome)
}

// OutcomeForEvent maps the event that settled an item to its terminal outcome.
func OutcomeForEvent(n domain.IntakeNotification, event domain.Event) domain.Outcome {
	outcome := domain.Outcome{IntakeID: n.IntakeID, Notification: n, Status: domain.StatusError}

	switch event.Kind {
	case domain.KindTextReady:
		outcome.Status = domain.StatusProcessed
		chars := event.DetailInt(domain.DetailCharCount)
		if chars == 0 {
			outcome.Details = "No text extracted"
		} else {
			outcome.Details = fmt.Sprintf("Extracted %d chars (%d words) via %s",
				chars, event.DetailInt(domain.DetailWordCount), event.DetailString(domain.DetailSource))
		}

	case domain.KindDedupe:
		switch domain.DedupeDecision(event.DetailString(domain.DetailStatus)) {
		case domain.DedupeDuplicate:
			outcome.Status = domain.StatusDuplicate
			outcome.Details = "Duplicate of " + event.DetailString(domain.DetailDuplicateOf)
		default:
			outcome.Status = domain.StatusQueued
		}

	case domain.KindItemFailed:
		status := domain.Status(event.DetailString(domain.DetailStatus))
		if !status.IsTerminal() {
			status = domain.StatusError
		}
		outcome.Status = status
		outcome.Details = fmt.Sprintf("%s: %s", event.DetailString(domain.DetailStage), event.DetailString(domain.DetailError))
	}
	return outcome
}

func baseName(relpath string) string {
	return path.Base(strings.ReplaceAll(relpath, `\`, "/"))
}

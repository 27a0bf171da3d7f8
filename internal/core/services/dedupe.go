package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
	"github.com/custodia-labs/intake-cli/internal/logger"
)

// DedupeConsumer is the dedupe gate's cursor name.
const DedupeConsumer = "dedupe-gate"

// DedupeGate fingerprints intake items and decides whether their content is new.
type DedupeGate struct {
	bus          driving.EventBus
	events       driven.EventStore
	fingerprints driven.FingerprintStore
	policy       driven.GroupingPolicy
	now          func() time.Time
}

// NewDedupeGate creates a dedupe gate.
func NewDedupeGate(
	bus driving.EventBus,
	events driven.EventStore,
	fingerprints driven.FingerprintStore,
	policy driven.GroupingPolicy,
) *DedupeGate {
	if policy == nil {
		policy = NormalizedNamePolicy{}
	}
	return &DedupeGate{
		bus:          bus,
		events:       events,
		fingerprints: fingerprints,
		policy:       policy,
		now:          time.Now,
	}
}

// FingerprintFile returns the SHA-256 digest of a file's bytes.
func FingerprintFile(path string) (domain.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return domain.Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}

// Handle is the consumer entry point. It reacts to routable intake events
// that have no dedupe decision yet.
func (g *DedupeGate) Handle(ctx context.Context, event domain.Event) error {
	if event.Kind != domain.KindIntake || !event.DetailBool(domain.DetailCanProcess) {
		return nil
	}
	_, err := g.process(ctx, event)
	return err
}

// process returns the event that settled the intake item: its dedupe event,
// or item.failed when the file could not be fingerprinted.
func (g *DedupeGate) process(ctx context.Context, intake domain.Event) (domain.Event, error) {
	if prior, ok, err := g.settled(ctx, intake.ID); err != nil || ok {
		return prior, err
	}

	n := domain.NotificationFromEvent(intake)
	event, err := g.Evaluate(ctx, n)
	if err == nil || errors.Is(err, domain.ErrStoreIO) || domain.IsInterrupted(err) {
		return event, err
	}

	logger.Warn("dedupe: %s: %v", n.Relpath, err)
	return g.bus.Publish(ctx, domain.Event{
		Kind:        domain.KindItemFailed,
		FileRelpath: n.Relpath,
		Title:       "Dedupe failed: " + n.Relpath,
		Details: map[string]any{
			domain.DetailIntakeID: intake.ID,
			domain.DetailStage:    "dedupe",
			domain.DetailStatus:   string(domain.StatusForError(err)),
			domain.DetailError:    err.Error(),
		},
	})
}

// settled returns the event that already settled an intake item, if any.
func (g *DedupeGate) settled(ctx context.Context, intakeID string) (domain.Event, bool, error) {
	events, err := g.events.Find(ctx, domain.EventFilter{IntakeID: intakeID})
	if err != nil {
		return domain.Event{}, false, err
	}
	for _, e := range events {
		if e.Kind == domain.KindDedupe ||
			(e.Kind == domain.KindItemFailed && e.DetailString(domain.DetailStage) == "dedupe") {
			return e, true, nil
		}
	}
	return domain.Event{}, false, nil
}

// Evaluate fingerprints a file, records the decision and publishes it as a
// dedupe event. Errors other than store failures mean the file could not be
// read.
func (g *DedupeGate) Evaluate(ctx context.Context, n domain.IntakeNotification) (domain.Event, error) {
	fp, err := FingerprintFile(n.Path)
	if err != nil {
		return domain.Event{}, fmt.Errorf("fingerprint %s: %w", n.Relpath, err)
	}

	details := map[string]any{
		domain.DetailIntakeID:    n.IntakeID,
		domain.DetailFingerprint: string(fp),
	}

	decision, err := g.decide(ctx, n, fp, details)
	if err != nil {
		return domain.Event{}, err
	}
	details[domain.DetailStatus] = string(decision)

	logger.Info("dedupe: %s %s (%s)", n.Relpath, decision, fp.Short(12))
	return g.bus.Publish(ctx, domain.Event{
		Kind:        domain.KindDedupe,
		FileRelpath: n.Relpath,
		Title:       fmt.Sprintf("Dedupe %s: %s", decision, n.Relpath),
		Details:     details,
	})
}

// decide classifies fp and persists the fingerprint when it becomes current.
func (g *DedupeGate) decide(
	ctx context.Context, n domain.IntakeNotification, fp domain.Fingerprint, details map[string]any,
) (domain.DedupeDecision, error) {
	seen, err := g.fingerprints.Get(ctx, fp)
	switch {
	case err == nil && n.IntakeID != "" && seen.IntakeID == n.IntakeID:
		// Replay of an item whose decision was stored but never published.
		if seen.GroupKey != "" {
			details[domain.DetailGroupKey] = seen.GroupKey
		}
		return seen.Decision, nil
	case err == nil:
		details[domain.DetailDuplicateOf] = seen.FileRelpath
		return domain.DedupeDuplicate, nil
	case !errors.Is(err, domain.ErrNotFound):
		return "", asStoreError("lookup fingerprint", err)
	}

	rec := domain.FingerprintRecord{
		Fingerprint: fp,
		FileRelpath: n.Relpath,
		IntakeID:    n.IntakeID,
		GroupKey:    g.policy.GroupKey(n.Relpath),
		Decision:    domain.DedupeAccepted,
		Current:     true,
		SeenAt:      g.now().UTC(),
	}

	var supersedes domain.Fingerprint
	if rec.GroupKey != "" {
		details[domain.DetailGroupKey] = rec.GroupKey
		current, err := g.fingerprints.CurrentForGroup(ctx, rec.GroupKey)
		switch {
		case err == nil:
			rec.Decision = domain.DedupeSuperseded
			supersedes = current.Fingerprint
			details[domain.DetailSupersedes] = current.FileRelpath
		case !errors.Is(err, domain.ErrNotFound):
			return "", asStoreError("lookup group", err)
		}
	}

	if err := g.fingerprints.Record(ctx, rec, supersedes); err != nil {
		return "", asStoreError("record fingerprint", err)
	}
	return rec.Decision, nil
}

// asStoreError classifies an adapter error as a store failure. Context
// errors pass through unchanged.
func asStoreError(op string, err error) error {
	if errors.Is(err, domain.ErrStoreIO) || domain.IsInterrupted(err) {
		return err
	}
	return domain.NewStoreIOError(op, err)
}

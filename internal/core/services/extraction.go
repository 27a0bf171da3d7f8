package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
	"github.com/custodia-labs/intake-cli/internal/logger"
)

// ExtractionConsumer is the extraction engine's cursor name.
const ExtractionConsumer = "extraction-engine"

// ExtractionEngine turns accepted files into text, preferring the native
// text layer over optical recognition.
type ExtractionEngine struct {
	bus       driving.EventBus
	events    driven.EventStore
	registry  driven.ExtractorRegistry
	ocr       driven.OCREngine
	artifacts driven.ArtifactStore
	timeout   time.Duration
	caps      domain.Capabilities
}

// NewExtractionEngine creates an engine and probes its optional capabilities.
// ocr may be nil, in which case optical recognition is unavailable.
func NewExtractionEngine(
	bus driving.EventBus,
	events driven.EventStore,
	registry driven.ExtractorRegistry,
	ocr driven.OCREngine,
	artifacts driven.ArtifactStore,
	timeout time.Duration,
) *ExtractionEngine {
	if timeout <= 0 {
		timeout = domain.DefaultPipelineConfig().HandlerTimeout
	}
	e := &ExtractionEngine{
		bus:       bus,
		events:    events,
		registry:  registry,
		ocr:       ocr,
		artifacts: artifacts,
		timeout:   timeout,
	}
	_, e.caps.NativePDF = registry.For(domain.CapabilityDocument)
	e.caps.OCR = ocr != nil && ocr.Available()
	e.caps.Rasterize = e.caps.OCR && ocr.CanRasterize()
	return e
}

// Capabilities returns the capability set probed at construction.
func (e *ExtractionEngine) Capabilities() domain.Capabilities {
	return e.caps
}

// Extract obtains text from a file. Extraction failures are logged and fall
// through to the next strategy; the result is empty when nothing worked.
func (e *ExtractionEngine) Extract(ctx context.Context, path string, route domain.Route) domain.ExtractionResult {
	switch route.Capability {
	case domain.CapabilityImage:
		return e.recognizeImage(ctx, path)

	case domain.CapabilityDocument:
		if result := e.native(ctx, path, route.Capability); !result.Empty() {
			return result
		}
		return e.recognizeDocument(ctx, path)

	default:
		if _, ok := e.registry.For(route.Capability); !ok {
			// No structured reader for this kind: read it as plain text.
			return e.native(ctx, path, domain.CapabilityText)
		}
		return e.native(ctx, path, route.Capability)
	}
}

// native reads the text layer with the extractor registered for c.
func (e *ExtractionEngine) native(ctx context.Context, path string, c domain.Capability) domain.ExtractionResult {
	extractor, ok := e.registry.For(c)
	if !ok {
		if c == domain.CapabilityDocument {
			logger.WarnOnce("native-pdf", "no native PDF extractor registered; using OCR only")
		}
		return domain.NewExtractionResult("", domain.MethodNone)
	}
	if ctx.Err() != nil {
		return domain.NewExtractionResult("", domain.MethodNone)
	}

	text, err := extractor.Extract(ctx, path)
	if err != nil {
		logFailure(&domain.ExtractionFailure{Strategy: domain.MethodNative, Path: path, Err: err})
		return domain.NewExtractionResult("", domain.MethodNone)
	}
	return domain.NewExtractionResult(text, domain.MethodNative)
}

func (e *ExtractionEngine) recognizeImage(ctx context.Context, path string) domain.ExtractionResult {
	if !e.caps.OCR {
		logger.WarnOnce("ocr", "optical recognition unavailable; images yield no text")
		return domain.NewExtractionResult("", domain.MethodNone)
	}
	if ctx.Err() != nil {
		return domain.NewExtractionResult("", domain.MethodNone)
	}

	text, err := e.ocr.RecognizeImage(ctx, path)
	if err != nil {
		logFailure(&domain.ExtractionFailure{Strategy: domain.MethodOCR, Path: path, Err: err})
		return domain.NewExtractionResult("", domain.MethodNone)
	}
	result := domain.NewExtractionResult(text, domain.MethodOCR)
	if !result.Empty() {
		result.Pages = 1
	}
	return result
}

func (e *ExtractionEngine) recognizeDocument(ctx context.Context, path string) domain.ExtractionResult {
	if !e.caps.OCR || !e.caps.Rasterize {
		logger.WarnOnce("ocr-documents", "document rasterisation unavailable; documents without a text layer yield no text")
		return domain.NewExtractionResult("", domain.MethodNone)
	}
	if ctx.Err() != nil {
		return domain.NewExtractionResult("", domain.MethodNone)
	}

	pages, err := e.ocr.RecognizeDocument(ctx, path)
	if err != nil {
		logFailure(&domain.ExtractionFailure{Strategy: domain.MethodOCR, Path: path, Err: err})
		return domain.NewExtractionResult("", domain.MethodNone)
	}
	result := domain.NewExtractionResult(strings.Join(pages, "\n\n"), domain.MethodOCR)
	if !result.Empty() {
		result.Pages = len(pages)
	}
	return result
}

func logFailure(err *domain.ExtractionFailure) {
	if errors.Is(err, domain.ErrCapabilityUnavailable) {
		logger.WarnOnce(string(err.Strategy)+"-unavailable", "%v", err)
		return
	}
	logger.Warn("extract: %v", err)
}

// Handle is the consumer entry point. It reacts to dedupe events whose
// decision forwards the item to extraction.
func (e *ExtractionEngine) Handle(ctx context.Context, event domain.Event) error {
	if event.Kind != domain.KindDedupe {
		return nil
	}
	if !domain.DedupeDecision(event.DetailString(domain.DetailStatus)).TriggersExtraction() {
		return nil
	}
	_, err := e.process(ctx, event)
	return err
}

// process extracts one item and returns its terminal event: text.ready on
// success, item.failed otherwise. Exactly one of the two is published
// whatever happens, panics included.
func (e *ExtractionEngine) process(ctx context.Context, dedupe domain.Event) (terminal domain.Event, err error) {
	intakeID := dedupe.IntakeID()
	prior, ok, err := e.settled(ctx, intakeID)
	if err != nil || ok {
		return prior, err
	}
	intakes, err := e.events.Find(ctx, domain.EventFilter{Kind: domain.KindIntake, IntakeID: intakeID})
	if err != nil {
		return domain.Event{}, err
	}
	if len(intakes) == 0 {
		return domain.Event{}, fmt.Errorf("intake %s for %s: %w", intakeID, dedupe.FileRelpath, domain.ErrNotFound)
	}
	n := domain.NotificationFromEvent(intakes[0])

	// Terminal events must be written even when the stop signal arrives mid-file.
	pubCtx := context.WithoutCancel(ctx)
	published := false
	var failure error
	defer func() {
		if r := recover(); r != nil {
			failure = fmt.Errorf("%w: panic: %v", domain.ErrExtraction, r)
		}
		if published {
			return
		}
		if failure == nil {
			failure = fmt.Errorf("%w: no result", domain.ErrExtraction)
		}
		terminal, err = e.publishFailure(pubCtx, n, failure)
	}()

	tctx, cancel := context.WithTimeout(pubCtx, e.timeout)
	defer cancel()

	start := time.Now()
	out, ok := awaitExtraction(tctx, e.extractAsync(tctx, n))
	if !ok {
		failure = fmt.Errorf("%w: %s exceeded %s", domain.ErrHandlerTimeout, n.Relpath, e.timeout)
		return domain.Event{}, nil
	}
	if out.panicked != nil {
		failure = fmt.Errorf("%w: panic: %v", domain.ErrExtraction, out.panicked)
		return domain.Event{}, nil
	}
	result := out.result

	fp := domain.Fingerprint(dedupe.DetailString(domain.DetailFingerprint))
	var location string
	if !result.Empty() {
		location, err = e.artifacts.Put(pubCtx, n.Relpath, fp, result.Text)
		if err != nil {
			failure = fmt.Errorf("store text artifact: %w", err)
			return domain.Event{}, nil
		}
	} else {
		logger.Warn("extract: no text obtained from %s", n.Relpath)
	}

	logger.Info("extract: %s %d chars via %s in %s", n.Relpath, result.CharCount, result.Method,
		time.Since(start).Round(time.Millisecond))
	terminal, err = e.bus.Publish(pubCtx, domain.Event{
		Kind:        domain.KindTextReady,
		FileRelpath: n.Relpath,
		Title:       "Text extracted: " + filepath.Base(n.Relpath),
		Details: map[string]any{
			domain.DetailIntakeID:    intakeID,
			domain.DetailFingerprint: string(fp),
			domain.DetailCharCount:   result.CharCount,
			domain.DetailWordCount:   result.WordCount,
			domain.DetailSource:      string(result.Method),
			domain.DetailArtifact:    location,
			domain.DetailPages:       result.Pages,
		},
	})
	published = true
	return terminal, err
}

type extraction struct {
	result   domain.ExtractionResult
	panicked any
}

// extractAsync runs Extract in its own goroutine so an extractor that ignores
// ctx cannot hold the consumer past its deadline.
func (e *ExtractionEngine) extractAsync(ctx context.Context, n domain.IntakeNotification) <-chan extraction {
	out := make(chan extraction, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				out <- extraction{panicked: r}
			}
		}()
		out <- extraction{result: e.Extract(ctx, n.Path, n.Route)}
	}()
	return out
}

// awaitExtraction waits for the extraction or the deadline. A result that is
// already available wins over an expired deadline; ok is false on timeout.
func awaitExtraction(ctx context.Context, results <-chan extraction) (out extraction, ok bool) {
	select {
	case out = <-results:
		return out, true
	default:
	}
	select {
	case out = <-results:
		return out, true
	case <-ctx.Done():
		select {
		case out = <-results:
			return out, true
		default:
			return extraction{}, false
		}
	}
}

// settled returns the terminal extraction event already published for an item.
func (e *ExtractionEngine) settled(ctx context.Context, intakeID string) (domain.Event, bool, error) {
	events, err := e.events.Find(ctx, domain.EventFilter{IntakeID: intakeID})
	if err != nil {
		return domain.Event{}, false, err
	}
	for _, ev := range events {
		if ev.Kind == domain.KindTextReady ||
			(ev.Kind == domain.KindItemFailed && ev.DetailString(domain.DetailStage) == "extract") {
			return ev, true, nil
		}
	}
	return domain.Event{}, false, nil
}

func (e *ExtractionEngine) publishFailure(
	ctx context.Context, n domain.IntakeNotification, failure error,
) (domain.Event, error) {
	status := domain.StatusForError(failure)
	logger.Error("extract: %s: %v", n.Relpath, failure)
	return e.bus.Publish(ctx, domain.Event{
		Kind:        domain.KindItemFailed,
		FileRelpath: n.Relpath,
		Title:       fmt.Sprintf("Extraction %s: %s", status, filepath.Base(n.Relpath)),
		Details: map[string]any{
			domain.DetailIntakeID: n.IntakeID,
			domain.DetailStage:    "extract",
			domain.DetailStatus:   string(status),
			domain.DetailError:    failure.Error(),
		},
	})
}

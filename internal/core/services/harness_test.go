package services

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intake-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
)

// --- Test doubles ---

// stubExtractor implements driven.Extractor with a configurable function.
type stubExtractor struct {
	name    string
	caps    []domain.Capability
	extract func(ctx context.Context, path string) (string, error)
	calls   atomic.Int32
}

func newStubExtractor(text string, caps ...domain.Capability) *stubExtractor {
	return &stubExtractor{
		name: "stub",
		caps: caps,
		extract: func(context.Context, string) (string, error) {
			return text, nil
		},
	}
}

func (s *stubExtractor) Name() string                      { return s.name }
func (s *stubExtractor) Capabilities() []domain.Capability { return s.caps }

func (s *stubExtractor) Extract(ctx context.Context, path string) (string, error) {
	s.calls.Add(1)
	return s.extract(ctx, path)
}

// stubRegistry implements driven.ExtractorRegistry.
type stubRegistry struct {
	mu         sync.Mutex
	extractors map[domain.Capability]driven.Extractor
}

func newStubRegistry(extractors ...driven.Extractor) *stubRegistry {
	r := &stubRegistry{extractors: make(map[domain.Capability]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

func (r *stubRegistry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range e.Capabilities() {
		r.extractors[c] = e
	}
}

func (r *stubRegistry) For(c domain.Capability) (driven.Extractor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.extractors[c]
	return e, ok
}

func (r *stubRegistry) Capabilities() []domain.Capability {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Capability, 0, len(r.extractors))
	for c := range r.extractors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// mockOCR implements driven.OCREngine using testify/mock.
type mockOCR struct {
	mock.Mock
}

func newMockOCR(available, rasterize bool) *mockOCR {
	m := &mockOCR{}
	m.On("Available").Return(available)
	m.On("CanRasterize").Return(rasterize)
	return m
}

func (m *mockOCR) Available() bool {
	return m.Called().Bool(0)
}

func (m *mockOCR) CanRasterize() bool {
	return m.Called().Bool(0)
}

func (m *mockOCR) RecognizeImage(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

func (m *mockOCR) RecognizeDocument(ctx context.Context, path string) ([]string, error) {
	args := m.Called(ctx, path)
	pages, _ := args.Get(0).([]string)
	return pages, args.Error(1)
}

// --- Harness ---

// harness wires every service over in-memory stores and a temp watch dir.
type harness struct {
	watchDir string
	dataDir  string

	events       *memory.EventStore
	cursors      *memory.CursorStore
	fingerprints *memory.FingerprintStore
	statuses     *memory.StatusStore
	timeline     *memory.Timeline
	artifacts    *memory.ArtifactStore

	bus      *Bus
	gate     *DedupeGate
	engine   *ExtractionEngine
	recorder *TimelineRecorder
	intake   *IntakeService
	watcher  *Watcher
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	registry driven.ExtractorRegistry
	ocr      driven.OCREngine
	timeout  time.Duration
	policy   driven.GroupingPolicy
}

func withExtractors(extractors ...driven.Extractor) harnessOption {
	return func(c *harnessConfig) { c.registry = newStubRegistry(extractors...) }
}

func withOCR(ocr driven.OCREngine) harnessOption {
	return func(c *harnessConfig) { c.ocr = ocr }
}

func withTimeout(d time.Duration) harnessOption {
	return func(c *harnessConfig) { c.timeout = d }
}

func withPolicy(p driven.GroupingPolicy) harnessOption {
	return func(c *harnessConfig) { c.policy = p }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	cfg := harnessConfig{
		registry: newStubRegistry(),
		timeout:  time.Second,
		policy:   NormalizedNamePolicy{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	root := t.TempDir()
	h := &harness{
		watchDir:     filepath.Join(root, "watch"),
		dataDir:      filepath.Join(root, "data"),
		events:       memory.NewEventStore(),
		cursors:      memory.NewCursorStore(),
		fingerprints: memory.NewFingerprintStore(),
		statuses:     memory.NewStatusStore(),
		timeline:     memory.NewTimeline(),
		artifacts:    memory.NewArtifactStore(),
	}
	require.NoError(t, os.MkdirAll(h.watchDir, 0o755))
	require.NoError(t, os.MkdirAll(h.dataDir, 0o755))

	h.bus = NewBus(h.events, h.cursors, 10*time.Millisecond)
	h.gate = NewDedupeGate(h.bus, h.events, h.fingerprints, cfg.policy)
	h.engine = NewExtractionEngine(h.bus, h.events, cfg.registry, cfg.ocr, h.artifacts, cfg.timeout)
	h.recorder = NewTimelineRecorder(h.bus, h.events, h.timeline, h.statuses)
	h.intake = NewIntakeService(h.watchDir, h.bus, h.events, h.gate, h.engine, h.recorder)
	h.watcher = NewWatcher(h.watchDir, h.dataDir, 10*time.Millisecond, h.intake, h.bus, h.events, h.timeline)
	return h
}

// writeFile creates a file in the watch dir and returns its path.
func (h *harness) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.watchDir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// find returns the events of one kind.
func (h *harness) find(t *testing.T, kind domain.EventKind) []domain.Event {
	t.Helper()
	events, err := h.events.Find(context.Background(), domain.EventFilter{Kind: kind})
	require.NoError(t, err)
	return events
}

// rows returns the timeline rows.
func (h *harness) rows(t *testing.T) []map[string]string {
	t.Helper()
	rows, err := h.timeline.List(context.Background())
	require.NoError(t, err)
	return rows
}

// intakeEvent submits a file and returns its intake event.
func (h *harness) intakeEvent(t *testing.T, name, content string) domain.Event {
	t.Helper()
	path := h.writeFile(t, name, content)
	n, err := h.intake.Submit(context.Background(), path, domain.Classification{})
	require.NoError(t, err)
	events, err := h.events.Find(context.Background(), domain.EventFilter{Kind: domain.KindIntake, IntakeID: n.IntakeID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	return events[0]
}

// dedupeEvent submits a file and runs it through the gate.
func (h *harness) dedupeEvent(t *testing.T, name, content string) domain.Event {
	t.Helper()
	event, err := h.gate.process(context.Background(), h.intakeEvent(t, name, content))
	require.NoError(t, err)
	return event
}

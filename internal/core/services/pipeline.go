package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
	"github.com/custodia-labs/intake-cli/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.Pipeline = (*Pipeline)(nil)

// Pipeline runs the watch loop and the three consumers side by side. They
// share nothing but the event store.
type Pipeline struct {
	bus      driving.EventBus
	watcher  *Watcher
	gate     *DedupeGate
	engine   *ExtractionEngine
	recorder *TimelineRecorder

	mu      sync.Mutex
	running bool
}

// NewPipeline creates a pipeline. watcher may be nil to run the consumers only.
func NewPipeline(
	bus driving.EventBus,
	watcher *Watcher,
	gate *DedupeGate,
	engine *ExtractionEngine,
	recorder *TimelineRecorder,
) *Pipeline {
	return &Pipeline{
		bus:      bus,
		watcher:  watcher,
		gate:     gate,
		engine:   engine,
		recorder: recorder,
	}
}

// Run blocks until ctx is done or a loop fails. When one loop fails the
// others are stopped and Run waits for all of them, then records any outcome
// that was settled after the recorder stopped.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("pipeline already running")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loops := map[string]func(context.Context) error{
		DedupeConsumer: func(ctx context.Context) error {
			return p.bus.Subscribe(ctx, DedupeConsumer, p.gate.Handle)
		},
		ExtractionConsumer: func(ctx context.Context) error {
			return p.bus.Subscribe(ctx, ExtractionConsumer, p.engine.Handle)
		},
		RecorderConsumer: func(ctx context.Context) error {
			return p.bus.Subscribe(ctx, RecorderConsumer, p.recorder.Handle)
		},
	}
	if p.watcher != nil {
		loops["watcher"] = p.watcher.Run
	}

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)
	for name, loop := range loops {
		wg.Add(1)
		go func(name string, loop func(context.Context) error) {
			defer wg.Done()
			logger.Debug("%s: started", name)
			if err := loop(ctx); err != nil {
				logger.Error("%s: stopped: %v", name, err)
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
				cancel()
				return
			}
			logger.Debug("%s: stopped", name)
		}(name, loop)
	}

	wg.Wait()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	// Terminal events published after the recorder stopped still need rows.
	if err := p.bus.Drain(context.WithoutCancel(ctx), RecorderConsumer, p.recorder.Handle); err != nil {
		logger.Error("%s: drain: %v", RecorderConsumer, err)
		return err
	}
	return nil
}

// IsRunning reports whether Run is active.
func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

package main

import (
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/intake-cli/internal/adapters/driven/config/file"
	storagefile "github.com/custodia-labs/intake-cli/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/intake-cli/internal/adapters/driven/storage/jsonl"
	"github.com/custodia-labs/intake-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/intake-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driven"
	"github.com/custodia-labs/intake-cli/internal/core/services"
	"github.com/custodia-labs/intake-cli/internal/extractors"
	"github.com/custodia-labs/intake-cli/internal/extractors/ocr"
	"github.com/custodia-labs/intake-cli/internal/logger"
)

// loadConfig resolves the pipeline configuration: defaults, then the config
// file, then command-line flags.
func loadConfig(store driven.ConfigStore, opts cli.Options) (domain.PipelineConfig, error) {
	cfg := domain.DefaultPipelineConfig()

	if v := store.GetString(domain.ConfigKeyWatchDir); v != "" {
		cfg.WatchDir = v
	}
	if v := store.GetString(domain.ConfigKeyDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := store.GetString(domain.ConfigKeyEventBackend); v != "" {
		cfg.EventBackend = v
	}
	if v := store.GetDuration(domain.ConfigKeyPollInterval); v > 0 {
		cfg.PollInterval = v
	}
	if v := store.GetDuration(domain.ConfigKeyHandlerTimeout); v > 0 {
		cfg.HandlerTimeout = v
	}
	if v := store.GetString(domain.ConfigKeyOCRLanguage); v != "" {
		cfg.OCRLanguage = v
	}
	if v := store.GetFloat(domain.ConfigKeyOCRPagesPerSecond); v > 0 {
		cfg.OCRPagesPerSecond = v
	}
	if v := store.GetInt(domain.ConfigKeyOCRDPI); v > 0 {
		cfg.OCRDPI = v
	}
	if v := store.GetString(domain.ConfigKeyGroupingPolicy); v != "" {
		cfg.GroupingPolicy = v
	}

	if opts.WatchDir != "" {
		cfg.WatchDir = opts.WatchDir
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Backend != "" {
		cfg.EventBackend = opts.Backend
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration in %s: %w", store.Path(), err)
	}

	var err error
	if cfg.WatchDir, err = filepath.Abs(cfg.WatchDir); err != nil {
		return cfg, err
	}
	if cfg.DataDir, err = filepath.Abs(cfg.DataDir); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// eventStores holds the backend-specific durable stores.
type eventStores struct {
	events       driven.EventStore
	cursors      driven.CursorStore
	fingerprints driven.FingerprintStore
	close        func() error
}

// openStores opens the event, cursor and fingerprint stores for the configured backend.
func openStores(cfg domain.PipelineConfig) (*eventStores, error) {
	switch cfg.EventBackend {
	case domain.EventBackendJSONL:
		events, err := jsonl.NewEventStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening event log: %w", err)
		}
		return &eventStores{
			events:       events,
			cursors:      jsonl.NewCursorStore(cfg.DataDir),
			fingerprints: jsonl.NewFingerprintStore(cfg.DataDir),
			close:        events.Close,
		}, nil
	default:
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return &eventStores{
			events:       store.EventStore(),
			cursors:      store.CursorStore(),
			fingerprints: store.FingerprintStore(),
			close:        store.Close,
		}, nil
	}
}

// build wires every service from configuration and flags.
func build(opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg, err := loadConfig(configStore, opts)
	if err != nil {
		return nil, err
	}

	logger.Section("Configuration")
	logger.Debug("watch dir: %s", cfg.WatchDir)
	logger.Debug("data dir: %s", cfg.DataDir)
	logger.Debug("backend: %s, grouping: %s", cfg.EventBackend, cfg.GroupingPolicy)

	stores, err := openStores(cfg)
	if err != nil {
		return nil, err
	}

	timeline := storagefile.NewTimeline(cfg.DataDir)
	statuses := storagefile.NewStatusStore(cfg.DataDir)
	artifacts := storagefile.NewArtifactStore(cfg.DataDir)

	engine := ocr.New(ocr.Options{
		Language:       cfg.OCRLanguage,
		DPI:            cfg.OCRDPI,
		PagesPerSecond: cfg.OCRPagesPerSecond,
	})

	bus := services.NewBus(stores.events, stores.cursors, cfg.PollInterval)
	gate := services.NewDedupeGate(bus, stores.events, stores.fingerprints, services.NewGroupingPolicy(cfg.GroupingPolicy))
	extraction := services.NewExtractionEngine(
		bus, stores.events, extractors.NewDefaultRegistry(), engine, artifacts, cfg.HandlerTimeout,
	)
	recorder := services.NewTimelineRecorder(bus, stores.events, timeline, statuses)
	intake := services.NewIntakeService(cfg.WatchDir, bus, stores.events, gate, extraction, recorder)
	watcher := services.NewWatcher(cfg.WatchDir, cfg.DataDir, cfg.PollInterval, intake, bus, stores.events, timeline)
	caps := extraction.Capabilities()

	logger.Debug("run id: %s", bus.RunID())
	logger.Debug("capabilities: native pdf=%t ocr=%t rasterize=%t", caps.NativePDF, caps.OCR, caps.Rasterize)

	return &cli.Services{
		Intake:   intake,
		Pipeline: services.NewPipeline(bus, watcher, gate, extraction, recorder),
		Bus:      bus,
		Reports:  services.NewReportService(statuses, timeline, caps),
		OCRHelp:  ocr.InstallInstructions(),
		Close: func() error {
			if err := stores.close(); err != nil {
				return fmt.Errorf("closing stores: %w", err)
			}
			return nil
		},
	}, nil
}

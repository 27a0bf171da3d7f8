package domain

import "time"

// Event store backends.
const (
	EventBackendSQLite = "sqlite"
	EventBackendJSONL  = "jsonl"
)

// Grouping policies for superseded detection.
const (
	GroupingNormalizedName = "normalized_name"
	GroupingNone           = "none"
)

// Configuration keys read from the config store.
const (
	ConfigKeyWatchDir          = "watch_dir"
	ConfigKeyDataDir           = "data_dir"
	ConfigKeyEventBackend      = "event_backend"
	ConfigKeyPollInterval      = "poll_interval"
	ConfigKeyHandlerTimeout    = "handler_timeout"
	ConfigKeyOCRLanguage       = "ocr_language"
	ConfigKeyOCRPagesPerSecond = "ocr_pages_per_second"
	ConfigKeyOCRDPI            = "ocr_dpi"
	ConfigKeyGroupingPolicy    = "grouping_policy"
)

// PipelineConfig holds runtime settings for the pipeline.
type PipelineConfig struct {
	// WatchDir is the intake directory.
	WatchDir string

	// DataDir holds the event store, timeline, status document and text artifacts.
	DataDir string

	// EventBackend selects the event store implementation.
	EventBackend string

	// PollInterval bounds how often consumers and the watcher poll.
	PollInterval time.Duration

	// HandlerTimeout bounds per-file extraction.
	HandlerTimeout time.Duration

	// OCRLanguage is passed to the OCR engine.
	OCRLanguage string

	// OCRPagesPerSecond throttles OCR page recognition.
	OCRPagesPerSecond float64

	// OCRDPI is the rasterisation resolution.
	OCRDPI int

	// GroupingPolicy selects how logical documents are grouped.
	GroupingPolicy string
}

// DefaultPipelineConfig returns the default configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		WatchDir:          "Generated",
		DataDir:           "Database",
		EventBackend:      EventBackendSQLite,
		PollInterval:      3 * time.Second,
		HandlerTimeout:    5 * time.Minute,
		OCRLanguage:       "eng",
		OCRPagesPerSecond: 2,
		OCRDPI:            200,
		GroupingPolicy:    GroupingNormalizedName,
	}
}

// Validate checks the configuration for invalid values.
func (c PipelineConfig) Validate() error {
	if c.WatchDir == "" || c.DataDir == "" {
		return ErrInvalidInput
	}
	if c.EventBackend != EventBackendSQLite && c.EventBackend != EventBackendJSONL {
		return ErrInvalidInput
	}
	if c.PollInterval <= 0 || c.HandlerTimeout <= 0 {
		return ErrInvalidInput
	}
	if c.GroupingPolicy != GroupingNormalizedName && c.GroupingPolicy != GroupingNone {
		return ErrInvalidInput
	}
	return nil
}

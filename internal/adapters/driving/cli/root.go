// Package cli provides the command-line interface for intake.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
	"github.com/custodia-labs/intake-cli/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services holds the core services the commands drive.
type Services struct {
	Intake   driving.IntakeService
	Pipeline driving.Pipeline
	Bus      driving.EventBus
	Reports  driving.ReportService

	// OCRHelp explains how to install missing OCR tools.
	OCRHelp string

	// Close releases stores. May be nil.
	Close func() error
}

// Options carries the global flag values into the service builder.
// Empty fields mean "use the configured value".
type Options struct {
	ConfigDir string
	DataDir   string
	WatchDir  string
	Backend   string
	Verbose   bool
}

// Builder constructs services from global options.
type Builder func(opts Options) (*Services, error)

var (
	builder Builder
	opts    Options

	intakeService driving.IntakeService
	pipeline      driving.Pipeline
	eventBus      driving.EventBus
	reportService driving.ReportService
	ocrHelp       string
	closeServices func() error
)

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Event-driven document intake pipeline",
	Long: `Intake watches a folder for new documents, removes duplicates by content,
extracts their text (natively first, OCR as a fallback) and records every
outcome in a timeline.

Every step is an event in a durable, ordered log. Consumers keep their own
cursors, so a restart resumes where each one left off.`,
	SilenceUsage:       true,
	PersistentPreRunE:  buildServices,
	PersistentPostRunE: releaseServices,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigDir, "config-dir", "", "directory holding config.toml")
	flags.StringVar(&opts.DataDir, "data-dir", "", "directory for the event log, timeline and status")
	flags.StringVar(&opts.WatchDir, "watch-dir", "", "intake directory to watch")
	flags.StringVar(&opts.Backend, "backend", "", "event store backend (sqlite or jsonl)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
}

// SetBuilder registers the function that constructs services before a command runs.
func SetBuilder(b Builder) {
	builder = b
}

// SetServices installs already-built services.
func SetServices(s *Services) {
	if s == nil {
		intakeService, pipeline, eventBus, reportService, closeServices = nil, nil, nil, nil, nil
		ocrHelp = ""
		return
	}
	intakeService = s.Intake
	pipeline = s.Pipeline
	eventBus = s.Bus
	reportService = s.Reports
	ocrHelp = s.OCRHelp
	closeServices = s.Close
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which commands use for cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func buildServices(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(opts.Verbose)
	if builder == nil || intakeService != nil {
		return nil
	}
	s, err := builder(opts)
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func releaseServices(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// commandContext returns the command's context, or Background when run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

var (
	errIntakeNotConfigured   = errors.New("intake service not configured")
	errPipelineNotConfigured = errors.New("pipeline not configured")
	errBusNotConfigured      = errors.New("event bus not configured")
	errReportsNotConfigured  = errors.New("report service not configured")
)

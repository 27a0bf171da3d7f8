package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// Output formats for the events command.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	eventsFrom   int64
	eventsKind   string
	eventsFollow bool
	eventsOutput string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print the event log",
	Long: `Prints events in append order, starting after --from.
With --follow, keeps printing new events until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().Int64Var(&eventsFrom, "from", 0, "print events after this position")
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "only print events of this kind")
	eventsCmd.Flags().BoolVarP(&eventsFollow, "follow", "f", false, "keep printing new events")
	eventsCmd.Flags().StringVarP(&eventsOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, _ []string) error {
	if eventBus == nil {
		return errBusNotConfigured
	}

	write, err := eventPrinter(cmd.OutOrStdout(), eventsOutput)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	cursor := domain.Cursor(eventsFrom)
	kind := domain.EventKind(eventsKind)

	if !eventsFollow {
		events, err := eventBus.Replay(ctx, cursor)
		if err != nil {
			return fmt.Errorf("read events: %w", err)
		}
		for _, e := range events {
			if kind != "" && e.Kind != kind {
				continue
			}
			if err := write(e); err != nil {
				return err
			}
		}
		return nil
	}

	events, errc := eventBus.Consume(ctx, cursor)
	for e := range events {
		if kind != "" && e.Kind != kind {
			continue
		}
		if err := write(e); err != nil {
			return err
		}
	}
	if err := <-errc; err != nil {
		return fmt.Errorf("follow events: %w", err)
	}
	return nil
}

// eventPrinter returns a function that writes one event to w in format.
func eventPrinter(w io.Writer, format string) (func(domain.Event) error, error) {
	switch format {
	case outputText:
		return func(e domain.Event) error {
			_, err := fmt.Fprintf(w, "%6d  %s  %-17s  %s  %s\n",
				e.Seq, e.TS.Local().Format(time.DateTime), e.Kind, e.FileRelpath, e.Title)
			return err
		}, nil
	case outputJSON:
		enc := json.NewEncoder(w)
		return func(e domain.Event) error {
			return enc.Encode(e)
		}, nil
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return func(e domain.Event) error {
			return enc.Encode(e)
		}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q: %w", format, domain.ErrInvalidInput)
	}
}

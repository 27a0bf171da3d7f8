package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

var (
	processCategories []string
	processFlags      []string
	processNote       string
)

var processCmd = &cobra.Command{
	Use:   "process <file>...",
	Short: "Process files once, without the watch loop",
	Long: `Runs each file through dedupe, extraction and recording in-process and
prints its outcome. Every file gets exactly one timeline row, whatever happens
to it. Classification flags are attached to the intake event and carried into
the timeline.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringSliceVar(&processCategories, "category", nil, "category to attach (repeatable)")
	processCmd.Flags().StringSliceVar(&processFlags, "flag", nil, "flag to attach (repeatable)")
	processCmd.Flags().StringVar(&processNote, "note", "", "note to attach")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if intakeService == nil {
		return errIntakeNotConfigured
	}

	ctx := commandContext(cmd)
	meta := domain.Classification{
		Categories: processCategories,
		Flags:      processFlags,
		Note:       processNote,
	}

	var failed int
	for _, path := range args {
		outcome, err := intakeService.ProcessFile(ctx, path, meta)
		if err != nil {
			if errors.Is(err, domain.ErrStoreIO) {
				return fmt.Errorf("process %s: %w", path, err)
			}
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("%s: %s", outcome.Notification.Relpath, outcome.Status)
		if outcome.Details != "" {
			cmd.Printf(" (%s)", outcome.Details)
		}
		cmd.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be submitted", failed, len(args))
	}
	return nil
}

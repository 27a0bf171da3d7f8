package cli

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [filename]",
	Short: "Show processing status",
	Long: `Shows the current processing status of one file, or of every file seen
so far. The status is the latest outcome; the timeline holds the history.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errReportsNotConfigured
	}

	ctx := commandContext(cmd)

	if len(args) == 1 {
		status, err := reportService.Status(ctx, args[0])
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Printf("No status recorded for: %s\n", args[0])
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		cmd.Printf("%s\n", args[0])
		cmd.Printf("  Status:  %s\n", status.Status)
		cmd.Printf("  Details: %s\n", status.Details)
		cmd.Printf("  Updated: %s\n", status.Timestamp.Local().Format(time.DateTime))
		return nil
	}

	statuses, err := reportService.Statuses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list statuses: %w", err)
	}
	if len(statuses) == 0 {
		cmd.Println("No files processed yet.")
		return nil
	}

	names := make([]string, 0, len(statuses))
	width := 0
	for name := range statuses {
		names = append(names, name)
		width = max(width, len(name))
	}
	sort.Strings(names)

	counts := make(map[domain.Status]int)
	for _, name := range names {
		s := statuses[name]
		counts[s.Status]++
		cmd.Printf("  %-*s  %-9s  %s\n", width, name, s.Status, s.Details)
	}

	cmd.Printf("\nTotal: %d files", len(names))
	for _, st := range []domain.Status{
		domain.StatusQueued, domain.StatusProcessed, domain.StatusDuplicate, domain.StatusRejected,
		domain.StatusError, domain.StatusTimeout, domain.StatusCancelled,
	} {
		if counts[st] > 0 {
			cmd.Printf(", %d %s", counts[st], st)
		}
	}
	cmd.Println()
	return nil
}

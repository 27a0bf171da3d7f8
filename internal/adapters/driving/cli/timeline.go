package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

var timelineLimit int

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the case timeline",
	Long: `Prints timeline rows, oldest first. Each processed file has exactly one
row; merged notes and batch outputs appear as extra rows.`,
	Args: cobra.NoArgs,
	RunE: runTimeline,
}

func init() {
	timelineCmd.Flags().IntVarP(&timelineLimit, "limit", "n", 0, "only show the last n rows")
	rootCmd.AddCommand(timelineCmd)
}

func runTimeline(cmd *cobra.Command, _ []string) error {
	if reportService == nil {
		return errReportsNotConfigured
	}

	rows, err := reportService.Timeline(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to read timeline: %w", err)
	}
	if len(rows) == 0 {
		cmd.Println("Timeline is empty.")
		return nil
	}
	total := len(rows)
	if timelineLimit > 0 && timelineLimit < len(rows) {
		rows = rows[len(rows)-timelineLimit:]
	}

	for _, row := range rows {
		cmd.Printf("%s %s  %-10s  %s\n",
			row[domain.ColumnDate], row[domain.ColumnTime], row[domain.ColumnStatus], row[domain.ColumnFilename])
		if v := row[domain.ColumnCategories]; v != "" {
			cmd.Printf("    Categories: %s\n", v)
		}
		if v := row[domain.ColumnFlags]; v != "" {
			cmd.Printf("    Flags: %s\n", v)
		}
		if v := row[domain.ColumnNote]; v != "" {
			cmd.Printf("    Note: %s\n", v)
		}
	}

	cmd.Printf("\nTotal: %d rows\n", total)
	return nil
}

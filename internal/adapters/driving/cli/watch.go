package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the intake folder and run every consumer",
	Long: `Starts the folder watcher together with the dedupe gate, the extraction
engine and the timeline recorder. Each consumer resumes from its saved cursor.
Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if pipeline == nil {
		return errPipelineNotConfigured
	}

	cmd.Println("Watching for new files. Press Ctrl+C to stop.")
	if err := pipeline.Run(commandContext(cmd)); err != nil {
		return fmt.Errorf("pipeline stopped: %w", err)
	}
	cmd.Println("Stopped.")
	return nil
}

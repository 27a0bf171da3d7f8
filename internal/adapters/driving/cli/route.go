package cli

import (
	"github.com/spf13/cobra"
)

var routeCmd = &cobra.Command{
	Use:   "route <file>...",
	Short: "Show how files would be routed",
	Long:  `Classifies files by extension without touching the event log.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	if intakeService == nil {
		return errIntakeNotConfigured
	}

	for _, path := range args {
		r := intakeService.Route(path)
		cmd.Printf("%s\n", path)
		cmd.Printf("  Capability:  %s\n", r.Capability)
		cmd.Printf("  Handler:     %s\n", r.Handler)
		cmd.Printf("  Destination: %s\n", r.Destination)
		cmd.Printf("  Action:      %s\n", r.Action)
		cmd.Printf("  Reason:      %s\n", r.Reason)
	}
	return nil
}

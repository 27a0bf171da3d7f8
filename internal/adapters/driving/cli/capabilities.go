package cli

import (
	"github.com/spf13/cobra"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Show which optional extraction tools are available",
	Args:  cobra.NoArgs,
	RunE:  runCapabilities,
}

func init() {
	rootCmd.AddCommand(capabilitiesCmd)
}

func runCapabilities(cmd *cobra.Command, _ []string) error {
	if reportService == nil {
		return errReportsNotConfigured
	}

	caps := reportService.Capabilities()
	cmd.Println("Extraction capabilities:")
	cmd.Printf("  Native PDF text: %s\n", yesNo(caps.NativePDF))
	cmd.Printf("  OCR:             %s\n", yesNo(caps.OCR))
	cmd.Printf("  PDF rasteriser:  %s\n", yesNo(caps.Rasterize))

	if (!caps.OCR || !caps.Rasterize) && ocrHelp != "" {
		cmd.Println()
		cmd.Println(ocrHelp)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

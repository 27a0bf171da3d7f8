package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/intake-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// monitorFrom is the position the monitor starts reading after.
var monitorFrom int64

// isTerminal reports whether stdout is a terminal. Replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the event stream live",
	Long: `Opens a terminal view of the event stream with running outcome counts.
Run it next to "intake watch" to follow files as they move through the pipeline.

Controls:
  ↑/k, ↓/j - Scroll
  G        - Follow newest
  Space    - Pause
  f        - Filter by kind
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().Int64Var(&monitorFrom, "from", 0, "start after this position")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	if eventBus == nil {
		return errBusNotConfigured
	}
	if !isTerminal() {
		return errors.New(`monitor needs a terminal; use "intake events --follow" instead`)
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in monitor: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{Bus: eventBus, From: domain.Cursor(monitorFrom)})
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	ctx := commandContext(cmd)
	app.WithContext(ctx)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("monitor error: %w", err)
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/soundbenchlab/tracktape/internal/ui"

	"github.com/spf13/cobra"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Open the interactive recording panel",
	Long: `Open the terminal recording panel: pick a capture device, set the
channel layout and record mode, and start and stop takes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newSession()
		if err != nil {
			return err
		}
		// Kills a capture left behind by an abrupt quit
		defer svc.Cleanup()

		if err := ui.Run(svc); err != nil {
			return fmt.Errorf("panel error: %w", err)
		}
		return nil
	},
}

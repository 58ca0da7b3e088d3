package cli

import (
	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/ui"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the devcontainer without removing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, _, err := buildOrchestrator(cmd)
		if err != nil {
			return err
		}
		if err := o.Stop(cmd.Context()); err != nil {
			return err
		}
		ui.Success("devcontainer stopped")
		return nil
	},
}

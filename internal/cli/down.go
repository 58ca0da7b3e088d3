package cli

import (
	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/ui"
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the devcontainer",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, _, err := buildOrchestrator(cmd)
		if err != nil {
			return err
		}
		if err := o.Down(cmd.Context()); err != nil {
			return err
		}
		ui.Success("devcontainer removed")
		return nil
	},
}

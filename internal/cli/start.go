package cli

import (
	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/ui"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start an existing, stopped devcontainer without re-running create-time hooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, _, err := buildOrchestrator(cmd)
		if err != nil {
			return err
		}
		if err := o.Up(cmd.Context()); err != nil {
			return err
		}
		ui.Success("devcontainer started")
		return nil
	},
}

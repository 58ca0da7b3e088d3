package cli

import (
	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/ui"
)

var rmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Remove the devcontainer and forget its state record",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, _, err := buildOrchestrator(cmd)
		if err != nil {
			return err
		}
		if err := o.Remove(cmd.Context()); err != nil {
			return err
		}
		ui.Success("devcontainer removed, state forgotten")
		return nil
	},
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/ui"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Discard the current container/image and run up from scratch",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, ws, err := buildOrchestrator(cmd)
		if err != nil {
			return err
		}
		spinner := ui.StartSpinner("Rebuilding devcontainer for " + ws.Path)
		if err := o.Rebuild(cmd.Context()); err != nil {
			spinner.Fail("rebuild failed")
			return err
		}
		spinner.Success("devcontainer rebuilt")
		return nil
	},
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/ui"
)

var adoptCmd = &cobra.Command{
	Use:   "adopt",
	Short: "Mark an externally created container matching this workspace as devc-managed",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, _, err := buildOrchestrator(cmd)
		if err != nil {
			return err
		}
		if err := o.Adopt(cmd.Context()); err != nil {
			return err
		}
		ui.Success("container adopted")
		return nil
	},
}

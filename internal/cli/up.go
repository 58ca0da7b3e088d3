package cli

import (
	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/ui"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Build/create/start the devcontainer and run its lifecycle hooks",
	Long: `up resumes from whatever phase the workspace is already in: a
container left Created by an earlier crash is started and hooked without
being recreated, a running container is left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, ws, err := buildOrchestrator(cmd)
		if err != nil {
			return err
		}

		spinner := ui.StartSpinner("Starting devcontainer for " + ws.Path)
		if err := o.Up(cmd.Context()); err != nil {
			spinner.Fail("up failed")
			return err
		}
		spinner.Success("devcontainer running")
		return nil
	},
}

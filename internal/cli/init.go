package cli

import (
	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/state"
	"github.com/s-retlaw/devc/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Register this workspace, writing its state record without touching the runtime",
	Long: `init locates the workspace's devcontainer.json and writes its initial
Uninitialized-phase state record. It performs no build/create/start — that's
what 'up' does on its next invocation, resuming from this state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, id, _, err := loadConfig()
		if err != nil {
			return err
		}

		s := &state.ContainerState{
			ID:             id,
			WorkspacePath:  ws.Path,
			LifecyclePhase: state.PhaseUninitialized,
		}
		if err := state.Save(s); err != nil {
			return err
		}
		ui.Success("registered workspace %s (id %s)", ws.Path, id)
		return nil
	},
}

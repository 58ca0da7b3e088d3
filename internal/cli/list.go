package cli

import (
	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/state"
	"github.com/s-retlaw/devc/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Enumerate all known workspaces from the state directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := state.ListAll()
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(all))
		for _, s := range all {
			rows = append(rows, []string{
				s.ID,
				s.WorkspacePath,
				ui.PhaseColor(string(s.LifecyclePhase)),
				s.ContainerName,
				s.Runtime,
			})
		}
		return ui.RenderTable([]string{"ID", "WORKSPACE", "PHASE", "CONTAINER", "RUNTIME"}, rows)
	},
}

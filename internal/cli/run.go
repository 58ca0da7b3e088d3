package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run -- <cmd> [args...]",
	Short: "Run a command inside the devcontainer and inherit its exit code",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, _, err := buildOrchestrator(cmd)
		if err != nil {
			return err
		}
		_, err = o.Provider.Exec(cmd.Context(), o.ContainerName(), args, o.Cfg.RemoteUser, nil, false, os.Stdin, os.Stdout, os.Stderr)
		return exitWithChildCode(err)
	},
}

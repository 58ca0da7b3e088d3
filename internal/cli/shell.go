package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/provider"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive shell in the running devcontainer",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, _, err := buildOrchestrator(cmd)
		if err != nil {
			return err
		}
		shellArgv := []string{"/bin/sh", "-c", "exec bash 2>/dev/null || exec sh"}
		_, err = o.Provider.Exec(cmd.Context(), o.ContainerName(), shellArgv, o.Cfg.RemoteUser, nil, true, os.Stdin, os.Stdout, os.Stderr)
		return exitWithChildCode(err)
	},
}

// exitWithChildCode inherits a shell/run child's own exit code per spec.md
// §6 ("inherits child's exit code") rather than mapping it through the
// DevcError exit-code table like every other command.
func exitWithChildCode(err error) error {
	if err == nil {
		return nil
	}
	var pe *provider.ProviderError
	if errors.As(err, &pe) {
		os.Exit(pe.ExitCode)
	}
	return err
}

// Package cli implements the devc command-line surface: thin cobra
// commands that resolve a workspace and hand off to internal/lifecycle,
// internal/agent, and internal/ports. Exit codes follow spec.md §6's
// table via devcerrors.ExitCode.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/output"
	"github.com/s-retlaw/devc/internal/ui"
)

var (
	flagWorkspace  string
	flagConfigPath string
	flagRuntime    string
	flagRemoteUser string
	flagNoColor    bool
	flagQuiet      bool
	flagVerbose    bool
	flagLogJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "devc",
	Short: "Dev-container lifecycle driver",
	Long: `devc drives Docker or Podman to realize a devcontainer.json: resolving
configuration, building or pulling images, installing Features, running
lifecycle hooks, forwarding credentials and ports, and syncing coding-agent
configuration into the container.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity := ui.VerbosityNormal
		if flagQuiet {
			verbosity = ui.VerbosityQuiet
		} else if flagVerbose {
			verbosity = ui.VerbosityVerbose
		}
		ui.Configure(ui.Config{
			Verbosity: verbosity,
			NoColor:   flagNoColor,
			Writer:    os.Stdout,
			ErrWriter: os.Stderr,
		})
		output.SetDefault(output.NewLogger(os.Stderr, flagVerbose, flagLogJSON))
		return nil
	},
}

// Execute runs the root command, returning the error a command produced so
// main can translate it to a process exit code via devcerrors.ExitCode.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", "", "workspace directory (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "path to devcontainer.json (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&flagRuntime, "runtime", "", "container runtime: docker | podman | toolbox")
	rootCmd.PersistentFlags().StringVar(&flagRemoteUser, "remote-user", "", "override remoteUser")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "minimal output (errors only)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "force JSON structured logs even on a terminal")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(adoptCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(configCmd)
}

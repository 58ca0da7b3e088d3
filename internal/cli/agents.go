package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/agent"
	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/ui"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Coding-agent configuration sync diagnostics",
}

var agentsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run an agent sync and show the per-agent results as a table, always exiting 0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgentsSync(cmd, true)
	},
}

var agentsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Re-sync host coding-agent configuration into the running devcontainer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgentsSync(cmd, false)
	},
}

func init() {
	agentsCmd.AddCommand(agentsDoctorCmd)
	agentsCmd.AddCommand(agentsSyncCmd)
}

// runAgentsSync drives C6 directly against the already-running container —
// `doctor` and `sync` differ only in exit-code strictness (spec.md §6:
// doctor always exits 0, sync exits 7 if any agent failed hard).
func runAgentsSync(cmd *cobra.Command, doctorMode bool) error {
	o, _, err := buildOrchestrator(cmd)
	if err != nil {
		return err
	}
	if len(o.AgentSettings) == 0 {
		ui.Info("no agents enabled in global config")
		return nil
	}

	inj := &agent.Injector{
		Provider:      o.Provider,
		ContainerName: o.ContainerName(),
		RemoteUser:    o.Cfg.RemoteUser,
		Logger:        o.Logger,
	}
	results := inj.SyncAll(cmd.Context(), o.AgentSettings, o.HostEnv)

	rows := make([][]string, 0, len(results))
	var firstFailure *agent.SyncResult
	for _, r := range results {
		settings, enabled := o.AgentSettings[r.Agent]
		var status string
		switch {
		case !enabled || !settings.Enabled:
			status = ui.FormatCheck(ui.CheckResultSkip, "disabled")
		case r.Validated:
			status = ui.FormatCheck(ui.CheckResultPass, "validated")
		default:
			status = ui.FormatCheck(ui.CheckResultWarn, "unvalidated")
			if firstFailure == nil {
				firstFailure = r
			}
		}
		rows = append(rows, []string{
			string(r.Agent),
			status,
			fmt.Sprintf("%t", r.Copied),
			fmt.Sprintf("%t", r.Installed),
			fmt.Sprintf("%d", len(r.Warnings)),
		})
	}
	if err := ui.RenderTable([]string{"AGENT", "STATUS", "COPIED", "INSTALLED", "WARNINGS"}, rows); err != nil {
		return err
	}

	if msg, ok := agent.Summarize(results); ok {
		ui.Warning("%s", msg)
	}
	if !doctorMode && firstFailure != nil {
		reason := "unvalidated"
		if len(firstFailure.Warnings) > 0 {
			reason = firstFailure.Warnings[0]
		}
		return devcerrors.AgentWarning(string(firstFailure.Agent), reason)
	}
	return nil
}

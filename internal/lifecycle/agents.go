package lifecycle

import (
	"context"

	"github.com/s-retlaw/devc/internal/agent"
)

// syncAgents runs C6 against the already-started, already-hooked
// container, per the control-flow line "C6 after running". A nil/empty
// AgentSettings makes this a no-op rather than a hard failure — agent
// injection is always best-effort, never fatal to `up`.
//
// isRestart marks a `devc start` resuming an already-provisioned,
// Stopped container rather than a fresh `up`/`rebuild`. Per spec.md §4.6
// ("the injector runs on up, rebuild, and (if on_start=true) start"),
// injection on a restart is gated per agent on its own on_start setting;
// an agent left out entirely isn't synced, not merely reported as failed.
func (o *Orchestrator) syncAgents(ctx context.Context, containerName string, isRestart bool) []*agent.SyncResult {
	settings := o.AgentSettings
	if isRestart {
		settings = make(map[agent.Kind]agent.Settings, len(o.AgentSettings))
		for kind, s := range o.AgentSettings {
			if s.OnStart {
				settings[kind] = s
			}
		}
	}
	if len(settings) == 0 {
		return nil
	}
	inj := &agent.Injector{
		Provider:      o.Provider,
		ContainerName: containerName,
		RemoteUser:    o.Cfg.RemoteUser,
		Logger:        o.Logger,
	}
	results := inj.SyncAll(ctx, settings, o.HostEnv)
	synced := make([]*agent.SyncResult, 0, len(settings))
	for _, r := range results {
		if _, ok := settings[r.Agent]; ok {
			synced = append(synced, r)
		}
	}
	return synced
}

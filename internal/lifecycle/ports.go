package lifecycle

import (
	"context"

	"github.com/s-retlaw/devc/internal/config"
	"github.com/s-retlaw/devc/internal/ports"
)

// syncPorts runs C7 discovery/tunneling against the just-started container,
// once hooks have finished (§4.7: auto-forward runs "after postStartCommand
// completes"). A missing PortForwarder makes this a no-op — port forwarding
// is entirely optional wiring, same as CredsProxy/AgentSettings. A discovery
// failure is logged rather than failing `up`: the container is already
// healthy at this point, and losing port visibility shouldn't undo that.
func (o *Orchestrator) syncPorts(ctx context.Context) error {
	if o.PortForwarder == nil {
		return nil
	}
	appPort := 0
	if o.Cfg.AppPort != nil {
		appPort = o.Cfg.AppPort.Container
	}
	_, err := o.PortForwarder.Sync(ctx, containerPorts(o.Cfg.ForwardPorts), appPort, portAttributes(o.Cfg.PortsAttributes))
	if err != nil {
		o.Logger.Warn("port forwarder: discovery failed", "error", err)
	}
	return nil
}

func containerPorts(specs config.PortSpecs) []int {
	out := make([]int, 0, len(specs))
	for _, p := range specs {
		out = append(out, p.Container)
	}
	return out
}

// portAttributes adapts devcontainer.json's parsed portsAttributes map
// (container-port key -> config.PortSpec) to the plain ports.Attributes map
// Forwarder.Sync consumes.
func portAttributes(in map[string]config.PortSpec) map[string]ports.Attributes {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]ports.Attributes, len(in))
	for k, v := range in {
		out[k] = ports.Attributes{
			HostPort:      v.Host,
			Label:         v.Label,
			OnAutoForward: ports.AutoForward(v.OnAutoForward),
		}
	}
	return out
}

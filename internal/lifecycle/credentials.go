package lifecycle

import (
	"context"

	"github.com/s-retlaw/devc/internal/creds"
)

// ensureCredsSocket starts the host-side proxy listening, if one is
// configured, so its socket file exists on disk before the container that
// bind-mounts it is created (§4.5: "1. Creates... socket. 2. Bind-mounts it
// into the container" — the reverse order fails against a real runtime's
// `--mount type=bind` with a non-existent source). A no-op when C5 is
// disabled, and safe to call again on a resumed `up`.
func (o *Orchestrator) ensureCredsSocket() error {
	if o.CredsProxy == nil {
		return nil
	}
	return o.CredsProxy.Start()
}

// credsMountArgs returns the --mount/--tmpfs argv to append to
// CreateOptions.RunArgs so the container socket bind-mounts to the host
// proxy, or nil when no proxy is configured (C5 is entirely optional).
func (o *Orchestrator) credsMountArgs() []string {
	if o.CredsProxy == nil {
		return nil
	}
	return creds.MountArgs(o.CredsProxy.SocketPath, o.Cfg.RemoteUser)
}

// installCredsShim copies the devc-helper binary into the container and
// points Docker/Git at it, run once the container is up (§4.7D "C5 on
// startup"). A missing HelperBinaryPath or CredsProxy makes this a no-op
// rather than a hard failure — credential forwarding degrades gracefully.
func (o *Orchestrator) installCredsShim(ctx context.Context, containerName string) error {
	if o.CredsProxy == nil || o.HelperBinaryPath == "" {
		return nil
	}
	return creds.Install(ctx, o.Provider, containerName, o.HelperBinaryPath, o.Cfg.RemoteUser)
}

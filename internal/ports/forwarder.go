package ports

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/skratchdot/open-golang/open"

	"github.com/s-retlaw/devc/internal/provider"
)

// Forwarder runs discovery and tunnel management for one container, per
// §4.7. One Forwarder is scoped to one workspace/container pair.
type Forwarder struct {
	Provider      *provider.Provider
	ContainerName string
	ContainerID   string
	Logger        *slog.Logger

	registry *Registry
	opened   map[string]bool // (containerID, port) dedup for openBrowser
	mu       sync.Mutex
}

// NewForwarder returns a Forwarder ready to Sync against one container.
func NewForwarder(prov *provider.Provider, containerName, containerID string, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		Provider:      prov,
		ContainerName: containerName,
		ContainerID:   containerID,
		Logger:        logger,
		registry:      NewRegistry(),
		opened:        make(map[string]bool),
	}
}

func (f *Forwarder) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

// Sync discovers listening ports and, for each one not already tunneled,
// opens a tunnel and applies its onAutoForward policy. forwardPorts/appPort
// and attrs come from the resolved DevcontainerConfig. Entries with
// onAutoForward=ignore are discovered but left untunneled (property #6).
func (f *Forwarder) Sync(ctx context.Context, forwardPorts []int, appPort int, attrs map[string]Attributes) ([]Entry, error) {
	discovered, err := Discover(ctx, f.Provider, f.ContainerName, forwardPorts, appPort)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(discovered))
	for _, entry := range discovered {
		a := ReadAttributes(attrs, entry.ContainerPort)
		entry.Label = a.Label
		entry.OnAutoForward = a.OnAutoForward

		if a.OnAutoForward == AutoForwardIgnore {
			out = append(out, entry)
			continue
		}

		if _, exists := f.registry.Get(a.HostPort); !exists {
			tunnel, err := f.registry.Open(ctx, f.Provider, f.ContainerName, a.HostPort, entry.ContainerPort)
			if err != nil {
				f.logger().Warn("port forwarder: tunnel failed", "port", entry.ContainerPort, "error", err)
				out = append(out, entry)
				continue
			}
			entry.TunnelPID = tunnel.PID()
		} else if tunnel, ok := f.registry.Get(a.HostPort); ok {
			entry.TunnelPID = tunnel.PID()
		}
		entry.State = StateForwarded

		f.applyAutoForward(entry, a)
		out = append(out, entry)
	}
	return out, nil
}

// applyAutoForward runs the one-shot side effect for a forwarded entry's
// policy, per §4.7 "Auto-forward policy". notify/silent are left to the
// caller's UI layer (cli); only openBrowser has a side effect here.
func (f *Forwarder) applyAutoForward(entry Entry, a Attributes) {
	if a.OnAutoForward != AutoForwardOpenBrowser {
		return
	}
	key := fmt.Sprintf("%s:%d", f.ContainerID, entry.ContainerPort)

	f.mu.Lock()
	already := f.opened[key]
	if !already {
		f.opened[key] = true
	}
	f.mu.Unlock()

	if already {
		return
	}
	url := fmt.Sprintf("http://localhost:%d", a.HostPort)
	if err := open.Run(url); err != nil {
		f.logger().Warn("port forwarder: failed to open browser", "url", url, "error", err)
	}
}

// StopAll reaps every tunnel this Forwarder has opened, per §4.7 "Reap".
func (f *Forwarder) StopAll() {
	f.registry.StopAll()
}

// OpenPorts returns the host ports with a live tunnel, used by `devc list`.
func (f *Forwarder) OpenPorts() []int {
	return f.registry.portsSnapshot()
}

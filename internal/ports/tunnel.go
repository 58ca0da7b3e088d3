package ports

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/provider"
)

// reapGrace is how long a tunnel's socat child gets after SIGTERM before
// SIGKILL, per §4.7 "Reap".
const reapGrace = 2 * time.Second

// Tunnel is one running host-side socat process bridging a host TCP port
// to a container port, grounded on the teacher's SSH-agent-proxy
// child-process lifecycle (internal/ssh/agent_proxy.go).
type Tunnel struct {
	HostPort      int
	ContainerPort int

	cmd *exec.Cmd
}

// socatExecAddress builds the EXEC: address socat dials into the running
// container, reusing the Provider's own argv composition (Toolbox bridge
// included) so the tunnel behaves exactly like any other exec call.
func socatExecAddress(prov *provider.Provider, containerName string, containerPort int) string {
	argv := prov.ExecArgv(containerName, []string{"socat", "-", fmt.Sprintf("TCP:127.0.0.1:%d", containerPort)})
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = strings.ReplaceAll(a, `:`, `\:`)
	}
	return strings.Join(quoted, " ")
}

// StartTunnel spawns `socat TCP-LISTEN:<hostPort>,reuseaddr,fork
// EXEC:"..."` as described in §4.7 "Tunnel establishment".
func StartTunnel(ctx context.Context, prov *provider.Provider, containerName string, hostPort, containerPort int) (*Tunnel, error) {
	listenAddr := fmt.Sprintf("TCP-LISTEN:%d,reuseaddr,fork", hostPort)
	execAddr := "EXEC:" + socatExecAddress(prov, containerName, containerPort)

	cmd := exec.CommandContext(ctx, "socat", listenAddr, execAddr)
	if err := cmd.Start(); err != nil {
		return nil, devcerrors.Internal(err)
	}

	t := &Tunnel{HostPort: hostPort, ContainerPort: containerPort, cmd: cmd}
	go cmd.Wait() // reap zombie once the process exits on its own or via Stop
	return t, nil
}

// PID returns the socat child's process id, 0 if not running.
func (t *Tunnel) PID() int {
	if t.cmd == nil || t.cmd.Process == nil {
		return 0
	}
	return t.cmd.Process.Pid
}

// Stop sends SIGTERM, then SIGKILL after reapGrace if the process hasn't
// exited, per §4.7 "Reap".
func (t *Tunnel) Stop() {
	if t.cmd == nil || t.cmd.Process == nil {
		return
	}
	proc := t.cmd.Process
	proc.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		t.cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(reapGrace):
		proc.Kill()
		<-done
	}
}

// Registry tracks running tunnels keyed by host port, the map described in
// §4.7D ("tracked in a map[int]*Tunnel keyed by host port").
type Registry struct {
	mu      sync.Mutex
	tunnels map[int]*Tunnel
}

// NewRegistry returns an empty tunnel registry.
func NewRegistry() *Registry {
	return &Registry{tunnels: make(map[int]*Tunnel)}
}

// Open starts a tunnel for hostPort->containerPort, falling back to an
// OS-assigned ephemeral host port on collision, per §4.7 "hostPort ...
// collisions fall back to an OS-assigned ephemeral port".
func (r *Registry) Open(ctx context.Context, prov *provider.Provider, containerName string, hostPort, containerPort int) (*Tunnel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidate := hostPort
	if _, taken := r.tunnels[candidate]; taken {
		free, err := freeEphemeralPort()
		if err != nil {
			return nil, err
		}
		candidate = free
	}

	t, err := StartTunnel(ctx, prov, containerName, candidate, containerPort)
	if err != nil {
		return nil, err
	}
	r.tunnels[candidate] = t
	return t, nil
}

// Get returns the tunnel registered at hostPort, if any.
func (r *Registry) Get(hostPort int) (*Tunnel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tunnels[hostPort]
	return t, ok
}

// StopAll reaps every tracked tunnel, used on `down`/`stop`.
func (r *Registry) StopAll() {
	r.mu.Lock()
	tunnels := make([]*Tunnel, 0, len(r.tunnels))
	for hostPort, t := range r.tunnels {
		tunnels = append(tunnels, t)
		delete(r.tunnels, hostPort)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, t := range tunnels {
		wg.Add(1)
		go func(t *Tunnel) {
			defer wg.Done()
			t.Stop()
		}(t)
	}
	wg.Wait()
}

// portsSnapshot returns the host ports currently tracked, for tests and the
// `list` command's port table.
func (r *Registry) portsSnapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.tunnels))
	for p := range r.tunnels {
		out = append(out, p)
	}
	return out
}

// freeEphemeralPort asks the OS for an unused TCP port by binding to :0 and
// immediately releasing it.
func freeEphemeralPort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, devcerrors.Internal(err)
	}
	defer l.Close()
	_, portStr, err := net.SplitHostPort(l.Addr().String())
	if err != nil {
		return 0, devcerrors.Internal(err)
	}
	return strconv.Atoi(portStr)
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s-retlaw/devc/internal/agent"
	"github.com/s-retlaw/devc/internal/config"
	"github.com/s-retlaw/devc/internal/creds"
	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/lifecycle"
	"github.com/s-retlaw/devc/internal/output"
	"github.com/s-retlaw/devc/internal/ports"
	"github.com/s-retlaw/devc/internal/provider"
	"github.com/s-retlaw/devc/internal/ui"
	"github.com/s-retlaw/devc/internal/util"
	"github.com/s-retlaw/devc/internal/workspace"
)

// resolveWorkspaceDir returns the effective workspace directory: the
// --workspace flag if set, else the process's current directory.
func resolveWorkspaceDir() (string, error) {
	if flagWorkspace != "" {
		return flagWorkspace, nil
	}
	return os.Getwd()
}

// loadConfig discovers and fully resolves one workspace's devcontainer.json
// — parse, global-config/CLI-override merge, then variable substitution —
// per spec.md §3/§4.2's pipeline. Returns the workspace, the stable id, and
// the resolved config.
func loadConfig() (*workspace.Workspace, string, *config.DevcontainerConfig, error) {
	wsDir, err := resolveWorkspaceDir()
	if err != nil {
		return nil, "", nil, devcerrors.Internal(err)
	}

	cfgPath := flagConfigPath
	if cfgPath == "" {
		cfgPath, err = config.FindConfigPath(wsDir)
		if err != nil {
			return nil, "", nil, err
		}
	}

	ws, err := workspace.Discover(wsDir, cfgPath)
	if err != nil {
		return nil, "", nil, err
	}
	id := workspace.ComputeID(ws.Path)

	raw, err := config.ParseFile(cfgPath)
	if err != nil {
		return nil, "", nil, err
	}

	global, err := config.LoadGlobalConfig()
	if err != nil {
		return nil, "", nil, err
	}

	cfg := config.Resolve(raw, global, config.CLIOverrides{
		Runtime:    flagRuntime,
		RemoteUser: flagRemoteUser,
	})

	home, _ := os.UserHomeDir()
	subCtx := &config.SubstitutionContext{
		LocalWorkspaceFolder:     ws.Path,
		ContainerWorkspaceFolder: config.DetermineContainerWorkspaceFolder("", ws.Path),
		DevcontainerID:           id,
		UserHome:                 home,
		ContainerEnv:             cfg.ContainerEnv,
		LocalEnv:                 os.Getenv,
	}
	if err := config.SubstituteConfig(cfg, subCtx); err != nil {
		return nil, "", nil, err
	}

	return ws, id, cfg, nil
}

// buildOrchestrator assembles an Orchestrator for the current workspace,
// wiring C5 (credentials) and C6 (agents) in from the global config when
// enabled — both stay nil-safe no-ops when disabled.
func buildOrchestrator(cmd *cobra.Command) (*lifecycle.Orchestrator, *workspace.Workspace, error) {
	ws, id, cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	global, err := config.LoadGlobalConfig()
	if err != nil {
		return nil, nil, err
	}

	runtime := config.ResolveRuntime(config.CLIOverrides{Runtime: flagRuntime}, global)
	prov, err := provider.Select(runtime, "")
	if err != nil {
		return nil, nil, err
	}

	o := &lifecycle.Orchestrator{
		Provider: prov,
		Cfg:      cfg,
		WS:       ws,
		ID:       id,
		Logger:   output.Default(),
	}

	if global.Credentials.Enabled {
		proxy, helperPath, err := buildCredsProxy(id)
		if err != nil {
			ui.Verbose("credential proxy unavailable: %v", err)
		} else {
			o.CredsProxy = proxy
			o.HelperBinaryPath = helperPath
		}
	}

	if global.Agents.Enabled {
		o.AgentSettings = agentSettings(global)
		o.HostEnv = hostEnvMap()
	}

	o.PortForwarder = ports.NewForwarder(prov, o.ContainerName(), id, output.Default())

	return o, ws, nil
}

// buildCredsProxy constructs the host-side C5 proxy for one workspace,
// discovering the host's docker-credential helper from ~/.docker/config.json
// and locating the devc-helper binary to install into the container.
func buildCredsProxy(id string) (*creds.Proxy, string, error) {
	sockDir := util.RuntimeSocketDir()
	if err := util.EnsureDir(sockDir, 0700); err != nil {
		return nil, "", devcerrors.Internal(err)
	}
	sockPath := filepath.Join(sockDir, "devc-creds-"+id+".sock")

	var docker creds.Resolver
	if store, _ := creds.HostCredsStore(); store != "" {
		docker = creds.NewDockerResolver(store)
	}
	git := &creds.GitResolver{}

	proxy := creds.NewProxy(sockPath, docker, git, output.Default())

	helperPath, err := helperBinaryPath()
	if err != nil {
		return nil, "", err
	}
	return proxy, helperPath, nil
}

// helperBinaryPath locates devc-helper next to the running devc binary —
// the two are always shipped and installed together.
func helperBinaryPath() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", devcerrors.Internal(err)
	}
	path := filepath.Join(filepath.Dir(self), "devc-helper")
	if !util.Exists(path) {
		return "", fmt.Errorf("devc-helper not found next to %s", self)
	}
	return path, nil
}

// agentSettings converts the global config's AgentsSection into the
// map[agent.Kind]agent.Settings C6 consumes, skipping kinds left disabled.
func agentSettings(global *config.GlobalConfig) map[agent.Kind]agent.Settings {
	out := map[agent.Kind]agent.Settings{}
	add := func(kind agent.Kind, s config.AgentConfigSection) {
		if !s.Enabled {
			return
		}
		out[kind] = agent.Settings{
			Enabled:    s.Enabled,
			Install:    s.Install,
			OnStart:    s.OnStart,
			EnvForward: s.EnvForward,
		}
	}
	add(agent.KindCodex, global.Agents.Codex)
	add(agent.KindClaude, global.Agents.Claude)
	add(agent.KindCursor, global.Agents.Cursor)
	add(agent.KindGemini, global.Agents.Gemini)
	return out
}

// hostEnvMap snapshots the host environment as a map, the form
// agent.Injector's validation step needs to check RequiredEnv/EnvForward
// against.
func hostEnvMap() map[string]string {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			out[kv[:idx]] = kv[idx+1:]
		}
	}
	return out
}

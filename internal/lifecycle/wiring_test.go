package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s-retlaw/devc/internal/agent"
	"github.com/s-retlaw/devc/internal/creds"
	"github.com/s-retlaw/devc/internal/provider"
	"github.com/s-retlaw/devc/internal/state"
)

func TestCredsMountArgsNilWithoutProxy(t *testing.T) {
	o := testOrchestrator(t)
	assert.Nil(t, o.credsMountArgs())
}

func TestCredsMountArgsIncludesSocketBind(t *testing.T) {
	o := testOrchestrator(t)
	o.CredsProxy = &creds.Proxy{SocketPath: "/tmp/devc/creds.sock"}
	args := o.credsMountArgs()
	require.NotEmpty(t, args)
	assert.Contains(t, args, "--mount")
}

func TestInstallCredsShimNoopWithoutHelperPath(t *testing.T) {
	o := testOrchestrator(t)
	require.NoError(t, o.installCredsShim(context.Background(), "devc-test"))
}

func TestSyncAgentsNoopWithoutSettings(t *testing.T) {
	o := testOrchestrator(t)
	assert.Nil(t, o.syncAgents(context.Background(), "devc-test", false))
}

func TestUpSucceedsWithAgentSettingsConfigured(t *testing.T) {
	o := testOrchestrator(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	o.AgentSettings = map[agent.Kind]agent.Settings{
		agent.KindCodex: {Enabled: true}, // host files absent -> unvalidated, still a warning not a failure
	}
	require.NoError(t, o.Up(context.Background()))

	s, err := state.Load(o.ID)
	require.NoError(t, err)
	assert.Equal(t, state.PhaseHooksRan, s.LifecyclePhase)
}

func TestSyncAgentsGatesOnStartAgentsOnRestart(t *testing.T) {
	o := testOrchestrator(t)
	o.AgentSettings = map[agent.Kind]agent.Settings{
		agent.KindCodex:  {Enabled: true, OnStart: true},
		agent.KindClaude: {Enabled: true, OnStart: false},
	}

	full := o.syncAgents(context.Background(), "devc-test", false)
	assert.Len(t, full, 2, "a fresh up/rebuild syncs every enabled agent regardless of on_start")

	restart := o.syncAgents(context.Background(), "devc-test", true)
	assert.Len(t, restart, 1, "a restart (devc start) only syncs on_start=true agents")
	assert.Equal(t, agent.KindCodex, restart[0].Agent)
}

func TestUpInstallsCredsShimWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "argv.log")
	runtimePath := filepath.Join(dir, "fake-runtime")
	script := "#!/bin/sh\necho \"$@\" >> " + logPath + "\nif [ \"$1\" = \"cp\" ] && [ \"$2\" = \"-\" ]; then cat > /dev/null; fi\nexit 0\n"
	require.NoError(t, os.WriteFile(runtimePath, []byte(script), 0o755))

	o := testOrchestrator(t)
	o.Provider = provider.New(provider.KindDocker, runtimePath)

	sockDir := t.TempDir()
	o.CredsProxy = &creds.Proxy{SocketPath: filepath.Join(sockDir, "creds.sock")}

	helperPath := filepath.Join(dir, "devc-helper")
	require.NoError(t, os.WriteFile(helperPath, []byte("fake-binary"), 0o755))
	o.HelperBinaryPath = helperPath

	require.NoError(t, o.Up(context.Background()))
	t.Cleanup(func() { _ = o.CredsProxy.Stop() })

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cp -")
}

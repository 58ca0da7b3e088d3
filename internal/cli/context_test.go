package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s-retlaw/devc/internal/agent"
	"github.com/s-retlaw/devc/internal/config"
)

func TestResolveWorkspaceDirDefaultsToCwd(t *testing.T) {
	orig := flagWorkspace
	defer func() { flagWorkspace = orig }()
	flagWorkspace = ""

	cwd, err := os.Getwd()
	require.NoError(t, err)
	got, err := resolveWorkspaceDir()
	require.NoError(t, err)
	assert.Equal(t, cwd, got)
}

func TestResolveWorkspaceDirHonorsFlag(t *testing.T) {
	orig := flagWorkspace
	defer func() { flagWorkspace = orig }()
	flagWorkspace = "/tmp/somewhere"

	got, err := resolveWorkspaceDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/somewhere", got)
}

func TestHostEnvMapRoundTripsASetVariable(t *testing.T) {
	t.Setenv("DEVC_CLI_TEST_VAR", "hello")
	m := hostEnvMap()
	assert.Equal(t, "hello", m["DEVC_CLI_TEST_VAR"])
}

func TestAgentSettingsSkipsDisabledKinds(t *testing.T) {
	global := &config.GlobalConfig{
		Agents: config.AgentsSection{
			Enabled: true,
			Codex:   config.AgentConfigSection{Enabled: true, Install: true},
			Claude:  config.AgentConfigSection{Enabled: false},
		},
	}
	settings := agentSettings(global)
	_, hasCodex := settings[agent.KindCodex]
	_, hasClaude := settings[agent.KindClaude]
	assert.True(t, hasCodex)
	assert.False(t, hasClaude)
	assert.True(t, settings[agent.KindCodex].Install)
}

package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s-retlaw/devc/internal/config"
	"github.com/s-retlaw/devc/internal/state"
	"github.com/s-retlaw/devc/internal/workspace"
)

func testOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	t.Setenv("DEVC_STATE_DIR", t.TempDir())
	ws := &workspace.Workspace{Path: t.TempDir()}
	return &Orchestrator{
		Provider: fakeRuntime(t),
		Cfg: &config.DevcontainerConfig{
			Plan: config.NewImagePlan("alpine:3"),
		},
		WS:     ws,
		ID:     "deadbeef00000000000000000000000",
		Logger: silentLogger(),
	}
}

func TestUpDrivesImagePlanToHooksRan(t *testing.T) {
	o := testOrchestrator(t)
	require.NoError(t, o.Up(context.Background()))

	s, err := state.Load(o.ID)
	require.NoError(t, err)
	assert.Equal(t, state.PhaseHooksRan, s.LifecyclePhase)
	assert.Equal(t, "devc-"+o.ID, s.ContainerName)
}

func TestStopThenUpResumesFromStopped(t *testing.T) {
	o := testOrchestrator(t)
	require.NoError(t, o.Up(context.Background()))
	require.NoError(t, o.Stop(context.Background()))

	s, err := state.Load(o.ID)
	require.NoError(t, err)
	assert.Equal(t, state.PhaseStopped, s.LifecyclePhase)

	require.NoError(t, o.Up(context.Background()))
	s, err = state.Load(o.ID)
	require.NoError(t, err)
	assert.Equal(t, state.PhaseHooksRan, s.LifecyclePhase)
}

func TestRemoveDeletesStateRecord(t *testing.T) {
	o := testOrchestrator(t)
	require.NoError(t, o.Up(context.Background()))
	require.NoError(t, o.Remove(context.Background()))

	s, err := state.Load(o.ID)
	require.NoError(t, err)
	assert.Equal(t, state.PhaseUninitialized, s.LifecyclePhase)
}

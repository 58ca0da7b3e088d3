package state

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withStateDir(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("DEVC_STATE_DIR", dir)
	return dir
}

func TestSaveLoadRoundTrip(t *testing.T) {
	withStateDir(t)
	s := &ContainerState{
		ID: "abc123", WorkspacePath: "/tmp/w", Runtime: "docker",
		ContainerName: "devc-abc123", LifecyclePhase: PhaseHooksRan,
	}
	require.NoError(t, Save(s))

	loaded, err := Load("abc123")
	require.NoError(t, err)
	assert.Equal(t, s.ContainerName, loaded.ContainerName)
	assert.Equal(t, PhaseHooksRan, loaded.LifecyclePhase)
}

func TestLoadMissingIsUninitialized(t *testing.T) {
	withStateDir(t)
	s, err := Load("nope")
	require.NoError(t, err)
	assert.Equal(t, PhaseUninitialized, s.LifecyclePhase)
}

func TestLoadCorruptQuarantines(t *testing.T) {
	dir := withStateDir(t)
	badPath := dir + "/bad.json"
	require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0644))

	s, err := Load("bad")
	require.Error(t, err)
	assert.Equal(t, PhaseUninitialized, s.LifecyclePhase)
	_, statErr := os.Stat(dir + "/bad.json.corrupt")
	assert.NoError(t, statErr)
}

func TestValidateRejectsBadPhase(t *testing.T) {
	s := &ContainerState{ID: "x", WorkspacePath: "/tmp/x", LifecyclePhase: "Bogus"}
	assert.Error(t, s.Validate())
}

func TestListAll(t *testing.T) {
	withStateDir(t)
	require.NoError(t, Save(&ContainerState{ID: "one", WorkspacePath: "/tmp/one", LifecyclePhase: PhaseCreated}))
	require.NoError(t, Save(&ContainerState{ID: "two", WorkspacePath: "/tmp/two", LifecyclePhase: PhaseStarted}))

	all, err := ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

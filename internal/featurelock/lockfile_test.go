package featurelock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPath(t *testing.T) {
	assert.Equal(t, "/w/.devcontainer-lock.json", GetPath("/w/.devcontainer.json"))
	assert.Equal(t, "/w/devcontainer-lock.json", GetPath("/w/devcontainer.json"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "devcontainer.json")

	lf := New()
	lf.Set("ghcr.io/devcontainers/features/go:1", LockedFeature{Version: "1.2.3", Resolved: "ghcr.io/devcontainers/features/go@sha256:abc", Integrity: "sha256:def"})
	require.NoError(t, lf.Save(configPath))

	loaded, initMarker, err := Load(configPath)
	require.NoError(t, err)
	assert.False(t, initMarker)
	require.NotNil(t, loaded)
	assert.True(t, lf.Equals(loaded))
}

func TestLoadEmptyFileIsInitMarker(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "devcontainer.json")
	require.NoError(t, os.WriteFile(GetPath(configPath), []byte(""), 0644))

	lf, initMarker, err := Load(configPath)
	require.NoError(t, err)
	assert.Nil(t, lf)
	assert.True(t, initMarker)
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	lf, initMarker, err := Load(filepath.Join(dir, "devcontainer.json"))
	require.NoError(t, err)
	assert.Nil(t, lf)
	assert.False(t, initMarker)
}

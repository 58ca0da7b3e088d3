package features

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s-retlaw/devc/internal/config"
)

func writeLocalFeature(t *testing.T, workspaceDir, relDir string) {
	t.Helper()
	dir := filepath.Join(workspaceDir, relDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	meta := `{"id":"local-feature","version":"1.0.0","name":"Local Feature","postCreateCommand":"echo hi"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "devcontainer-feature.json"), []byte(meta), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "install.sh"), []byte("#!/bin/sh\nexit 0\n"), 0o755))
}

func TestResolveLocalFeature(t *testing.T) {
	wsDir := t.TempDir()
	configPath := filepath.Join(wsDir, ".devcontainer", "devcontainer.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))
	writeLocalFeature(t, filepath.Dir(configPath), "./local-feature")

	in := &Installer{ConfigPath: configPath, CacheRoot: t.TempDir()}
	resolved, err := in.Resolve(context.Background(), []config.FeatureConfig{
		{ID: "./local-feature", Enabled: true},
	})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "local-feature", resolved[0].Metadata.ID)
	assert.Equal(t, "1.0.0", resolved[0].Metadata.Version)
}

func TestResolveSkipsDisabledFeature(t *testing.T) {
	wsDir := t.TempDir()
	configPath := filepath.Join(wsDir, ".devcontainer", "devcontainer.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))

	in := &Installer{ConfigPath: configPath, CacheRoot: t.TempDir()}
	resolved, err := in.Resolve(context.Background(), []config.FeatureConfig{
		{ID: "ghcr.io/devcontainers/features/go:1", Enabled: false},
	})
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolveRejectsHTTPSDistribution(t *testing.T) {
	wsDir := t.TempDir()
	configPath := filepath.Join(wsDir, "devcontainer.json")

	in := &Installer{ConfigPath: configPath, CacheRoot: t.TempDir()}
	_, err := in.Resolve(context.Background(), []config.FeatureConfig{
		{ID: "https://example.com/feature.tgz", Enabled: true},
	})
	assert.Error(t, err)
}

func TestOptionsToEnvAppliesDefaultsThenOverrides(t *testing.T) {
	declared := map[string]interface{}{
		"version": map[string]interface{}{"default": "latest"},
		"flag":    map[string]interface{}{"default": false},
	}
	selected := map[string]interface{}{"version": "1.22"}

	env := optionsToEnv(selected, declared)
	assert.Equal(t, "1.22", env["VERSION"])
	assert.Equal(t, "false", env["FLAG"])
}

func TestSanitizeRefIsFilesystemSafe(t *testing.T) {
	assert.Equal(t, "ghcr.io_x_y_1", sanitizeRef("ghcr.io/x/y:1"))
}

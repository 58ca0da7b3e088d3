package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s-retlaw/devc/internal/provider"
)

// fakeRuntime writes a shell script standing in for docker/podman: every
// `exec` invocation exits with probeExit and everything else exits 0. Each
// invocation is logged so tests can assert on probe/install argv.
func fakeRuntime(t *testing.T, probeExit int) (prov *provider.Provider, logPath string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-runtime")
	logPath = filepath.Join(dir, "argv.log")
	script := "#!/bin/sh\n" +
		"echo \"$@\" >> " + logPath + "\n" +
		"if [ \"$1\" = \"exec\" ]; then exit " + itoa(probeExit) + "; fi\n" +
		"exit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return provider.New(provider.KindDocker, path), logPath
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	return "1"
}

func claudeHostFiles(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".claude"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".claude", ".credentials.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".claude", "settings.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".claude.json"), []byte("{}"), 0o600))
	return home
}

func TestSyncClaudeAllThreeFilesPresentValidatesAndCopies(t *testing.T) {
	t.Setenv("HOME", claudeHostFiles(t))
	prov, _ := fakeRuntime(t, 0) // probe succeeds -> no install attempted

	inj := &Injector{Provider: prov, ContainerName: "devc-test"}
	result := inj.Sync(context.Background(), KindClaude, Settings{Enabled: true, Install: true}, nil)

	assert.True(t, result.Validated)
	assert.True(t, result.Copied)
	assert.False(t, result.Installed)
	assert.Empty(t, result.Warnings)
}

func TestSyncClaudeMissingClaudeJSONFailsValidationAndSkipsCopy(t *testing.T) {
	home := claudeHostFiles(t)
	require.NoError(t, os.Remove(filepath.Join(home, ".claude.json")))
	t.Setenv("HOME", home)
	prov, _ := fakeRuntime(t, 0)

	inj := &Injector{Provider: prov, ContainerName: "devc-test"}
	result := inj.Sync(context.Background(), KindClaude, Settings{Enabled: true}, nil)

	assert.False(t, result.Validated)
	assert.False(t, result.Copied)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], ".claude.json")
}

func TestSyncDisabledAgentIsNoop(t *testing.T) {
	prov, logPath := fakeRuntime(t, 0)
	inj := &Injector{Provider: prov, ContainerName: "devc-test"}
	result := inj.Sync(context.Background(), KindClaude, Settings{Enabled: false}, nil)

	assert.False(t, result.Validated)
	assert.False(t, result.Copied)
	assert.Empty(t, result.Warnings)
	data, _ := os.ReadFile(logPath)
	assert.Empty(t, data)
}

func TestSyncInstallsWhenProbeMissingAndNpmPresent(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".codex"), 0o755))
	t.Setenv("HOME", home)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "fake-runtime")
	logPath := filepath.Join(dir, "argv.log")
	// probe for codex fails (not installed), probe for npm succeeds, install succeeds.
	script := "#!/bin/sh\n" +
		"echo \"$@\" >> " + logPath + "\n" +
		"if [ \"$1\" = \"exec\" ] && [ \"$4\" = \"codex\" ]; then exit 1; fi\n" +
		"exit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	prov := provider.New(provider.KindDocker, path)

	inj := &Injector{Provider: prov, ContainerName: "devc-test"}
	result := inj.Sync(context.Background(), KindCodex, Settings{Enabled: true, Install: true}, nil)

	assert.True(t, result.Validated)
	assert.True(t, result.Copied)
	assert.True(t, result.Installed)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "npm install -g @openai/codex")
}

func TestSyncSkipsInstallWhenNpmAbsent(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".codex"), 0o755))
	t.Setenv("HOME", home)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "fake-runtime")
	logPath := filepath.Join(dir, "argv.log")
	// Every probe (`exec -i ...`) fails: codex probe fails, npm probe fails
	// too. The copy step's `exec <container> mkdir -p` still succeeds.
	script := "#!/bin/sh\n" +
		"echo \"$@\" >> " + logPath + "\n" +
		"if [ \"$1\" = \"exec\" ] && [ \"$2\" = \"-i\" ]; then exit 1; fi\n" +
		"exit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	prov := provider.New(provider.KindDocker, path)

	inj := &Injector{Provider: prov, ContainerName: "devc-test"}
	result := inj.Sync(context.Background(), KindCodex, Settings{Enabled: true, Install: true}, nil)

	assert.True(t, result.Copied)
	assert.False(t, result.Installed)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "npm not found")
}

func TestContainerPathRewritesForNonRootUser(t *testing.T) {
	assert.Equal(t, "/home/vscode/.claude.json", containerPath("/root/.claude.json", "vscode"))
	assert.Equal(t, "/root/.claude.json", containerPath("/root/.claude.json", "root"))
	assert.Equal(t, "/root/.claude.json", containerPath("/root/.claude.json", ""))
}

func TestSummarizeAggregatesWarningCount(t *testing.T) {
	msg, ok := Summarize([]*SyncResult{{Warnings: []string{"a"}}, {Warnings: []string{"b", "c"}}})
	assert.True(t, ok)
	assert.Contains(t, msg, "3 warning")

	_, ok = Summarize([]*SyncResult{{}})
	assert.False(t, ok)
}

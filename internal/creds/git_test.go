package creds

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGit writes a script standing in for `git` so GitResolver can be
// tested without a real git-credential backend.
func fakeGit(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "git")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestGitResolverMapsOpsToPorcelainVerbs(t *testing.T) {
	script := "#!/bin/sh\necho \"action=$2\"\ncat\n"
	g := &GitResolver{GitPath: fakeGit(t, script)}

	out, err := g.Resolve(context.Background(), OpGet, []byte("host=example.com\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "action=fill")
	assert.Contains(t, string(out), "host=example.com")

	out, err = g.Resolve(context.Background(), OpStore, []byte("host=example.com\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "action=approve")

	out, err = g.Resolve(context.Background(), OpErase, []byte("host=example.com\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "action=reject")
}

func TestGitResolverRejectsListOp(t *testing.T) {
	g := &GitResolver{GitPath: fakeGit(t, "#!/bin/sh\nexit 0\n")}
	_, err := g.Resolve(context.Background(), OpList, nil)
	assert.Error(t, err)
}

func TestGitResolverWrapsFailureAsCredentialUnavailable(t *testing.T) {
	g := &GitResolver{GitPath: fakeGit(t, "#!/bin/sh\nexit 1\n")}
	_, err := g.Resolve(context.Background(), OpGet, []byte("host=example.com\n"))
	require.Error(t, err)
}

func TestFirstHostLine(t *testing.T) {
	assert.Equal(t, "example.com", firstHostLine([]byte("protocol=https\nhost=example.com\n")))
	assert.Equal(t, "", firstHostLine([]byte("protocol=https\n")))
}

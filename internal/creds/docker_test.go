package creds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostCredsStoreReadsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".docker"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".docker", "config.json"),
		[]byte(`{"credsStore":"desktop"}`), 0644))

	store, err := HostCredsStore()
	require.NoError(t, err)
	assert.Equal(t, "desktop", store)
}

func TestHostCredsStoreMissingFileReturnsEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	store, err := HostCredsStore()
	require.NoError(t, err)
	assert.Empty(t, store)
}

func TestMountArgsRootUser(t *testing.T) {
	args := MountArgs("/run/user/1000/devc/abc.sock", "")
	assert.Contains(t, args, "--mount")
	assert.Contains(t, args, "type=bind,source=/run/user/1000/devc/abc.sock,target=/run/devc/creds.sock")
	assert.Contains(t, args, "/root/.docker:size=1m,mode=0700,uid=0")
}

func TestMountArgsNonRootUser(t *testing.T) {
	args := MountArgs("/run/user/1000/devc/abc.sock", "vscode")
	assert.Contains(t, args, "/home/vscode/.docker:size=1m,mode=0700,uid=0")
}

package ports

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s-retlaw/devc/internal/provider"
)

// fakeRuntime returns a Provider backed by a shell script printing the
// given /proc/net/tcp-format body whenever invoked with `exec ... cat
// /proc/net/tcp ...`.
func fakeRuntime(t *testing.T, body string) *provider.Provider {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-runtime")
	script := "#!/bin/sh\ncat <<'EOF'\n" + body + "\nEOF\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return provider.New(provider.KindDocker, path)
}

const sampleProcNetTCP = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 00000000:1F90 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 1234 1 0000000000000000 100 0 0 10 0
   1: 0100007F:1F91 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 1235 1 0000000000000000 100 0 0 10 0
   2: 0100007F:1234 00000000:0000 01 00000000:00000000 00:00000000 00000000     0        0 1236 1 0000000000000000 100 0 0 10 0`

func TestDiscoverFindsListenEntriesFilteringLoopback(t *testing.T) {
	prov := fakeRuntime(t, sampleProcNetTCP)
	entries, err := Discover(context.Background(), prov, "devc-test", nil, 0)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, 8080, entries[0].ContainerPort)
	assert.Equal(t, StateListen, entries[0].State)
}

func TestDiscoverKeepsExplicitForwardPortsEvenOnLoopback(t *testing.T) {
	prov := fakeRuntime(t, sampleProcNetTCP)
	entries, err := Discover(context.Background(), prov, "devc-test", []int{8081}, 0)
	require.NoError(t, err)

	require.Len(t, entries, 2)
}

func TestDiscoverSkipsNonListenStates(t *testing.T) {
	prov := fakeRuntime(t, sampleProcNetTCP)
	entries, err := Discover(context.Background(), prov, "devc-test", []int{4660}, 0)
	require.NoError(t, err)

	for _, e := range entries {
		assert.NotEqual(t, 4660, e.ContainerPort)
	}
}

func TestParseHexAddrIPv4(t *testing.T) {
	ip, err := parseHexAddr("0100007F")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip.String())
}

func TestReadAttributesDefaultsToContainerPortAndNotify(t *testing.T) {
	a := ReadAttributes(nil, 3000)
	assert.Equal(t, 3000, a.HostPort)
	assert.Equal(t, AutoForwardNotify, a.OnAutoForward)
}

func TestReadAttributesHonorsConfiguredEntry(t *testing.T) {
	attrs := map[string]Attributes{
		"3000": {HostPort: 13000, OnAutoForward: AutoForwardOpenBrowser, Label: "web"},
	}
	a := ReadAttributes(attrs, 3000)
	assert.Equal(t, 13000, a.HostPort)
	assert.Equal(t, AutoForwardOpenBrowser, a.OnAutoForward)
	assert.Equal(t, "web", a.Label)
}

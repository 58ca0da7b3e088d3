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

func fakeRuntimeWithBody(t *testing.T, body string) *provider.Provider {
	t.Helper()
	return fakeRuntime(t, body)
}

func TestForwarderSyncOpensTunnelsAndSkipsIgnored(t *testing.T) {
	socatBin := fakeSocatBinary(t)
	withFakeSocatOnPATH(t, filepath.Dir(socatBin))

	body := `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 00000000:1F90 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 1234 1 0000000000000000 100 0 0 10 0
   1: 00000000:1F91 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 1235 1 0000000000000000 100 0 0 10 0`
	prov := fakeRuntimeWithBody(t, body)

	fwd := NewForwarder(prov, "devc-test", "container-abc", nil)
	t.Cleanup(fwd.StopAll)

	attrs := map[string]Attributes{
		"8081": {OnAutoForward: AutoForwardIgnore},
	}
	entries, err := fwd.Sync(context.Background(), nil, 0, attrs)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var forwarded, ignored int
	for _, e := range entries {
		switch e.ContainerPort {
		case 8080:
			assert.Equal(t, StateForwarded, e.State)
			forwarded++
		case 8081:
			assert.Equal(t, StateListen, e.State)
			ignored++
		}
	}
	assert.Equal(t, 1, forwarded)
	assert.Equal(t, 1, ignored)
	assert.Len(t, fwd.OpenPorts(), 1)
}

func TestForwarderOpenBrowserDedupedPerContainerAndPort(t *testing.T) {
	socatBin := fakeSocatBinary(t)
	withFakeSocatOnPATH(t, filepath.Dir(socatBin))

	body := `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 00000000:1F90 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 1234 1 0000000000000000 100 0 0 10 0`
	prov := fakeRuntimeWithBody(t, body)

	fwd := NewForwarder(prov, "devc-test", "container-abc", nil)
	t.Cleanup(fwd.StopAll)

	attrs := map[string]Attributes{"8080": {OnAutoForward: AutoForwardOpenBrowser}}

	_, err := fwd.Sync(context.Background(), nil, 0, attrs)
	require.NoError(t, err)
	assert.Len(t, fwd.opened, 1)

	_, err = fwd.Sync(context.Background(), nil, 0, attrs)
	require.NoError(t, err)
	assert.Len(t, fwd.opened, 1, "re-discovery must not re-open the key")
}

func TestMain(m *testing.M) {
	// open.Run shells out to xdg-open/open/start depending on OS; stub it
	// onto PATH as a no-op so TestForwarderOpenBrowserDedupedPerContainerAndPort
	// doesn't require a real browser opener to be present.
	dir, err := os.MkdirTemp("", "devc-open-stub")
	if err == nil {
		for _, name := range []string{"xdg-open", "open"} {
			os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755)
		}
		os.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
	os.Exit(m.Run())
}

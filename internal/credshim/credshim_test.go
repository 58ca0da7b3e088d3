package credshim

import (
	"bufio"
	"bytes"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s-retlaw/devc/internal/creds"
)

// fakeProxy listens once on a Unix socket, reads exactly one framed
// request, and writes back a canned response — enough to exercise Run's
// dial/frame/copy path without the real creds.Proxy.
func fakeProxy(t *testing.T, response []byte) (sockPath string, gotHeader *string) {
	t.Helper()
	sockPath = filepath.Join(t.TempDir(), "creds.sock")
	l, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	var header string
	gotHeader = &header

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		header = line
		_, _ = r.ReadString(0) // drain rest until EOF/half-close
		_, _ = conn.Write(response)
	}()
	return sockPath, gotHeader
}

func TestRunSendsFrameHeaderAndReturnsResponse(t *testing.T) {
	sockPath, gotHeader := fakeProxy(t, []byte(`{"Secret":"x"}`))

	var out bytes.Buffer
	err := run(sockPath, creds.KindDocker, creds.OpGet, strings.NewReader("https://example.com\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "docker\tget\n", *gotHeader)
	assert.Equal(t, `{"Secret":"x"}`, out.String())
}

func TestDockerOpMapsAllFourVerbs(t *testing.T) {
	for _, tc := range []struct {
		arg  string
		want creds.Op
	}{
		{"get", creds.OpGet},
		{"store", creds.OpStore},
		{"erase", creds.OpErase},
		{"list", creds.OpList},
	} {
		got, ok := DockerOp(tc.arg)
		assert.True(t, ok)
		assert.Equal(t, tc.want, got)
	}
	_, ok := DockerOp("bogus")
	assert.False(t, ok)
}

func TestGitOpExcludesList(t *testing.T) {
	for _, tc := range []struct {
		arg  string
		want creds.Op
	}{
		{"get", creds.OpGet},
		{"store", creds.OpStore},
		{"erase", creds.OpErase},
	} {
		got, ok := GitOp(tc.arg)
		assert.True(t, ok)
		assert.Equal(t, tc.want, got)
	}
	_, ok := GitOp("list")
	assert.False(t, ok)
}

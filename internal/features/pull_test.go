package features

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTar(t *testing.T, entries map[string]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return &buf
}

func TestExtractTarWritesFiles(t *testing.T) {
	buf := buildTar(t, map[string]string{
		"devcontainer-feature.json": `{"id":"x"}`,
		"install.sh":                "#!/bin/sh\n",
	})
	dest := t.TempDir()
	require.NoError(t, extractTar(buf, dest))

	data, err := os.ReadFile(filepath.Join(dest, "devcontainer-feature.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"x"`)
}

func TestExtractTarClampsPathTraversalWithinDest(t *testing.T) {
	buf := buildTar(t, map[string]string{"../../etc/passwd": "pwned"})
	dest := t.TempDir()
	require.NoError(t, extractTar(buf, dest))

	// A "../../etc/passwd" entry must land inside dest, never at the real
	// /etc/passwd — extractTar roots every entry at "/" before joining.
	written, err := os.ReadFile(filepath.Join(dest, "etc", "passwd"))
	require.NoError(t, err)
	assert.Equal(t, "pwned", string(written))
}

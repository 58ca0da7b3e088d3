package lock

import (
	"testing"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	t.Setenv("DEVC_STATE_DIR", t.TempDir())

	l, err := Acquire("ws1")
	require.NoError(t, err)
	require.NoError(t, l.Release())
}

func TestAcquireContentionIsBusy(t *testing.T) {
	t.Setenv("DEVC_STATE_DIR", t.TempDir())

	l, err := Acquire("ws2")
	require.NoError(t, err)
	defer l.Release()

	_, err2 := Acquire("ws2")
	require.Error(t, err2)
	assert.Equal(t, devcerrors.CodeBusy, devcerrors.GetCode(err2))
}

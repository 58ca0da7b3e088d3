package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s-retlaw/devc/internal/state"
)

func TestAdvanceKnownPath(t *testing.T) {
	next, err := Advance(state.PhaseUninitialized, EventBuild)
	require.NoError(t, err)
	assert.Equal(t, state.PhaseBuilt, next)

	next, err = Advance(state.PhaseBuilt, EventCreate)
	require.NoError(t, err)
	assert.Equal(t, state.PhaseCreated, next)

	next, err = Advance(state.PhaseCreated, EventStart)
	require.NoError(t, err)
	assert.Equal(t, state.PhaseStarted, next)
}

func TestAdvanceUnknownTransitionErrors(t *testing.T) {
	_, err := Advance(state.PhaseHooksRan, EventBuild)
	assert.Error(t, err)
}

func TestAdvanceRemoveIsAlwaysLegal(t *testing.T) {
	next, err := Advance(state.PhaseStarted, EventRemove)
	require.NoError(t, err)
	assert.Equal(t, state.PhaseRemoved, next)
}

package lifecycle

import (
	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/state"
)

// Event names the lifecycle-changing operations the CLI surface drives;
// each maps to at most one legal next Phase from a given current Phase.
type Event string

const (
	EventBuild   Event = "build"
	EventCreate  Event = "create"
	EventStart   Event = "start"
	EventHooks   Event = "hooks"
	EventStop    Event = "stop"
	EventRemove  Event = "remove"
	EventAdopt   Event = "adopt"
	EventRebuild Event = "rebuild"
)

type transitionKey struct {
	from  state.Phase
	event Event
}

// transitions is the explicit (currentPhase, event) -> nextPhase table
// `up`/`down`/`start`/`stop`/`rebuild`/`adopt` drive themselves through, one
// step at a time, persisting state.ContainerState after each successful
// step so a crash mid-`up` resumes from the last completed phase rather
// than re-running everything.
var transitions = map[transitionKey]state.Phase{
	{state.PhaseUninitialized, EventBuild}: state.PhaseBuilt,
	{state.PhaseUninitialized, EventCreate}: state.PhaseCreated, // create with no recorded build step (Orchestrator.Up records Built for every plan)
	{state.PhaseBuilt, EventCreate}:         state.PhaseCreated,
	{state.PhaseCreated, EventStart}:        state.PhaseStarted,
	{state.PhaseStarted, EventHooks}:        state.PhaseHooksRan,
	{state.PhaseHooksRan, EventStop}:        state.PhaseStopped,
	{state.PhaseStarted, EventStop}:         state.PhaseStopped,
	{state.PhaseStopped, EventStart}:        state.PhaseStarted,
	{state.PhaseHooksRan, EventStart}:       state.PhaseStarted, // postAttach-only restart
	{state.PhaseUninitialized, EventAdopt}:  state.PhaseAdopted,
	{state.PhaseAdopted, EventStart}:        state.PhaseStarted,
	{state.PhaseAdopted, EventStop}:         state.PhaseStopped,

	// EventRemove is legal from any phase; handled by Advance's wildcard
	// check below rather than one row per source phase.
}

// Advance validates and returns the next phase for (current, event), or a
// devcerrors error (category lifecycle, code internal) if the transition is
// not in the table — callers must never write a phase the table didn't
// produce.
func Advance(current state.Phase, event Event) (state.Phase, error) {
	if event == EventRemove {
		return state.PhaseRemoved, nil
	}
	next, ok := transitions[transitionKey{current, event}]
	if !ok {
		return "", devcerrors.Newf(devcerrors.CategoryLifecycle, devcerrors.CodeInternal,
			"no transition from phase %q on event %q", current, event)
	}
	return next, nil
}

package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateStarting

	next, err := Transition(s, EventReady)
	require.NoError(t, err)
	require.Equal(t, StateServing, next)

	next, err = Transition(next, EventShutdown)
	require.NoError(t, err)
	require.Equal(t, StateStopping, next)
}

func TestTransitionDegrade(t *testing.T) {
	next, err := Transition(StateServing, EventDegrade)
	require.NoError(t, err)
	require.Equal(t, StateDegraded, next)

	next, err = Transition(next, EventDegrade)
	require.NoError(t, err)
	require.Equal(t, StateDegraded, next)

	next, err = Transition(StateStarting, EventDegrade)
	require.NoError(t, err)
	require.Equal(t, StateDegraded, next)
}

func TestTransitionInvalid(t *testing.T) {
	tests := []struct {
		state State
		event Event
	}{
		{StateServing, EventReady},
		{StateDegraded, EventReady},
		{StateStopping, EventReady},
		{StateStopping, EventShutdown},
		{StateStopping, EventDegrade},
	}
	for _, tc := range tests {
		next, err := Transition(tc.state, tc.event)
		require.Error(t, err, "%s/%s", tc.state, tc.event)
		require.Contains(t, err.Error(), "invalid transition")
		require.Equal(t, tc.state, next)
	}

	_, err := Transition(State("bogus"), EventReady)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
}

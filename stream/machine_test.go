package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineStartsIdle(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, Idle, m.Current())
}

func TestMachineValidTransitions(t *testing.T) {
	valid := []struct {
		name string
		path []State
	}{
		{"connect and stream", []State{Connecting, Streaming}},
		{"interrupt from streaming", []State{Connecting, Streaming, Interrupted}},
		{"interrupt from connecting", []State{Connecting, Interrupted}},
		{"full recovery cycle", []State{Connecting, Streaming, Interrupted, Reconnecting, Streaming}},
		{"reinterrupted during recovery", []State{Connecting, Streaming, Interrupted, Reconnecting, Interrupted}},
		{"timeout path", []State{Connecting, Streaming, Interrupted, Failed, Idle}},
		{"retry from streaming", []State{Connecting, Streaming, Reconnecting, Streaming}},
		{"stop from streaming", []State{Connecting, Streaming, Idle}},
		{"stop during recovery", []State{Connecting, Streaming, Interrupted, Reconnecting, Idle}},
	}

	for _, tc := range valid {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine()
			for _, next := range tc.path {
				require.True(t, m.Transition(next), "transition to %s should succeed", next)
			}
			assert.Equal(t, tc.path[len(tc.path)-1], m.Current())
		})
	}
}

func TestMachineRejectedTransitions(t *testing.T) {
	rejected := []struct {
		name  string
		setup []State
		to    State
	}{
		{"idle cannot stream", nil, Streaming},
		{"idle cannot interrupt", nil, Interrupted},
		{"idle cannot fail", nil, Failed},
		{"connecting cannot reconnect", []State{Connecting}, Reconnecting},
		{"streaming cannot connect", []State{Connecting, Streaming}, Connecting},
		{"failed only to idle", []State{Connecting, Failed}, Streaming},
		{"interrupted cannot stream directly", []State{Connecting, Interrupted}, Streaming},
	}

	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine()
			for _, s := range tc.setup {
				require.True(t, m.Transition(s))
			}
			before := m.Current()
			assert.False(t, m.Transition(tc.to))
			assert.Equal(t, before, m.Current(), "state must not change on rejection")
		})
	}
}

func TestMachineSelfTransitionIsSilentNoOp(t *testing.T) {
	m := NewMachine()
	require.True(t, m.Transition(Connecting))

	var notified int
	m.Subscribe(func(from, to State) { notified++ })

	assert.True(t, m.Transition(Connecting))
	assert.Equal(t, Connecting, m.Current())
	assert.Zero(t, notified, "self-transition must not notify observers")
}

func TestMachineObserverNotification(t *testing.T) {
	m := NewMachine()

	type change struct{ from, to State }
	var seen []change
	m.Subscribe(func(from, to State) {
		seen = append(seen, change{from, to})
	})

	require.True(t, m.Transition(Connecting))
	require.True(t, m.Transition(Streaming))

	require.Len(t, seen, 2)
	assert.Equal(t, change{Idle, Connecting}, seen[0])
	assert.Equal(t, change{Connecting, Streaming}, seen[1])
}

func TestMachineObserverMayTransition(t *testing.T) {
	m := NewMachine()

	// An observer requesting a transition must not deadlock.
	m.Subscribe(func(from, to State) {
		if to == Failed {
			m.Transition(Idle)
		}
	})

	require.True(t, m.Transition(Connecting))
	require.True(t, m.Transition(Failed))
	assert.Equal(t, Idle, m.Current())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "preparing", Preparing.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "streaming", Streaming.String())
	assert.Equal(t, "interrupted", Interrupted.String())
	assert.Equal(t, "reconnecting", Reconnecting.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", State(99).String())
}

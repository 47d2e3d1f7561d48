package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineLinearProgression(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, StateIdle, m.Current())

	for _, s := range []State{StateLoading, StateResolving, StateTransforming, StateComposing, StateRendering, StateDone} {
		require.NoError(t, m.Advance(s))
		assert.Equal(t, s, m.Current())
	}
	assert.True(t, m.Current().Terminal())
	assert.Len(t, m.History(), 6)

	require.ErrorIs(t, m.Advance(StateLoading), ErrInvalidTransition)
	require.ErrorIs(t, m.Fail(), ErrInvalidTransition)
}

func TestMachineRejectsSkippedStates(t *testing.T) {
	tests := []struct {
		name string
		from []State
		to   State
	}{
		{name: "idle to resolving", to: StateResolving},
		{name: "idle to done", to: StateDone},
		{name: "loading to composing", from: []State{StateLoading}, to: StateComposing},
		{name: "backwards", from: []State{StateLoading, StateResolving}, to: StateLoading},
		{name: "advance into failed", from: []State{StateLoading}, to: StateFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			for _, s := range tt.from {
				require.NoError(t, m.Advance(s))
			}
			before := m.Current()
			require.ErrorIs(t, m.Advance(tt.to), ErrInvalidTransition)
			assert.Equal(t, before, m.Current())
		})
	}
}

func TestMachineFailAndReset(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Advance(StateLoading))
	require.NoError(t, m.Advance(StateResolving))
	require.NoError(t, m.Fail())
	assert.Equal(t, StateFailed, m.Current())

	require.ErrorIs(t, m.Advance(StateTransforming), ErrInvalidTransition)

	require.NoError(t, m.Reset())
	assert.Equal(t, StateIdle, m.Current())
	assert.Empty(t, m.History())
	require.NoError(t, m.Advance(StateLoading))
	require.ErrorIs(t, m.Reset(), ErrInvalidTransition, "running machine cannot be reset")
}

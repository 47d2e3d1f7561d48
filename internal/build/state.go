package build

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// State is a position in the build state machine.
type State string

// Build states in pipeline order.
const (
	StateIdle         State = "idle"
	StateLoading      State = "loading"
	StateResolving    State = "resolving"
	StateTransforming State = "transforming"
	StateComposing    State = "composing"
	StateRendering    State = "rendering"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// ErrInvalidTransition is returned for a transition the machine does not allow.
var ErrInvalidTransition = errors.New("invalid build state transition")

var forward = map[State]State{
	StateIdle:         StateLoading,
	StateLoading:      StateResolving,
	StateResolving:    StateTransforming,
	StateTransforming: StateComposing,
	StateComposing:    StateRendering,
	StateRendering:    StateDone,
}

// Terminal reports whether no further transition is possible without a reset.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// Transition is one recorded state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Machine is the linear build state machine. States only advance one step at a
// time; any non-terminal state may move to Failed.
type Machine struct {
	mu      sync.Mutex
	state   State
	history []Transition
	now     func() time.Time
}

// NewMachine returns a machine in StateIdle.
func NewMachine() *Machine {
	return &Machine{state: StateIdle, now: time.Now}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Advance moves to the next state, which must be to.
func (m *Machine) Advance(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if next, ok := forward[m.state]; !ok || next != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.record(to)
	return nil
}

// Fail moves a machine that has not finished to StateFailed.
func (m *Machine) Fail() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, StateFailed)
	}
	m.record(StateFailed)
	return nil
}

// Reset returns a terminal machine to StateIdle and clears its history.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Terminal() && m.state != StateIdle {
		return fmt.Errorf("%w: cannot reset while %s", ErrInvalidTransition, m.state)
	}
	m.state = StateIdle
	m.history = nil
	return nil
}

// History returns the transitions recorded since the last reset.
func (m *Machine) History() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history)
}

func (m *Machine) record(to State) {
	m.history = append(m.history, Transition{From: m.state, To: to, At: m.now()})
	m.state = to
}

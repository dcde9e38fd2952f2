package synth

// RenderState represents the lifecycle of a score handle during rendering.
type RenderState int

const (
	// StateCreated indicates the handle was parsed but rendering has not begun.
	StateCreated RenderState = iota
	// StateStarted indicates the render pass has been initialized.
	StateStarted
	// StateRendering indicates chunks are being produced.
	StateRendering
	// StateDrained indicates a zero-sample chunk has been observed.
	StateDrained
	// StateReleased indicates the handle's engine state has been freed.
	StateReleased
)

// String returns the string representation of the state.
func (s RenderState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateRendering:
		return "rendering"
	case StateDrained:
		return "drained"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// StateMachine tracks render-state transitions for one handle.
//
// StateReleased is reachable from every state: the failure path releases the
// handle no matter how far rendering progressed.
type StateMachine struct {
	current     RenderState
	transitions map[RenderState][]RenderState
}

// NewStateMachine creates a state machine positioned at StateCreated.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateCreated,
		transitions: map[RenderState][]RenderState{
			StateCreated:   {StateStarted, StateReleased},
			StateStarted:   {StateRendering, StateDrained, StateReleased},
			StateRendering: {StateRendering, StateDrained, StateReleased},
			StateDrained:   {StateReleased},
			StateReleased:  {},
		},
	}
}

// Current returns the current state.
func (m *StateMachine) Current() RenderState {
	return m.current
}

// CanTransition reports whether moving to the given state is valid.
func (m *StateMachine) CanTransition(to RenderState) bool {
	for _, valid := range m.transitions[m.current] {
		if valid == to {
			return true
		}
	}
	return false
}

// Transition moves to the given state, returning false if the move is not a
// valid transition.
func (m *StateMachine) Transition(to RenderState) bool {
	if !m.CanTransition(to) {
		return false
	}
	m.current = to
	return true
}

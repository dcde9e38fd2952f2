package synth

import "testing"

// TestRenderStateString tests the String() method for RenderState.
func TestRenderStateString(t *testing.T) {
	tests := []struct {
		state    RenderState
		expected string
	}{
		{StateCreated, "created"},
		{StateStarted, "started"},
		{StateRendering, "rendering"},
		{StateDrained, "drained"},
		{StateReleased, "released"},
		{RenderState(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.state.String(); result != tt.expected {
				t.Errorf("RenderState.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestStateMachineTransitions tests valid and invalid transitions.
func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     RenderState
		to       RenderState
		expected bool
	}{
		{"created to started", StateCreated, StateStarted, true},
		{"created to released", StateCreated, StateReleased, true},
		{"created to drained", StateCreated, StateDrained, false},
		{"started to rendering", StateStarted, StateRendering, true},
		{"started to drained", StateStarted, StateDrained, true},
		{"rendering self-loop", StateRendering, StateRendering, true},
		{"rendering to drained", StateRendering, StateDrained, true},
		{"rendering to released", StateRendering, StateReleased, true},
		{"drained to released", StateDrained, StateReleased, true},
		{"drained to rendering", StateDrained, StateRendering, false},
		{"released is terminal", StateReleased, StateCreated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStateMachine()
			m.current = tt.from
			if result := m.Transition(tt.to); result != tt.expected {
				t.Errorf("Transition(%v) from %v = %v, want %v", tt.to, tt.from, result, tt.expected)
			}
		})
	}
}

// TestStateMachineFullLifecycle walks the happy path end to end.
func TestStateMachineFullLifecycle(t *testing.T) {
	m := NewStateMachine()
	path := []RenderState{StateStarted, StateRendering, StateRendering, StateDrained, StateReleased}
	for _, s := range path {
		if !m.Transition(s) {
			t.Fatalf("transition to %v from %v should be valid", s, m.Current())
		}
	}
	if m.Current() != StateReleased {
		t.Errorf("final state = %v, want %v", m.Current(), StateReleased)
	}
}

// TestStateMachineFailurePathRelease verifies release is reachable from
// every non-terminal state.
func TestStateMachineFailurePathRelease(t *testing.T) {
	for _, from := range []RenderState{StateCreated, StateStarted, StateRendering, StateDrained} {
		m := NewStateMachine()
		m.current = from
		if !m.Transition(StateReleased) {
			t.Errorf("release from %v should be valid", from)
		}
	}
}

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{StatePending, StateFetching},
		{StatePending, StateSkipped},
		{StatePending, StateFailed},
		{StateFetching, StateVerifying},
		{StateFetching, StateSkipped},
		{StateFetching, StateFailed},
		{StateVerifying, StateWritten},
		{StateVerifying, StateSkipped}, // duplicate content
		{StateVerifying, StateFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.True(t, tt.from.CanTransitionTo(tt.to),
				"%s should be able to transition to %s", tt.from, tt.to)
		})
	}
}

func TestCanTransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{StatePending, StateVerifying}, // skip fetching
		{StatePending, StateWritten},   // skip multiple
		{StateFetching, StatePending},  // backwards
		{StateFetching, StateWritten},  // skip verifying
		{StateVerifying, StatePending}, // backwards
		{StateWritten, StatePending},   // terminal
		{StateWritten, StateFailed},    // terminal
		{StateSkipped, StateFetching},  // terminal
		{StateFailed, StateFetching},   // terminal, no retry in place
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.False(t, tt.from.CanTransitionTo(tt.to),
				"%s should NOT be able to transition to %s", tt.from, tt.to)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []State{StateWritten, StateSkipped, StateFailed}
	nonTerminal := []State{StatePending, StateFetching, StateVerifying}

	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}

	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), "%s should NOT be terminal", s)
	}
}

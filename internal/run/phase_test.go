package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseTransitions_Valid(t *testing.T) {
	tests := []struct {
		from Phase
		to   Phase
	}{
		{PhaseIdle, PhaseRunning},
		{PhaseRunning, PhasePaused},
		{PhaseRunning, PhaseCancelled},
		{PhaseRunning, PhaseCompleted},
		{PhaseRunning, PhaseFailed},
		{PhasePaused, PhaseRunning},
		{PhasePaused, PhaseCancelled},
		{PhasePaused, PhaseCompleted}, // in-flight posts drained the queue
		{PhasePaused, PhaseFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.True(t, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPhaseTransitions_Invalid(t *testing.T) {
	tests := []struct {
		from Phase
		to   Phase
	}{
		{PhaseIdle, PhasePaused},       // nothing to pause
		{PhaseIdle, PhaseCompleted},    // skip running
		{PhaseCancelled, PhaseRunning}, // terminal
		{PhaseCompleted, PhaseRunning}, // terminal
		{PhaseFailed, PhaseRunning},    // terminal
		{PhaseRunning, PhaseIdle},      // backwards
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.False(t, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPhaseIsTerminal(t *testing.T) {
	for _, p := range []Phase{PhaseCancelled, PhaseCompleted, PhaseFailed} {
		assert.True(t, p.IsTerminal(), "%s should be terminal", p)
	}
	for _, p := range []Phase{PhaseIdle, PhaseRunning, PhasePaused} {
		assert.False(t, p.IsTerminal(), "%s should NOT be terminal", p)
	}
}

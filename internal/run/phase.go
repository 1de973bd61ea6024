package run

// Phase is the orchestrator lifecycle state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhasePaused    Phase = "paused"
	PhaseCancelled Phase = "cancelled"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// validTransitions defines allowed phase transitions.
// Key is the "from" phase, value is list of valid "to" phases.
var validTransitions = map[Phase][]Phase{
	PhaseIdle:      {PhaseRunning},
	PhaseRunning:   {PhasePaused, PhaseCancelled, PhaseCompleted, PhaseFailed},
	// A paused run can still settle: in-flight posts keep completing and
	// may drain the queue, or report a run-fatal failure.
	PhasePaused:    {PhaseRunning, PhaseCancelled, PhaseCompleted, PhaseFailed},
	PhaseCancelled: {}, // terminal
	PhaseCompleted: {}, // terminal
	PhaseFailed:    {}, // terminal
}

// CanTransitionTo returns true if transitioning from p to target is valid.
func (p Phase) CanTransitionTo(target Phase) bool {
	valid, ok := validTransitions[p]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if this phase has no valid outgoing transitions.
func (p Phase) IsTerminal() bool {
	return len(validTransitions[p]) == 0
}

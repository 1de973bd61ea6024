package source

// State tracks a file target's resolution progress.
type State string

const (
	StatePending   State = "pending"
	StateFetching  State = "fetching"
	StateVerifying State = "verifying"
	StateWritten   State = "written"
	StateSkipped   State = "skipped"
	StateFailed    State = "failed"
)

// validTransitions defines allowed state transitions.
// Key is the "from" state, value is list of valid "to" states.
// A target never transitions backward.
var validTransitions = map[State][]State{
	StatePending:   {StateFetching, StateSkipped, StateFailed},
	StateFetching:  {StateVerifying, StateSkipped, StateFailed},
	StateVerifying: {StateWritten, StateSkipped, StateFailed},
	StateWritten:   {}, // terminal
	StateSkipped:   {}, // terminal
	StateFailed:    {}, // terminal
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s State) CanTransitionTo(target State) bool {
	valid, ok := validTransitions[s]
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

// IsTerminal returns true if this state has no valid outgoing transitions.
func (s State) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

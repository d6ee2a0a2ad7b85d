package convert

import "fmt"

// State is a job's position in the pipeline.
type State string

const (
	StatePending      State = "PENDING"
	StateDecoding     State = "DECODING"
	StateDecodeFailed State = "DECODE_FAILED"
	StateEncoding     State = "ENCODING"
	StateEncodeFailed State = "ENCODE_FAILED"
	StateTagging      State = "TAGGING"
	StateTagFailed    State = "TAG_FAILED"
	StateDone         State = "DONE"
	StateSkipped      State = "SKIPPED"
)

var transitions = map[State][]State{
	StatePending:  {StateDecoding, StateSkipped},
	StateDecoding: {StateEncoding, StateDecodeFailed},
	// A streaming decoder can still fail while the encoder runs.
	StateEncoding: {StateTagging, StateEncodeFailed, StateDecodeFailed},
	StateTagging:  {StateDone, StateTagFailed},
}

// CanTransition reports whether the state machine allows moving to next.
func (s State) CanTransition(next State) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Failed reports whether the state is one of the *_FAILED terminals.
func (s State) Failed() bool {
	switch s {
	case StateDecodeFailed, StateEncodeFailed, StateTagFailed:
		return true
	default:
		return false
	}
}

// AllowsInputDeletion reports whether the source may be deleted. A failed tag
// write still produced audio, so it does not block cleanup.
func (s State) AllowsInputDeletion() bool {
	return s == StateDone || s == StateTagFailed
}

// FailedStates lists the failure terminals in pipeline order.
func FailedStates() []State {
	return []State{StateDecodeFailed, StateEncodeFailed, StateTagFailed}
}

// TerminalStates lists every terminal state in display order.
func TerminalStates() []State {
	return []State{StateDone, StateTagFailed, StateEncodeFailed, StateDecodeFailed, StateSkipped}
}

func (s State) String() string {
	return string(s)
}

type transitionError struct {
	from State
	to   State
}

func (e transitionError) Error() string {
	return fmt.Sprintf("invalid job transition %s -> %s", e.from, e.to)
}

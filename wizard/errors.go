package wizard

import "fmt"

// ErrInvalidTransition is returned when no transition matches the event from
// the current state. The snapshot is left unchanged.
type ErrInvalidTransition struct {
	From  State
	Event EventType
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("wizard: no transition for event %q from state %q", e.Event, e.From)
}

// ErrAmbiguousTransition is returned when more than one guarded transition
// accepts the event. It indicates a broken machine definition.
type ErrAmbiguousTransition struct {
	From  State
	Event EventType
}

func (e *ErrAmbiguousTransition) Error() string {
	return fmt.Sprintf("wizard: ambiguous transition for event %q from state %q", e.Event, e.From)
}

// ErrUnknownState is returned for a snapshot whose state is not declared.
type ErrUnknownState struct {
	State State
}

func (e *ErrUnknownState) Error() string {
	return fmt.Sprintf("wizard: unknown state %q", e.State)
}

// ErrStepMismatch is returned when a next event carries data for a step other
// than the current one.
type ErrStepMismatch struct {
	State State
	Got   State
}

func (e *ErrStepMismatch) Error() string {
	return fmt.Sprintf("wizard: data for step %q sent while in state %q", e.Got, e.State)
}

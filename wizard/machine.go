package wizard

import (
	"fmt"
	"slices"

	"github.com/hazyhaar/sinapp/steps"
)

// Guard decides whether a transition applies. It sees the context after the
// event's data has been stored.
type Guard func(Context) bool

// Action runs when a state is entered.
type Action func(*Context)

type transition struct {
	event EventType
	to    State
	guard Guard
	label string
}

// Machine is an immutable-after-build transition table. Transition is pure:
// it never mutates its input snapshot.
type Machine struct {
	initial State
	states  []State
	final   map[State]bool
	table   map[State][]transition
	onEnter map[State][]Action
}

// NewMachine starts a definition whose runs begin in initial.
func NewMachine(initial State) *Machine {
	m := &Machine{
		initial: initial,
		final:   map[State]bool{},
		table:   map[State][]transition{},
		onEnter: map[State][]Action{},
	}
	m.declare(initial)
	return m
}

func (m *Machine) declare(states ...State) {
	for _, s := range states {
		if !slices.Contains(m.states, s) {
			m.states = append(m.states, s)
		}
	}
}

// Add declares from --event--> to.
func (m *Machine) Add(from State, event EventType, to State) *Machine {
	return m.AddWhen(from, event, to, nil, "")
}

// AddWhen declares a guarded transition. label names the guard in DOT output.
func (m *Machine) AddWhen(from State, event EventType, to State, guard Guard, label string) *Machine {
	m.declare(from, to)
	m.table[from] = append(m.table[from], transition{event: event, to: to, guard: guard, label: label})
	return m
}

// Final marks states that accept no events.
func (m *Machine) Final(states ...State) *Machine {
	m.declare(states...)
	for _, s := range states {
		m.final[s] = true
	}
	return m
}

// OnEnter registers an action run whenever s is entered.
func (m *Machine) OnEnter(s State, a Action) *Machine {
	m.onEnter[s] = append(m.onEnter[s], a)
	return m
}

// Initial returns a fresh snapshot.
func (m *Machine) Initial() Snapshot {
	return Snapshot{State: m.initial}
}

// States returns declared states in declaration order.
func (m *Machine) States() []State { return slices.Clone(m.states) }

// Has reports whether s is declared.
func (m *Machine) Has(s State) bool { return slices.Contains(m.states, s) }

// IsFinal reports whether s is terminal.
func (m *Machine) IsFinal(s State) bool { return m.final[s] }

// Events returns the event types accepted from s, without evaluating guards.
func (m *Machine) Events(s State) []EventType {
	var out []EventType
	for _, t := range m.table[s] {
		if !slices.Contains(out, t.event) {
			out = append(out, t.event)
		}
	}
	return out
}

// Transition applies e to s and returns the resulting snapshot. On error the
// returned snapshot is s unchanged.
//
// A next event carrying an error bag does not move the machine: the bag is
// recorded for the current step and the version is bumped. A next event
// carrying data stores it, clears the step's errors and then follows the
// first transition whose guard accepts the updated context.
func (m *Machine) Transition(s Snapshot, e Event) (Snapshot, error) {
	if !m.Has(s.State) {
		return s, &ErrUnknownState{State: s.State}
	}
	if m.final[s.State] {
		return s, &ErrInvalidTransition{From: s.State, Event: e.Type}
	}
	candidates := m.candidates(s.State, e.Type)
	if len(candidates) == 0 {
		return s, &ErrInvalidTransition{From: s.State, Event: e.Type}
	}

	next := s.Clone()
	switch e.Type {
	case EventNext:
		if e.Data == nil {
			if len(e.Errors) == 0 {
				return s, fmt.Errorf("wizard: next event without data or errors")
			}
			if next.Context.Errors == nil {
				next.Context.Errors = map[State]steps.ErrorBag{}
			}
			next.Context.Errors[s.State] = e.Errors.Clone()
			next.Version++
			return next, nil
		}
		if got := State(e.Data.StepID()); got != s.State {
			return s, &ErrStepMismatch{State: s.State, Got: got}
		}
		next.Context.Set(e.Data)
		delete(next.Context.Errors, s.State)
		if len(next.Context.Errors) == 0 {
			next.Context.Errors = nil
		}
	case EventSubmitted:
		if e.CaseID == "" {
			return s, fmt.Errorf("wizard: submitted event without case id")
		}
		next.Context.CaseID = e.CaseID
	}

	var matched []transition
	for _, t := range candidates {
		if t.guard == nil || t.guard(next.Context) {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		return s, &ErrInvalidTransition{From: s.State, Event: e.Type}
	}
	if len(matched) > 1 {
		return s, &ErrAmbiguousTransition{From: s.State, Event: e.Type}
	}

	next.State = matched[0].to
	for _, a := range m.onEnter[next.State] {
		a(&next.Context)
	}
	next.Version++
	return next, nil
}

func (m *Machine) candidates(s State, ev EventType) []transition {
	var out []transition
	for _, t := range m.table[s] {
		if t.event == ev {
			out = append(out, t)
		}
	}
	return out
}

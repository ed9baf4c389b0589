package wizard

// Actor wraps one snapshot for the duration of a request.
type Actor struct {
	m       *Machine
	snap    Snapshot
	loaded  int
	restore bool
}

// NewActor starts an actor at snap. Pass m.Initial() for a fresh run.
func NewActor(m *Machine, snap Snapshot) *Actor {
	return &Actor{m: m, snap: snap, loaded: snap.Version}
}

// Send applies e. On error the actor is unchanged.
func (a *Actor) Send(e Event) error {
	next, err := a.m.Transition(a.snap, e)
	if err != nil {
		return err
	}
	a.snap = next
	return nil
}

// State returns the current state.
func (a *Actor) State() State { return a.snap.State }

// Snapshot returns a copy of the current snapshot.
func (a *Actor) Snapshot() Snapshot { return a.snap.Clone() }

// Context returns the collected data.
func (a *Actor) Context() Context { return a.snap.Context }

// Changed reports whether any event was accepted since the actor was created.
func (a *Actor) Changed() bool { return a.snap.Version != a.loaded }

// Restored reports whether the actor was rebuilt from a stored snapshot.
func (a *Actor) Restored() bool { return a.restore }

// Final reports whether the run has ended.
func (a *Actor) Final() bool { return a.m.IsFinal(a.snap.State) }

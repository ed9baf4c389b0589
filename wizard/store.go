package wizard

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/hazyhaar/sinapp/apperr"
	"github.com/hazyhaar/sinapp/session"
)

// SessionKey is the session key under which snapshots are stored, one entry
// per tab id.
const SessionKey = "inPersonSinApplications"

var tabIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidTabID reports whether tid is an acceptable tab identifier.
func ValidTabID(tid string) bool { return tabIDPattern.MatchString(tid) }

// Store loads and saves actors in a session.
type Store struct {
	m      *Machine
	key    session.Key[Snapshot]
	logger *slog.Logger
}

// NewStore creates a Store for machine m.
func NewStore(m *Machine, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		m:      m,
		key:    session.Key[Snapshot]{Name: SessionKey, Validate: m.Validate},
		logger: logger,
	}
}

// Machine returns the machine snapshots are validated against.
func (st *Store) Machine() *Machine { return st.m }

func (st *Store) keyFor(tid string) session.Key[Snapshot] { return st.key.With(tid) }

// LoadOrCreate restores the actor for tid, or starts a new one when nothing
// valid is stored. A corrupt snapshot is logged and replaced.
func (st *Store) LoadOrCreate(ctx context.Context, sess *session.Session, tid string) *Actor {
	snap, ok, err := session.Get(sess, st.keyFor(tid))
	switch {
	case err != nil:
		st.logger.WarnContext(ctx, "discarding wizard snapshot",
			"code", apperr.CodeSnapshotInvalid, "tab_id", tid, "error", err)
	case ok:
		a := NewActor(st.m, snap)
		a.restore = true
		return a
	}
	return NewActor(st.m, st.m.Initial())
}

// Persist writes the actor's snapshot back under tid.
func (st *Store) Persist(ctx context.Context, sess *session.Session, tid string, a *Actor) error {
	snap := a.Snapshot()
	if err := session.Set(sess, st.keyFor(tid), snap); err != nil {
		return apperr.Wrap(apperr.CodeSessionStore, "could not save application progress", err)
	}
	st.logger.DebugContext(ctx, "wizard snapshot persisted", "tab_id", tid, "state", snap.State, "version", snap.Version)
	return nil
}

// Remove deletes the snapshot for tid.
func (st *Store) Remove(ctx context.Context, sess *session.Session, tid string) {
	session.Remove(sess, st.keyFor(tid))
	st.logger.DebugContext(ctx, "wizard snapshot removed", "tab_id", tid)
}

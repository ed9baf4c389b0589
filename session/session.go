// Package session keeps a typed key-value record per browser session.
//
// Values are addressed through Key[T], which fixes the Go type stored under a
// name and validates it every time it is read back. Only the keys touched by a
// request are written, so concurrent requests that modify different keys of
// the same session never overwrite each other.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidValue is returned by Get when a stored value cannot be decoded or
// fails its key's validation.
var ErrInvalidValue = errors.New("session: invalid stored value")

// Key names a typed session value.
type Key[T any] struct {
	Name string
	// Validate is applied on every read and write. May be nil.
	Validate func(T) error
}

// With derives a key scoped under k, e.g. one entry per browser tab.
func (k Key[T]) With(suffix string) Key[T] {
	return Key[T]{Name: k.Name + "/" + suffix, Validate: k.Validate}
}

// Session is the per-request view of a session record. It is safe for
// concurrent use by the goroutines of a single request.
type Session struct {
	mu        sync.Mutex
	id        string
	isNew     bool
	destroyed bool
	reset     bool
	values    map[string]json.RawMessage
	changed   map[string]json.RawMessage
	removed   map[string]struct{}
}

func newSession(id string, values map[string]json.RawMessage, isNew bool) *Session {
	if values == nil {
		values = map[string]json.RawMessage{}
	}
	return &Session{
		id:      id,
		isNew:   isNew,
		values:  values,
		changed: map[string]json.RawMessage{},
		removed: map[string]struct{}{},
	}
}

// New returns an empty session not backed by any store. Useful in tests.
func New(id string) *Session {
	return newSession(id, nil, true)
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// IsNew reports whether the session was created by this request.
func (s *Session) IsNew() bool { return s.isNew }

// Destroy drops every value. The record is deleted and the cookie expired
// when the response is committed.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	clear(s.values)
	clear(s.changed)
	clear(s.removed)
}

// Reset drops every value and moves the session to a fresh id when the
// response is committed. The old record is deleted. Use it when the session
// changes hands, e.g. at login.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset = true
	s.destroyed = false
	clear(s.values)
	clear(s.changed)
	clear(s.removed)
}

// rotate assigns a fresh id to a reset session. old is the id whose record
// must be deleted, empty if it was never stored.
func (s *Session) rotate(newID func() string) (old string, rotated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.reset {
		return "", false
	}
	s.reset = false
	if !s.isNew {
		old = s.id
	}
	s.id = newID()
	s.isNew = true
	return old, true
}

// Dirty reports whether the session has pending writes.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed || s.reset || len(s.changed) > 0 || len(s.removed) > 0
}

// pending returns the changes to flush and resets them.
func (s *Session) pending() (set map[string]json.RawMessage, del []string, destroyed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set = s.changed
	for k := range s.removed {
		del = append(del, k)
	}
	destroyed = s.destroyed
	s.changed = map[string]json.RawMessage{}
	s.removed = map[string]struct{}{}
	return set, del, destroyed
}

// Get reads the value stored under k. The boolean is false when nothing is
// stored. A value that fails to decode or validate yields ErrInvalidValue.
func Get[T any](s *Session, k Key[T]) (T, bool, error) {
	var zero T
	s.mu.Lock()
	raw, ok := s.values[k.Name]
	s.mu.Unlock()
	if !ok {
		return zero, false, nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, true, fmt.Errorf("%w %q: %w", ErrInvalidValue, k.Name, err)
	}
	if k.Validate != nil {
		if err := k.Validate(v); err != nil {
			return zero, true, fmt.Errorf("%w %q: %w", ErrInvalidValue, k.Name, err)
		}
	}
	return v, true, nil
}

// Set stores v under k.
func Set[T any](s *Session, k Key[T], v T) error {
	if k.Validate != nil {
		if err := k.Validate(v); err != nil {
			return fmt.Errorf("session: set %q: %w", k.Name, err)
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: set %q: %w", k.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[k.Name] = raw
	s.changed[k.Name] = raw
	delete(s.removed, k.Name)
	return nil
}

// Remove deletes the value stored under k.
func Remove[T any](s *Session, k Key[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, k.Name)
	delete(s.changed, k.Name)
	s.removed[k.Name] = struct{}{}
}

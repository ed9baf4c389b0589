package interop

import (
	"context"
	"sync"

	"github.com/hazyhaar/sinapp/idgen"
)

// Fake is an in-process CaseCreator for local development and tests.
type Fake struct {
	newID idgen.Generator

	mu      sync.Mutex
	created []Application
	err     error
}

// NewFake returns a Fake issuing ten-digit case ids from gen, or random ones
// when gen is nil.
func NewFake(gen idgen.Generator) *Fake {
	if gen == nil {
		gen = idgen.Digits(10)
	}
	return &Fake{newID: gen}
}

func (f *Fake) CreateCase(_ context.Context, app Application) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, app)
	return f.newID(), nil
}

// FailWith makes subsequent calls return err. Pass nil to recover.
func (f *Fake) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Created returns the applications received so far.
func (f *Fake) Created() []Application {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Application(nil), f.created...)
}

package wizard

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/sinapp/steps"
)

// Context holds the data collected so far. Step values are replaced, never
// mutated in place, so a shallow copy is a safe snapshot.
type Context struct {
	PrivacyStatement    *steps.PrivacyStatement    `json:"privacyStatement,omitempty"`
	RequestDetails      *steps.RequestDetails      `json:"requestDetails,omitempty"`
	PrimaryDocuments    *steps.PrimaryDocuments    `json:"primaryDocuments,omitempty"`
	SecondaryDocument   *steps.SecondaryDocument   `json:"secondaryDocument,omitempty"`
	PreviousSin         *steps.PreviousSin         `json:"previousSin,omitempty"`
	PersonalInformation *steps.PersonalInformation `json:"personalInformation,omitempty"`
	CurrentName         *steps.CurrentName         `json:"currentName,omitempty"`
	BirthDetails        *steps.BirthDetails        `json:"birthDetails,omitempty"`
	ParentDetails       *steps.ParentDetails       `json:"parentDetails,omitempty"`
	ContactInformation  *steps.ContactInformation  `json:"contactInformation,omitempty"`

	Errors map[State]steps.ErrorBag `json:"errors,omitempty"`
	CaseID string                   `json:"caseId,omitempty"`
}

// Set stores d under its step.
func (c *Context) Set(d steps.Data) {
	switch v := d.(type) {
	case steps.PrivacyStatement:
		c.PrivacyStatement = &v
	case steps.RequestDetails:
		c.RequestDetails = &v
	case steps.PrimaryDocuments:
		c.PrimaryDocuments = &v
	case steps.SecondaryDocument:
		c.SecondaryDocument = &v
	case steps.PreviousSin:
		c.PreviousSin = &v
	case steps.PersonalInformation:
		c.PersonalInformation = &v
	case steps.CurrentName:
		c.CurrentName = &v
	case steps.BirthDetails:
		c.BirthDetails = &v
	case steps.ParentDetails:
		c.ParentDetails = &v
	case steps.ContactInformation:
		c.ContactInformation = &v
	default:
		panic(fmt.Sprintf("wizard: unhandled step data %T", d))
	}
}

// Get returns the stored value for id, or nil.
func (c Context) Get(id steps.ID) steps.Data {
	switch id {
	case steps.PrivacyStatementID:
		return deref(c.PrivacyStatement)
	case steps.RequestDetailsID:
		return deref(c.RequestDetails)
	case steps.PrimaryDocumentsID:
		return deref(c.PrimaryDocuments)
	case steps.SecondaryDocumentID:
		return deref(c.SecondaryDocument)
	case steps.PreviousSinID:
		return deref(c.PreviousSin)
	case steps.PersonalInformationID:
		return deref(c.PersonalInformation)
	case steps.CurrentNameID:
		return deref(c.CurrentName)
	case steps.BirthDetailsID:
		return deref(c.BirthDetails)
	case steps.ParentDetailsID:
		return deref(c.ParentDetails)
	case steps.ContactInformationID:
		return deref(c.ContactInformation)
	}
	return nil
}

func deref[T steps.Data](p *T) steps.Data {
	if p == nil {
		return nil
	}
	return *p
}

// ErrorsFor returns the error bag recorded for s.
func (c Context) ErrorsFor(s State) steps.ErrorBag {
	return c.Errors[s]
}

func (c Context) clone() Context {
	out := c
	if c.Errors != nil {
		out.Errors = make(map[State]steps.ErrorBag, len(c.Errors))
		for k, v := range c.Errors {
			out.Errors[k] = v.Clone()
		}
	}
	return out
}

// purge drops all collected values and errors, keeping the case id.
func (c *Context) purge() {
	*c = Context{CaseID: c.CaseID}
}

// Snapshot is the serialisable state of one wizard run.
type Snapshot struct {
	State   State   `json:"state"`
	Context Context `json:"context"`
	// Version increases with every accepted event. It is informational only.
	Version int `json:"version"`
}

// Clone returns a deep-enough copy for independent mutation.
func (s Snapshot) Clone() Snapshot {
	s.Context = s.Context.clone()
	return s
}

// Validate checks a snapshot read back from storage against m.
func (m *Machine) Validate(s Snapshot) error {
	if !m.Has(s.State) {
		return &ErrUnknownState{State: s.State}
	}
	if s.Version < 0 {
		return errors.New("wizard: negative version")
	}
	for st := range s.Context.Errors {
		if _, ok := st.StepID(); !ok {
			return fmt.Errorf("wizard: errors recorded for non-step state %q", st)
		}
	}
	switch {
	case s.State == Submitted && s.Context.CaseID == "":
		return errors.New("wizard: submitted snapshot without case id")
	case s.State != Submitted && s.Context.CaseID != "":
		return fmt.Errorf("wizard: case id present in state %q", s.State)
	}
	return nil
}

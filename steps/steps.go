// Package steps defines the typed value and error shapes for each page of the
// in-person SIN application, and the schemas that turn raw form fields into
// those values.
//
// A step parser never returns raw strings to the caller: free text is
// trimmed and sanitised, enumerations are checked against their allowed
// options, dates are parsed, and identifiers are normalised. When parsing
// fails the returned ErrorBag is keyed by form field name.
package steps

import (
	"fmt"
	"net/url"
	"slices"
)

// ID identifies a step. Wizard states reuse these names.
type ID string

const (
	PrivacyStatementID    ID = "privacyStatement"
	RequestDetailsID      ID = "requestDetails"
	PrimaryDocumentsID    ID = "primaryDocuments"
	SecondaryDocumentID   ID = "secondaryDocument"
	PreviousSinID         ID = "previousSin"
	PersonalInformationID ID = "personalInformation"
	CurrentNameID         ID = "currentName"
	BirthDetailsID        ID = "birthDetails"
	ParentDetailsID       ID = "parentDetails"
	ContactInformationID  ID = "contactInformation"
)

// Data is a validated step value.
type Data interface {
	StepID() ID
	// FormValues renders the value back into form fields so a page can be
	// pre-filled when the user navigates back to it.
	FormValues() url.Values
}

// Schema describes how to parse one step.
type Schema struct {
	ID     ID
	Fields []string
	Parse  func(Form) (Data, ErrorBag)
}

var registry = map[ID]Schema{}

func register(s Schema) {
	if _, dup := registry[s.ID]; dup {
		panic(fmt.Sprintf("steps: duplicate schema %q", s.ID))
	}
	registry[s.ID] = s
}

// Lookup returns the schema for id.
func Lookup(id ID) (Schema, bool) {
	s, ok := registry[id]
	return s, ok
}

// IDs returns all registered step ids, sorted.
func IDs() []ID {
	ids := make([]ID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Parse validates the submitted values for step id. A non-nil error means the
// step is unknown; validation failures are reported through the ErrorBag.
func Parse(id ID, f Form) (Data, ErrorBag, error) {
	s, ok := registry[id]
	if !ok {
		return nil, nil, fmt.Errorf("steps: no schema for step %q", id)
	}
	data, bag := s.Parse(f)
	if !bag.Empty() {
		return nil, bag, nil
	}
	return data, nil, nil
}

package wizard

import "github.com/hazyhaar/sinapp/steps"

// State is a wizard state. Step states share their name with the step id.
type State string

const (
	PrivacyStatement    = State(steps.PrivacyStatementID)
	RequestDetails      = State(steps.RequestDetailsID)
	PrimaryDocuments    = State(steps.PrimaryDocumentsID)
	SecondaryDocument   = State(steps.SecondaryDocumentID)
	PreviousSin         = State(steps.PreviousSinID)
	PersonalInformation = State(steps.PersonalInformationID)
	CurrentName         = State(steps.CurrentNameID)
	BirthDetails        = State(steps.BirthDetailsID)
	ParentDetails       = State(steps.ParentDetailsID)
	ContactInformation  = State(steps.ContactInformationID)
)

const (
	Review    State = "review"
	Submitted State = "submitted"
	Abandoned State = "abandoned"
)

// StepID returns the step collected in s, if any.
func (s State) StepID() (steps.ID, bool) {
	id := steps.ID(s)
	_, ok := steps.Lookup(id)
	return id, ok
}

// EventType names an event.
type EventType string

const (
	EventNext      EventType = "next"
	EventBack      EventType = "back"
	EventCancel    EventType = "cancel"
	EventSubmitted EventType = "submitted"
)

// Event is one input to the machine. Exactly one of Data or Errors is set for
// a next event; CaseID is set for submitted.
type Event struct {
	Type   EventType
	Data   steps.Data
	Errors steps.ErrorBag
	CaseID string
}

// Next carries validated data for the current step.
func Next(data steps.Data) Event { return Event{Type: EventNext, Data: data} }

// Invalid is a next whose data failed validation. The machine stays put and
// records the errors.
func Invalid(bag steps.ErrorBag) Event { return Event{Type: EventNext, Errors: bag} }

func Back() Event   { return Event{Type: EventBack} }
func Cancel() Event { return Event{Type: EventCancel} }

// Filed records the case id returned by the interop API.
func Filed(caseID string) Event { return Event{Type: EventSubmitted, CaseID: caseID} }

package wizard

// Steps lists the step states in order. SecondaryDocument is only visited
// when the primary document requires it.
var Steps = []State{
	PrivacyStatement,
	RequestDetails,
	PrimaryDocuments,
	SecondaryDocument,
	PreviousSin,
	PersonalInformation,
	CurrentName,
	BirthDetails,
	ParentDetails,
	ContactInformation,
	Review,
}

func needsSecondary(c Context) bool {
	return c.PrimaryDocuments != nil && c.PrimaryDocuments.RequiresSecondaryDocument()
}

func noSecondary(c Context) bool { return !needsSecondary(c) }

// Definition is the in-person SIN application machine.
var Definition = build()

func build() *Machine {
	m := NewMachine(PrivacyStatement)

	linear := []State{PrivacyStatement, RequestDetails, PrimaryDocuments}
	for i := 1; i < len(linear); i++ {
		m.Add(linear[i-1], EventNext, linear[i])
		m.Add(linear[i], EventBack, linear[i-1])
	}

	m.AddWhen(PrimaryDocuments, EventNext, SecondaryDocument, needsSecondary, "needs secondary")
	m.AddWhen(PrimaryDocuments, EventNext, PreviousSin, noSecondary, "no secondary")
	m.Add(SecondaryDocument, EventBack, PrimaryDocuments)
	m.Add(SecondaryDocument, EventNext, PreviousSin)
	m.AddWhen(PreviousSin, EventBack, SecondaryDocument, needsSecondary, "needs secondary")
	m.AddWhen(PreviousSin, EventBack, PrimaryDocuments, noSecondary, "no secondary")

	linear = []State{PreviousSin, PersonalInformation, CurrentName, BirthDetails, ParentDetails, ContactInformation, Review}
	for i := 1; i < len(linear); i++ {
		m.Add(linear[i-1], EventNext, linear[i])
		m.Add(linear[i], EventBack, linear[i-1])
	}
	m.Add(Review, EventSubmitted, Submitted)

	for _, s := range Steps {
		m.Add(s, EventCancel, Abandoned)
	}

	m.Final(Submitted, Abandoned)
	m.OnEnter(Submitted, (*Context).purge)
	m.OnEnter(Abandoned, (*Context).purge)
	return m
}

// Transition applies e to s using Definition.
func Transition(s Snapshot, e Event) (Snapshot, error) {
	return Definition.Transition(s, e)
}

package wizard

import "github.com/hazyhaar/sinapp/routes"

var stateRoutes = map[State]routes.ID{
	PrivacyStatement:    routes.PrivacyStatement,
	RequestDetails:      routes.RequestDetails,
	PrimaryDocuments:    routes.PrimaryDocuments,
	SecondaryDocument:   routes.SecondaryDocument,
	PreviousSin:         routes.PreviousSin,
	PersonalInformation: routes.PersonalInformation,
	CurrentName:         routes.CurrentName,
	BirthDetails:        routes.BirthDetails,
	ParentDetails:       routes.ParentDetails,
	ContactInformation:  routes.ContactInformation,
	Review:              routes.Review,
	Submitted:           routes.Confirmation,
	Abandoned:           routes.Abandoned,
}

// RouteFor returns the route that renders s.
func RouteFor(s State) routes.ID {
	if id, ok := stateRoutes[s]; ok {
		return id
	}
	return routes.PrivacyStatement
}

// StateRoute returns the route the actor's current state must be shown on.
func StateRoute(a *Actor) routes.ID { return RouteFor(a.State()) }

// StateFor is the inverse of RouteFor.
func StateFor(id routes.ID) (State, bool) {
	for s, r := range stateRoutes {
		if r == id {
			return s, true
		}
	}
	return "", false
}

package interop

import (
	"strings"

	"github.com/hazyhaar/sinapp/apperr"
	"github.com/hazyhaar/sinapp/steps"
	"github.com/hazyhaar/sinapp/wizard"
)

// Application is the payload of a new person case.
type Application struct {
	SubmittedBy         string                    `json:"submittedBy"`
	PrivacyStatement    steps.PrivacyStatement    `json:"privacyStatement"`
	RequestDetails      steps.RequestDetails      `json:"requestDetails"`
	PrimaryDocuments    steps.PrimaryDocuments    `json:"primaryDocuments"`
	SecondaryDocument   *steps.SecondaryDocument  `json:"secondaryDocument,omitempty"`
	PreviousSin         steps.PreviousSin         `json:"previousSin"`
	PersonalInformation steps.PersonalInformation `json:"personalInformation"`
	CurrentName         steps.CurrentName         `json:"currentName"`
	BirthDetails        steps.BirthDetails        `json:"birthDetails"`
	ParentDetails       steps.ParentDetails       `json:"parentDetails"`
	ContactInformation  steps.ContactInformation  `json:"contactInformation"`
}

// NewApplication assembles an Application from the data collected by the
// wizard. A missing step yields CodeIncompleteApplication. A secondary
// document is only sent when the primary document calls for one.
func NewApplication(c wizard.Context, submittedBy string) (Application, error) {
	var missing []steps.ID
	req := func(id steps.ID, ok bool) {
		if !ok {
			missing = append(missing, id)
		}
	}
	req(steps.PrivacyStatementID, c.PrivacyStatement != nil)
	req(steps.RequestDetailsID, c.RequestDetails != nil)
	req(steps.PrimaryDocumentsID, c.PrimaryDocuments != nil)
	needsSecondary := c.PrimaryDocuments != nil && c.PrimaryDocuments.RequiresSecondaryDocument()
	if needsSecondary {
		req(steps.SecondaryDocumentID, c.SecondaryDocument != nil)
	}
	req(steps.PreviousSinID, c.PreviousSin != nil)
	req(steps.PersonalInformationID, c.PersonalInformation != nil)
	req(steps.CurrentNameID, c.CurrentName != nil)
	req(steps.BirthDetailsID, c.BirthDetails != nil)
	req(steps.ParentDetailsID, c.ParentDetails != nil)
	req(steps.ContactInformationID, c.ContactInformation != nil)
	if len(missing) > 0 {
		return Application{}, apperr.New(apperr.CodeIncompleteApplication, "application is missing steps: "+joinIDs(missing))
	}

	app := Application{
		SubmittedBy:         submittedBy,
		PrivacyStatement:    *c.PrivacyStatement,
		RequestDetails:      *c.RequestDetails,
		PrimaryDocuments:    *c.PrimaryDocuments,
		PreviousSin:         *c.PreviousSin,
		PersonalInformation: *c.PersonalInformation,
		CurrentName:         *c.CurrentName,
		BirthDetails:        *c.BirthDetails,
		ParentDetails:       *c.ParentDetails,
		ContactInformation:  *c.ContactInformation,
	}
	if needsSecondary {
		app.SecondaryDocument = c.SecondaryDocument
	}
	return app, nil
}

func joinIDs(ids []steps.ID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}

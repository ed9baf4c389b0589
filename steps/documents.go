package steps

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// PrivacyStatement records consent to the privacy notice.
type PrivacyStatement struct {
	AgreedToTerms bool `json:"agreedToTerms"`
}

func (PrivacyStatement) StepID() ID { return PrivacyStatementID }

func (p PrivacyStatement) FormValues() url.Values {
	v := url.Values{}
	if p.AgreedToTerms {
		v.Set("agreedToTerms", "on")
	}
	return v
}

func parsePrivacyStatement(f Form) (Data, ErrorBag) {
	bag := ErrorBag{}
	agreed := requireChecked(f, bag, "agreedToTerms")
	return PrivacyStatement{AgreedToTerms: agreed}, bag
}

type RequestType string

const (
	RequestFirstTime       RequestType = "first-time"
	RequestReplacement     RequestType = "replacement"
	RequestNameChange      RequestType = "name-change"
	RequestStatusUpdate    RequestType = "status-update"
	RequestRecordAmendment RequestType = "record-amendment"
)

var RequestTypes = []RequestType{RequestFirstTime, RequestReplacement, RequestNameChange, RequestStatusUpdate, RequestRecordAmendment}

type Scenario string

const (
	ScenarioForSelf          Scenario = "for-self"
	ScenarioForChild         Scenario = "for-child"
	ScenarioAsRepresentative Scenario = "as-representative"
)

var Scenarios = []Scenario{ScenarioForSelf, ScenarioForChild, ScenarioAsRepresentative}

// RequestDetails is what the applicant is asking for and on whose behalf.
type RequestDetails struct {
	Type     RequestType `json:"type"`
	Scenario Scenario    `json:"scenario"`
}

func (RequestDetails) StepID() ID { return RequestDetailsID }

func (r RequestDetails) FormValues() url.Values {
	return url.Values{"type": {string(r.Type)}, "scenario": {string(r.Scenario)}}
}

func parseRequestDetails(f Form) (Data, ErrorBag) {
	bag := ErrorBag{}
	r := RequestDetails{
		Type:     requireOption(f, bag, "type", RequestTypes),
		Scenario: requireOption(f, bag, "scenario", Scenarios),
	}
	return r, bag
}

type Status string

const (
	StatusCitizenBornInCanada Status = "canadian-citizen-born-in-canada"
	StatusCitizenBornOutside  Status = "canadian-citizen-born-outside-canada"
	StatusPermanentResident   Status = "permanent-resident"
	StatusTemporaryResident   Status = "temporary-resident"
)

var Statuses = []Status{StatusCitizenBornInCanada, StatusCitizenBornOutside, StatusPermanentResident, StatusTemporaryResident}

type DocumentType string

const (
	DocBirthCertificate        DocumentType = "birth-certificate"
	DocCitizenshipCertificate  DocumentType = "certificate-of-canadian-citizenship"
	DocPermanentResidentCard   DocumentType = "permanent-resident-card"
	DocConfirmationOfResidence DocumentType = "confirmation-of-permanent-residence"
	DocWorkPermit              DocumentType = "work-permit"
	DocStudyPermit             DocumentType = "study-permit"
	DocTemporaryResidentPermit DocumentType = "temporary-resident-permit"
)

// DocumentTypesByStatus lists the primary documents accepted for each status.
var DocumentTypesByStatus = map[Status][]DocumentType{
	StatusCitizenBornInCanada: {DocBirthCertificate, DocCitizenshipCertificate},
	StatusCitizenBornOutside:  {DocCitizenshipCertificate},
	StatusPermanentResident:   {DocPermanentResidentCard, DocConfirmationOfResidence},
	StatusTemporaryResident:   {DocWorkPermit, DocStudyPermit, DocTemporaryResidentPermit},
}

// Documents without a photograph of the holder.
var noPhoto = []DocumentType{DocBirthCertificate, DocConfirmationOfResidence, DocTemporaryResidentPermit}

var documentNumber = regexp.MustCompile(`^[A-Z0-9-]{1,20}$`)

// PrimaryDocuments is the proof of status presented at the counter.
type PrimaryDocuments struct {
	CurrentStatusInCanada Status       `json:"currentStatusInCanada"`
	DocumentType          DocumentType `json:"documentType"`
	RegistrationNumber    string       `json:"registrationNumber"`
	GivenName             string       `json:"givenName"`
	LastName              string       `json:"lastName"`
	DateOfBirth           Date         `json:"dateOfBirth"`
}

func (PrimaryDocuments) StepID() ID { return PrimaryDocumentsID }

// RequiresSecondaryDocument reports whether the chosen document lacks a photo
// and must be backed by a secondary identity document.
func (p PrimaryDocuments) RequiresSecondaryDocument() bool {
	return slices.Contains(noPhoto, p.DocumentType)
}

func (p PrimaryDocuments) FormValues() url.Values {
	return url.Values{
		"currentStatusInCanada": {string(p.CurrentStatusInCanada)},
		"documentType":          {string(p.DocumentType)},
		"registrationNumber":    {p.RegistrationNumber},
		"givenName":             {p.GivenName},
		"lastName":              {p.LastName},
		"dateOfBirth":           {p.DateOfBirth.String()},
	}
}

func parsePrimaryDocuments(f Form) (Data, ErrorBag) {
	bag := ErrorBag{}
	p := PrimaryDocuments{
		CurrentStatusInCanada: requireOption(f, bag, "currentStatusInCanada", Statuses),
		GivenName:             requireText(f, bag, "givenName"),
		LastName:              requireText(f, bag, "lastName"),
		DateOfBirth:           requirePastDate(f, bag, "dateOfBirth"),
	}

	allowed := DocumentTypesByStatus[p.CurrentStatusInCanada]
	if allowed == nil {
		allowed = slices.Concat(DocumentTypesByStatus[StatusCitizenBornInCanada], DocumentTypesByStatus[StatusPermanentResident], DocumentTypesByStatus[StatusTemporaryResident])
	}
	p.DocumentType = requireOption(f, bag, "documentType", allowed)
	p.RegistrationNumber = requireDocumentNumber(f, bag, "registrationNumber")
	return p, bag
}

func requireDocumentNumber(f Form, bag ErrorBag, field string) string {
	v := strings.ToUpper(strings.ReplaceAll(f.Text(field), " ", ""))
	switch {
	case v == "":
		bag.Add(field, MsgRequired)
	case !documentNumber.MatchString(v):
		bag.Add(field, MsgInvalid)
	}
	return v
}

type SecondaryDocumentType string

const (
	SecondaryPassport          SecondaryDocumentType = "passport"
	SecondaryDriversLicence    SecondaryDocumentType = "drivers-licence"
	SecondaryProvincialPhotoID SecondaryDocumentType = "provincial-photo-id"
	SecondaryOther             SecondaryDocumentType = "other"
)

var SecondaryDocumentTypes = []SecondaryDocumentType{SecondaryPassport, SecondaryDriversLicence, SecondaryProvincialPhotoID, SecondaryOther}

// SecondaryDocument is the photo identity document backing a primary
// document that has none.
type SecondaryDocument struct {
	DocumentType   SecondaryDocumentType `json:"documentType"`
	DocumentNumber string                `json:"documentNumber"`
	ExpiryDate     Date                  `json:"expiryDate"`
}

func (SecondaryDocument) StepID() ID { return SecondaryDocumentID }

func (s SecondaryDocument) FormValues() url.Values {
	return url.Values{
		"documentType":   {string(s.DocumentType)},
		"documentNumber": {s.DocumentNumber},
		"expiryDate":     {s.ExpiryDate.String()},
	}
}

func parseSecondaryDocument(f Form) (Data, ErrorBag) {
	bag := ErrorBag{}
	s := SecondaryDocument{
		DocumentType:   requireOption(f, bag, "documentType", SecondaryDocumentTypes),
		DocumentNumber: requireDocumentNumber(f, bag, "documentNumber"),
		ExpiryDate:     requireUnexpiredDate(f, bag, "expiryDate"),
	}
	return s, bag
}

func init() {
	register(Schema{ID: PrivacyStatementID, Fields: []string{"agreedToTerms"}, Parse: parsePrivacyStatement})
	register(Schema{ID: RequestDetailsID, Fields: []string{"type", "scenario"}, Parse: parseRequestDetails})
	register(Schema{
		ID:     PrimaryDocumentsID,
		Fields: []string{"currentStatusInCanada", "documentType", "registrationNumber", "givenName", "lastName", "dateOfBirth"},
		Parse:  parsePrimaryDocuments,
	})
	register(Schema{ID: SecondaryDocumentID, Fields: []string{"documentType", "documentNumber", "expiryDate"}, Parse: parseSecondaryDocument})
}

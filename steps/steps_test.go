package steps

import (
	"encoding/json"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC) }

func form(kv ...string) Form {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Add(kv[i], kv[i+1])
	}
	return NewForm(v).WithClock(fixedNow)
}

func TestErrorBagKeysAreSchemaFields(t *testing.T) {
	for _, id := range IDs() {
		s, _ := Lookup(id)
		_, bag, err := Parse(id, form())
		require.NoError(t, err)
		require.False(t, bag.Empty(), "%s: empty form must not validate", id)
		for field := range bag {
			assert.Contains(t, s.Fields, field, "%s: error key is not a field", id)
		}
	}
}

func TestParseUnknownStep(t *testing.T) {
	_, _, err := Parse("review", form())
	assert.Error(t, err)
}

func TestPrivacyStatement(t *testing.T) {
	data, bag, err := Parse(PrivacyStatementID, form("agreedToTerms", "on"))
	require.NoError(t, err)
	require.True(t, bag.Empty())
	assert.Equal(t, PrivacyStatement{AgreedToTerms: true}, data)

	_, bag, _ = Parse(PrivacyStatementID, form("agreedToTerms", ""))
	assert.Equal(t, []string{MsgRequired}, bag["agreedToTerms"])
}

func TestRequestDetails_UnknownOption(t *testing.T) {
	_, bag, _ := Parse(RequestDetailsID, form("type", "first-time", "scenario", "for-cat"))
	assert.False(t, bag.Has("type"))
	assert.Equal(t, []string{MsgUnknownOption}, bag["scenario"])
}

func validPrimary(docType string) Form {
	return form(
		"currentStatusInCanada", "canadian-citizen-born-in-canada",
		"documentType", docType,
		"registrationNumber", "ab 1234",
		"givenName", "  Marie   Claire ",
		"lastName", "O'Brien",
		"dateOfBirth", "1990-04-02",
	)
}

func TestPrimaryDocuments(t *testing.T) {
	data, bag, err := Parse(PrimaryDocumentsID, validPrimary("birth-certificate"))
	require.NoError(t, err)
	require.True(t, bag.Empty(), "%v", bag)

	p := data.(PrimaryDocuments)
	assert.Equal(t, "AB1234", p.RegistrationNumber)
	assert.Equal(t, "Marie Claire", p.GivenName)
	assert.Equal(t, "O'Brien", p.LastName)
	assert.Equal(t, "1990-04-02", p.DateOfBirth.String())
	assert.True(t, p.RequiresSecondaryDocument())

	data, _, _ = Parse(PrimaryDocumentsID, validPrimary("certificate-of-canadian-citizenship"))
	assert.False(t, data.(PrimaryDocuments).RequiresSecondaryDocument())
}

func TestPrimaryDocuments_DocumentMustMatchStatus(t *testing.T) {
	f := validPrimary("work-permit")
	_, bag, _ := Parse(PrimaryDocumentsID, f)
	assert.Equal(t, []string{MsgUnknownOption}, bag["documentType"])
}

func TestPrimaryDocuments_FutureBirthDate(t *testing.T) {
	v := validPrimary("birth-certificate").values
	v.Set("dateOfBirth", "2026-03-16")
	_, bag, _ := Parse(PrimaryDocumentsID, NewForm(v).WithClock(fixedNow))
	assert.Equal(t, []string{MsgFutureDate}, bag["dateOfBirth"])

	v.Set("dateOfBirth", "2026-03-15")
	_, bag, _ = Parse(PrimaryDocumentsID, NewForm(v).WithClock(fixedNow))
	assert.True(t, bag.Empty(), "today is not in the future")
}

func TestSanitisesMarkup(t *testing.T) {
	data, bag, _ := Parse(PrimaryDocumentsID, form(
		"currentStatusInCanada", "permanent-resident",
		"documentType", "permanent-resident-card",
		"registrationNumber", "X1",
		"givenName", "<b>Ana</b><script>alert(1)</script>",
		"lastName", "Lee",
		"dateOfBirth", "2001-01-01",
	))
	require.True(t, bag.Empty(), "%v", bag)
	assert.Equal(t, "Ana", data.(PrimaryDocuments).GivenName)
}

func TestSecondaryDocument_Expired(t *testing.T) {
	_, bag, _ := Parse(SecondaryDocumentID, form("documentType", "passport", "documentNumber", "P123", "expiryDate", "2026-03-14"))
	assert.Equal(t, []string{MsgExpired}, bag["expiryDate"])

	_, bag, _ = Parse(SecondaryDocumentID, form("documentType", "passport", "documentNumber", "P123", "expiryDate", "2026-13-01"))
	assert.Equal(t, []string{MsgInvalid}, bag["expiryDate"])
}

func TestPreviousSin(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		sin     string
		want    string
		wantErr string
	}{
		{"no sin needed", "no", "", "", ""},
		{"spaces stripped", "yes", "130 692 544", "130692544", ""},
		{"dashes stripped", "yes", "130-692-544", "130692544", ""},
		{"missing", "yes", "", "", MsgRequired},
		{"letters", "yes", "13069254A", "", MsgInvalid},
		{"short", "yes", "1306925", "", MsgInvalid},
		{"bad checksum", "yes", "130692545", "", MsgChecksum},
		{"leading zero", "yes", "046454286", "", MsgChecksum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, bag, _ := Parse(PreviousSinID, form("hasPreviousSin", tt.answer, "socialInsuranceNumber", tt.sin))
			if tt.wantErr != "" {
				assert.Equal(t, []string{tt.wantErr}, bag["socialInsuranceNumber"])
				return
			}
			require.True(t, bag.Empty(), "%v", bag)
			assert.Equal(t, tt.want, data.(PreviousSin).SocialInsuranceNumber)
		})
	}
}

func TestFormatSIN(t *testing.T) {
	assert.Equal(t, "130 692 544", FormatSIN("130692544"))
	assert.Equal(t, "12", FormatSIN("12"))
}

func TestPersonalInformation_Lists(t *testing.T) {
	data, bag, _ := Parse(PersonalInformationID, form(
		"firstNamesPreviouslyUsed", "Jo",
		"firstNamesPreviouslyUsed", "  ",
		"firstNamesPreviouslyUsed", "Joanne",
		"lastNameAtBirth", "Smith",
		"gender", "female",
	))
	require.True(t, bag.Empty(), "%v", bag)
	p := data.(PersonalInformation)
	assert.Equal(t, []string{"Jo", "Joanne"}, p.FirstNamesPreviouslyUsed)
	assert.Empty(t, p.LastNamesPreviouslyUsed)
}

func TestCurrentName_Conditional(t *testing.T) {
	_, bag, _ := Parse(CurrentNameID, form("preferredSameAsDocumentName", "yes"))
	assert.True(t, bag.Empty())

	_, bag, _ = Parse(CurrentNameID, form("preferredSameAsDocumentName", "no", "firstName", "Sam"))
	assert.False(t, bag.Has("firstName"))
	assert.Equal(t, []string{MsgRequired}, bag["lastName"])
	assert.False(t, bag.Has("middleName"))
}

func TestBirthDetails_ProvinceOnlyForCanada(t *testing.T) {
	_, bag, _ := Parse(BirthDetailsID, form("country", "can", "city", "Ottawa", "fromMultipleBirth", "no"))
	assert.Equal(t, []string{MsgRequired}, bag["province"])

	data, bag, _ := Parse(BirthDetailsID, form("country", "FRA", "province", "ON", "city", "Lyon", "fromMultipleBirth", "yes"))
	require.True(t, bag.Empty(), "%v", bag)
	b := data.(BirthDetails)
	assert.Empty(t, b.Province)
	assert.True(t, b.FromMultipleBirth)
}

func TestParentDetails(t *testing.T) {
	data, bag, _ := Parse(ParentDetailsID, form(
		"parentCount", "2",
		"parents.0.unavailable", "on",
		"parents.1.givenName", "Ana",
		"parents.1.lastName", "Lee",
		"parents.1.birthCountry", "CAN",
		"parents.1.birthProvince", "QC",
		"parents.1.birthCity", "Laval",
	))
	require.True(t, bag.Empty(), "%v", bag)
	p := data.(ParentDetails)
	require.Len(t, p.Parents, 2)
	assert.True(t, p.Parents[0].Unavailable)
	assert.Equal(t, "QC", p.Parents[1].BirthProvince)

	_, bag, _ = Parse(ParentDetailsID, form("parentCount", "9"))
	assert.Equal(t, []string{MsgInvalid}, bag["parentCount"])
}

func TestContactInformation(t *testing.T) {
	data, bag, _ := Parse(ContactInformationID, form(
		"preferredLanguage", "fr",
		"primaryPhone", "(613) 555-0100",
		"emailAddress", "Someone@Example.ca",
		"country", "CAN",
		"address", "1 Main St",
		"postalCode", "k1a0b1",
		"city", "Ottawa",
		"province", "ON",
	))
	require.True(t, bag.Empty(), "%v", bag)
	c := data.(ContactInformation)
	assert.Equal(t, "6135550100", c.PrimaryPhone)
	assert.Equal(t, "K1A 0B1", c.PostalCode)
	assert.Equal(t, "someone@example.ca", c.EmailAddress)
}

func TestContactInformation_Invalid(t *testing.T) {
	_, bag, _ := Parse(ContactInformationID, form(
		"preferredLanguage", "en",
		"primaryPhone", "555",
		"emailAddress", "not-an-email",
		"country", "CAN",
		"address", "1 Main St",
		"postalCode", "12345",
		"city", "Ottawa",
		"province", "ON",
	))
	for _, field := range []string{"primaryPhone", "emailAddress", "postalCode"} {
		assert.Equal(t, []string{MsgInvalid}, bag[field], field)
	}
}

func TestFormValuesRoundTrip(t *testing.T) {
	original, bag, _ := Parse(PrimaryDocumentsID, validPrimary("birth-certificate"))
	require.True(t, bag.Empty())

	again, bag, _ := Parse(PrimaryDocumentsID, NewForm(original.FormValues()).WithClock(fixedNow))
	require.True(t, bag.Empty(), "%v", bag)
	assert.Equal(t, original, again)
}

func TestDateJSON(t *testing.T) {
	d, err := ParseDate("2000-02-29")
	require.NoError(t, err)

	b, err := json.Marshal(struct{ D Date }{d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"D":"2000-02-29"}`, string(b))

	var out struct{ D Date }
	require.NoError(t, json.Unmarshal(b, &out))
	assert.True(t, d.Equal(out.D.Time))

	assert.Error(t, json.Unmarshal([]byte(`{"D":"29/02/2000"}`), &out))
}

func TestIDsSorted(t *testing.T) {
	ids := IDs()
	assert.True(t, slices.IsSorted(ids))
	assert.Len(t, ids, 10)
}

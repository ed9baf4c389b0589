package steps

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const maxPreviousNames = 10

type Gender string

const (
	GenderFemale  Gender = "female"
	GenderMale    Gender = "male"
	GenderAnother Gender = "another-gender"
)

var Genders = []Gender{GenderFemale, GenderMale, GenderAnother}

// PersonalInformation holds names used in the past and gender.
type PersonalInformation struct {
	FirstNamesPreviouslyUsed []string `json:"firstNamesPreviouslyUsed,omitempty"`
	LastNameAtBirth          string   `json:"lastNameAtBirth"`
	LastNamesPreviouslyUsed  []string `json:"lastNamesPreviouslyUsed,omitempty"`
	Gender                   Gender   `json:"gender"`
}

func (PersonalInformation) StepID() ID { return PersonalInformationID }

func (p PersonalInformation) FormValues() url.Values {
	return url.Values{
		"firstNamesPreviouslyUsed": slices.Clone(p.FirstNamesPreviouslyUsed),
		"lastNameAtBirth":          {p.LastNameAtBirth},
		"lastNamesPreviouslyUsed":  slices.Clone(p.LastNamesPreviouslyUsed),
		"gender":                   {string(p.Gender)},
	}
}

func parsePersonalInformation(f Form) (Data, ErrorBag) {
	bag := ErrorBag{}
	p := PersonalInformation{
		FirstNamesPreviouslyUsed: requireNameList(f, bag, "firstNamesPreviouslyUsed"),
		LastNameAtBirth:          requireText(f, bag, "lastNameAtBirth"),
		LastNamesPreviouslyUsed:  requireNameList(f, bag, "lastNamesPreviouslyUsed"),
		Gender:                   requireOption(f, bag, "gender", Genders),
	}
	return p, bag
}

func requireNameList(f Form, bag ErrorBag, field string) []string {
	names := f.List(field)
	if len(names) > maxPreviousNames {
		bag.Add(field, MsgTooLong)
		return nil
	}
	for _, n := range names {
		if len(n) > maxTextLen {
			bag.Add(field, MsgTooLong)
			break
		}
	}
	return names
}

// CurrentName is the name the applicant wants on the SIN record.
type CurrentName struct {
	PreferredSameAsDocumentName bool   `json:"preferredSameAsDocumentName"`
	FirstName                   string `json:"firstName,omitempty"`
	MiddleName                  string `json:"middleName,omitempty"`
	LastName                    string `json:"lastName,omitempty"`
}

func (CurrentName) StepID() ID { return CurrentNameID }

func (c CurrentName) FormValues() url.Values {
	return url.Values{
		"preferredSameAsDocumentName": {yesNo(c.PreferredSameAsDocumentName)},
		"firstName":                   {c.FirstName},
		"middleName":                  {c.MiddleName},
		"lastName":                    {c.LastName},
	}
}

func parseCurrentName(f Form) (Data, ErrorBag) {
	bag := ErrorBag{}
	c := CurrentName{PreferredSameAsDocumentName: requireYesNo(f, bag, "preferredSameAsDocumentName")}
	if bag.Has("preferredSameAsDocumentName") || c.PreferredSameAsDocumentName {
		return c, bag
	}
	c.FirstName = requireText(f, bag, "firstName")
	c.MiddleName = optionalText(f, bag, "middleName")
	c.LastName = requireText(f, bag, "lastName")
	return c, bag
}

// Canadian provinces and territories.
var Provinces = []string{"AB", "BC", "MB", "NB", "NL", "NS", "NT", "NU", "ON", "PE", "QC", "SK", "YT"}

// CountryCanada is the ISO 3166-1 alpha-3 code that unlocks province fields.
const CountryCanada = "CAN"

var countryCode = regexp.MustCompile(`^[A-Z]{3}$`)

// requirePlace validates a country, province and city triple. The province is
// required for Canada and dropped otherwise.
func requirePlace(f Form, bag ErrorBag, countryField, provinceField, cityField string) (country, province, city string) {
	country = strings.ToUpper(f.Text(countryField))
	switch {
	case country == "":
		bag.Add(countryField, MsgRequired)
	case !countryCode.MatchString(country):
		bag.Add(countryField, MsgInvalid)
	}
	if country == CountryCanada {
		province = requireOption(f, bag, provinceField, Provinces)
	}
	city = requireText(f, bag, cityField)
	return country, province, city
}

// BirthDetails records where the applicant was born.
type BirthDetails struct {
	Country           string `json:"country"`
	Province          string `json:"province,omitempty"`
	City              string `json:"city"`
	FromMultipleBirth bool   `json:"fromMultipleBirth"`
}

func (BirthDetails) StepID() ID { return BirthDetailsID }

func (b BirthDetails) FormValues() url.Values {
	return url.Values{
		"country":           {b.Country},
		"province":          {b.Province},
		"city":              {b.City},
		"fromMultipleBirth": {yesNo(b.FromMultipleBirth)},
	}
}

func parseBirthDetails(f Form) (Data, ErrorBag) {
	bag := ErrorBag{}
	var b BirthDetails
	b.Country, b.Province, b.City = requirePlace(f, bag, "country", "province", "city")
	b.FromMultipleBirth = requireYesNo(f, bag, "fromMultipleBirth")
	return b, bag
}

// MaxParents bounds the parent entries accepted on one form.
const MaxParents = 4

// Parent is one entry of ParentDetails. When Unavailable is set the remaining
// fields are empty.
type Parent struct {
	Unavailable   bool   `json:"unavailable"`
	GivenName     string `json:"givenName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	BirthCountry  string `json:"birthCountry,omitempty"`
	BirthProvince string `json:"birthProvince,omitempty"`
	BirthCity     string `json:"birthCity,omitempty"`
}

// ParentDetails lists the applicant's parents.
type ParentDetails struct {
	Parents []Parent `json:"parents"`
}

func (ParentDetails) StepID() ID { return ParentDetailsID }

func parentField(i int, name string) string {
	return fmt.Sprintf("parents.%d.%s", i, name)
}

var parentFieldNames = []string{"unavailable", "givenName", "lastName", "birthCountry", "birthProvince", "birthCity"}

func parentFields() []string {
	fields := []string{"parentCount"}
	for i := range MaxParents {
		for _, n := range parentFieldNames {
			fields = append(fields, parentField(i, n))
		}
	}
	return fields
}

func (p ParentDetails) FormValues() url.Values {
	v := url.Values{"parentCount": {strconv.Itoa(len(p.Parents))}}
	for i, parent := range p.Parents {
		if parent.Unavailable {
			v.Set(parentField(i, "unavailable"), "on")
			continue
		}
		v.Set(parentField(i, "givenName"), parent.GivenName)
		v.Set(parentField(i, "lastName"), parent.LastName)
		v.Set(parentField(i, "birthCountry"), parent.BirthCountry)
		v.Set(parentField(i, "birthProvince"), parent.BirthProvince)
		v.Set(parentField(i, "birthCity"), parent.BirthCity)
	}
	return v
}

func parseParentDetails(f Form) (Data, ErrorBag) {
	bag := ErrorBag{}
	count := 1
	if raw := f.Text("parentCount"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxParents {
			bag.Add("parentCount", MsgInvalid)
			return ParentDetails{}, bag
		}
		count = n
	}

	p := ParentDetails{Parents: make([]Parent, count)}
	for i := range count {
		if f.Text(parentField(i, "unavailable")) != "" {
			p.Parents[i].Unavailable = true
			continue
		}
		p.Parents[i].GivenName = requireText(f, bag, parentField(i, "givenName"))
		p.Parents[i].LastName = requireText(f, bag, parentField(i, "lastName"))
		p.Parents[i].BirthCountry, p.Parents[i].BirthProvince, p.Parents[i].BirthCity =
			requirePlace(f, bag, parentField(i, "birthCountry"), parentField(i, "birthProvince"), parentField(i, "birthCity"))
	}
	return p, bag
}

func init() {
	register(Schema{
		ID:     PersonalInformationID,
		Fields: []string{"firstNamesPreviouslyUsed", "lastNameAtBirth", "lastNamesPreviouslyUsed", "gender"},
		Parse:  parsePersonalInformation,
	})
	register(Schema{ID: CurrentNameID, Fields: []string{"preferredSameAsDocumentName", "firstName", "middleName", "lastName"}, Parse: parseCurrentName})
	register(Schema{ID: BirthDetailsID, Fields: []string{"country", "province", "city", "fromMultipleBirth"}, Parse: parseBirthDetails})
	register(Schema{ID: ParentDetailsID, Fields: parentFields(), Parse: parseParentDetails})
}

package steps

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
)

var Languages = []Language{LanguageEnglish, LanguageFrench}

var (
	phoneDigits  = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	postalCodeCA = regexp.MustCompile(`^[ABCEGHJ-NPRSTVXY][0-9][ABCEGHJ-NPRSTV-Z] ?[0-9][ABCEGHJ-NPRSTV-Z][0-9]$`)
	phoneNoise   = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
)

// ContactInformation is how the department reaches the applicant.
type ContactInformation struct {
	PreferredLanguage Language `json:"preferredLanguage"`
	PrimaryPhone      string   `json:"primaryPhone"`
	SecondaryPhone    string   `json:"secondaryPhone,omitempty"`
	EmailAddress      string   `json:"emailAddress,omitempty"`
	Country           string   `json:"country"`
	Address           string   `json:"address"`
	PostalCode        string   `json:"postalCode,omitempty"`
	City              string   `json:"city"`
	Province          string   `json:"province,omitempty"`
}

func (ContactInformation) StepID() ID { return ContactInformationID }

func (c ContactInformation) FormValues() url.Values {
	return url.Values{
		"preferredLanguage": {string(c.PreferredLanguage)},
		"primaryPhone":      {c.PrimaryPhone},
		"secondaryPhone":    {c.SecondaryPhone},
		"emailAddress":      {c.EmailAddress},
		"country":           {c.Country},
		"address":           {c.Address},
		"postalCode":        {c.PostalCode},
		"city":              {c.City},
		"province":          {c.Province},
	}
}

func parseContactInformation(f Form) (Data, ErrorBag) {
	bag := ErrorBag{}
	c := ContactInformation{
		PreferredLanguage: requireOption(f, bag, "preferredLanguage", Languages),
		PrimaryPhone:      phone(f, bag, "primaryPhone", true),
		SecondaryPhone:    phone(f, bag, "secondaryPhone", false),
		EmailAddress:      email(f, bag, "emailAddress"),
		Address:           requireText(f, bag, "address"),
	}
	c.Country, c.Province, c.City = requirePlace(f, bag, "country", "province", "city")

	if c.Country == CountryCanada {
		pc := strings.ToUpper(f.Text("postalCode"))
		switch {
		case pc == "":
			bag.Add("postalCode", MsgRequired)
		case !postalCodeCA.MatchString(pc):
			bag.Add("postalCode", MsgInvalid)
		default:
			pc = strings.ReplaceAll(pc, " ", "")
			c.PostalCode = pc[:3] + " " + pc[3:]
		}
	} else {
		c.PostalCode = optionalText(f, bag, "postalCode")
	}
	return c, bag
}

// phone normalises to digits with an optional leading plus sign.
func phone(f Form, bag ErrorBag, field string, required bool) string {
	raw := f.Text(field)
	if raw == "" {
		if required {
			bag.Add(field, MsgRequired)
		}
		return ""
	}
	v := phoneNoise.Replace(raw)
	if !phoneDigits.MatchString(v) {
		bag.Add(field, MsgInvalid)
	}
	return v
}

func email(f Form, bag ErrorBag, field string) string {
	raw := f.Text(field)
	if raw == "" {
		return ""
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		bag.Add(field, MsgInvalid)
		return raw
	}
	return strings.ToLower(addr.Address)
}

func init() {
	register(Schema{
		ID:     ContactInformationID,
		Fields: []string{"preferredLanguage", "primaryPhone", "secondaryPhone", "emailAddress", "country", "address", "postalCode", "city", "province"},
		Parse:  parseContactInformation,
	})
}

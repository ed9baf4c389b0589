package steps

import (
	"net/url"
	"strings"
)

type PreviousSinAnswer string

const (
	PreviousSinYes     PreviousSinAnswer = "yes"
	PreviousSinNo      PreviousSinAnswer = "no"
	PreviousSinUnknown PreviousSinAnswer = "unknown"
)

var PreviousSinAnswers = []PreviousSinAnswer{PreviousSinYes, PreviousSinNo, PreviousSinUnknown}

// PreviousSin records whether the applicant already holds a SIN.
// SocialInsuranceNumber is set only when the answer is yes and is stored as
// nine digits.
type PreviousSin struct {
	HasPreviousSin        PreviousSinAnswer `json:"hasPreviousSin"`
	SocialInsuranceNumber string            `json:"socialInsuranceNumber,omitempty"`
}

func (PreviousSin) StepID() ID { return PreviousSinID }

func (p PreviousSin) FormValues() url.Values {
	v := url.Values{"hasPreviousSin": {string(p.HasPreviousSin)}}
	if p.SocialInsuranceNumber != "" {
		v.Set("socialInsuranceNumber", FormatSIN(p.SocialInsuranceNumber))
	}
	return v
}

func parsePreviousSin(f Form) (Data, ErrorBag) {
	bag := ErrorBag{}
	p := PreviousSin{HasPreviousSin: requireOption(f, bag, "hasPreviousSin", PreviousSinAnswers)}
	if p.HasPreviousSin != PreviousSinYes {
		return p, bag
	}

	raw := f.Text("socialInsuranceNumber")
	if raw == "" {
		bag.Add("socialInsuranceNumber", MsgRequired)
		return p, bag
	}
	sin, ok := NormalizeSIN(raw)
	switch {
	case !ok:
		bag.Add("socialInsuranceNumber", MsgInvalid)
	case !ValidSIN(sin):
		bag.Add("socialInsuranceNumber", MsgChecksum)
	default:
		p.SocialInsuranceNumber = sin
	}
	return p, bag
}

// NormalizeSIN strips spaces and dashes and reports whether nine digits remain.
func NormalizeSIN(s string) (string, bool) {
	s = strings.NewReplacer(" ", "", "-", "").Replace(s)
	if len(s) != 9 {
		return s, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s, false
		}
	}
	return s, true
}

// ValidSIN checks a normalised nine-digit SIN. Numbers beginning with 0 or 8
// are never issued.
func ValidSIN(sin string) bool {
	if len(sin) != 9 || sin[0] == '0' || sin[0] == '8' {
		return false
	}
	return luhn(sin)
}

func luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// FormatSIN renders a nine-digit SIN as "123 456 789".
func FormatSIN(sin string) string {
	if len(sin) != 9 {
		return sin
	}
	return sin[:3] + " " + sin[3:6] + " " + sin[6:]
}

func init() {
	register(Schema{ID: PreviousSinID, Fields: []string{"hasPreviousSin", "socialInsuranceNumber"}, Parse: parsePreviousSin})
}

package web

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hazyhaar/sinapp/steps"
)

// Input kinds understood by the step template.
const (
	kindText     = "text"
	kindDate     = "date"
	kindEmail    = "email"
	kindTel      = "tel"
	kindSelect   = "select"
	kindRadio    = "radio"
	kindCheckbox = "checkbox"
	kindList     = "list"
)

// listSlots is how many inputs a repeated field renders.
const listSlots = 3

type fieldSpec struct {
	kind     string
	options  []string
	optional bool
}

func opts[T ~string](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

var yesNo = []string{"yes", "no"}

func primaryDocumentTypes() []string {
	seen := map[steps.DocumentType]bool{}
	var out []string
	for _, status := range steps.Statuses {
		for _, d := range steps.DocumentTypesByStatus[status] {
			if !seen[d] {
				seen[d] = true
				out = append(out, string(d))
			}
		}
	}
	return out
}

func parentCounts() []string {
	out := make([]string, steps.MaxParents)
	for i := range out {
		out[i] = strconv.Itoa(i + 1)
	}
	return out
}

// specs overrides the default text input per step and field. Parent fields
// are looked up by their base name.
var specs = map[steps.ID]map[string]fieldSpec{
	steps.PrivacyStatementID: {
		"agreedToTerms": {kind: kindCheckbox},
	},
	steps.RequestDetailsID: {
		"type":     {kind: kindSelect, options: opts(steps.RequestTypes)},
		"scenario": {kind: kindRadio, options: opts(steps.Scenarios)},
	},
	steps.PrimaryDocumentsID: {
		"currentStatusInCanada": {kind: kindSelect, options: opts(steps.Statuses)},
		"documentType":          {kind: kindSelect, options: primaryDocumentTypes()},
		"dateOfBirth":           {kind: kindDate},
	},
	steps.SecondaryDocumentID: {
		"documentType": {kind: kindSelect, options: opts(steps.SecondaryDocumentTypes)},
		"expiryDate":   {kind: kindDate},
	},
	steps.PreviousSinID: {
		"hasPreviousSin":        {kind: kindRadio, options: opts(steps.PreviousSinAnswers)},
		"socialInsuranceNumber": {optional: true},
	},
	steps.PersonalInformationID: {
		"firstNamesPreviouslyUsed": {kind: kindList, optional: true},
		"lastNamesPreviouslyUsed":  {kind: kindList, optional: true},
		"gender":                   {kind: kindRadio, options: opts(steps.Genders)},
	},
	steps.CurrentNameID: {
		"preferredSameAsDocumentName": {kind: kindRadio, options: yesNo},
		"firstName":                   {optional: true},
		"middleName":                  {optional: true},
		"lastName":                    {optional: true},
	},
	steps.BirthDetailsID: {
		"province":          {kind: kindSelect, options: steps.Provinces, optional: true},
		"fromMultipleBirth": {kind: kindRadio, options: yesNo},
	},
	steps.ParentDetailsID: {
		"parentCount":   {kind: kindSelect, options: parentCounts()},
		"unavailable":   {kind: kindCheckbox, optional: true},
		"birthProvince": {kind: kindSelect, options: steps.Provinces, optional: true},
	},
	steps.ContactInformationID: {
		"preferredLanguage": {kind: kindRadio, options: opts(steps.Languages)},
		"primaryPhone":      {kind: kindTel},
		"secondaryPhone":    {kind: kindTel, optional: true},
		"emailAddress":      {kind: kindEmail, optional: true},
		"province":          {kind: kindSelect, options: steps.Provinces, optional: true},
	},
}

// baseName strips the "parents.N." prefix and returns the parent index, or
// -1 for ordinary fields.
func baseName(field string) (string, int) {
	rest, ok := strings.CutPrefix(field, "parents.")
	if !ok {
		return field, -1
	}
	idx, name, ok := strings.Cut(rest, ".")
	if !ok {
		return field, -1
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return field, -1
	}
	return name, n
}

func specFor(step steps.ID, field string) fieldSpec {
	name, _ := baseName(field)
	s := specs[step][name]
	if s.kind == "" {
		s.kind = kindText
	}
	return s
}

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

type fieldView struct {
	Name     string
	ID       string
	Label    string
	Kind     string
	Required bool
	Value    string
	Values   []string // list slots
	Checked  bool
	Options  []optionView
	Errors   []string
	Group    string // non-empty on the first field of a parent block
}

// buildFields renders the schema of step with values and localised errors.
func buildFields(t translator, step steps.ID, values url.Values, bag steps.ErrorBag) []fieldView {
	schema, ok := steps.Lookup(step)
	if !ok {
		return nil
	}
	var out []fieldView
	lastParent := -1
	for _, name := range schema.Fields {
		spec := specFor(step, name)
		base, parent := baseName(name)

		f := fieldView{
			Name:     name,
			ID:       "f-" + strings.ReplaceAll(name, ".", "-"),
			Label:    t.T("field." + base),
			Kind:     spec.kind,
			Required: !spec.optional,
			Value:    values.Get(name),
		}
		if parent >= 0 && parent != lastParent {
			f.Group = t.T("parent.heading", parent+1)
			lastParent = parent
		}
		switch spec.kind {
		case kindCheckbox:
			f.Checked = f.Value != ""
		case kindList:
			f.Values = make([]string, max(listSlots, len(values[name])+1))
			copy(f.Values, values[name])
		case kindSelect, kindRadio:
			for _, o := range spec.options {
				f.Options = append(f.Options, optionView{Value: o, Label: t.Option(o), Selected: o == f.Value})
			}
		}
		for _, msg := range bag[name] {
			f.Errors = append(f.Errors, t.T("error."+msg))
		}
		out = append(out, f)
	}
	return out
}

type reviewItem struct {
	Label string
	Value string
}

type reviewSection struct {
	Title string
	Items []reviewItem
}

// buildReview summarises collected step data in schema order. Empty values
// and unavailable parent blocks are skipped.
func buildReview(t translator, data []steps.Data) []reviewSection {
	var out []reviewSection
	for _, d := range data {
		schema, ok := steps.Lookup(d.StepID())
		if !ok {
			continue
		}
		values := d.FormValues()
		sec := reviewSection{Title: t.T("title." + string(d.StepID()))}
		for _, name := range schema.Fields {
			vs := values[name]
			if len(vs) == 0 || (len(vs) == 1 && vs[0] == "") {
				continue
			}
			spec := specFor(d.StepID(), name)
			base, parent := baseName(name)
			label := t.T("field." + base)
			if parent >= 0 {
				label = t.T("parent.heading", parent+1) + ": " + label
			}
			shown := make([]string, len(vs))
			for i, v := range vs {
				switch spec.kind {
				case kindSelect, kindRadio:
					shown[i] = t.Option(v)
				case kindCheckbox:
					shown[i] = t.Option("yes")
				default:
					shown[i] = v
				}
			}
			sec.Items = append(sec.Items, reviewItem{Label: label, Value: strings.Join(shown, ", ")})
		}
		out = append(out, sec)
	}
	return out
}

package steps

import (
	"html"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Message keys recorded in an ErrorBag. The presentation layer maps them to
// localised text.
const (
	MsgRequired      = "required"
	MsgInvalid       = "invalid"
	MsgUnknownOption = "unknown-option"
	MsgTooLong       = "too-long"
	MsgFutureDate    = "future-date"
	MsgExpired       = "expired"
	MsgChecksum      = "checksum"
	MsgNotAllowed    = "not-allowed"
)

const maxTextLen = 100

// ErrorBag maps a field name to one or more message keys.
type ErrorBag map[string][]string

// Add records msg against field.
func (b ErrorBag) Add(field, msg string) {
	b[field] = append(b[field], msg)
}

// Empty reports whether the bag holds no errors. A nil bag is empty.
func (b ErrorBag) Empty() bool { return len(b) == 0 }

// Has reports whether field has at least one error.
func (b ErrorBag) Has(field string) bool { return len(b[field]) > 0 }

// Clone returns an independent copy.
func (b ErrorBag) Clone() ErrorBag {
	if b == nil {
		return nil
	}
	out := make(ErrorBag, len(b))
	for k, v := range b {
		out[k] = slices.Clone(v)
	}
	return out
}

var strict = bluemonday.StrictPolicy()

// Form wraps submitted values. Text accessors trim and strip markup.
type Form struct {
	values url.Values
	now    func() time.Time
}

// NewForm wraps v using the wall clock for date checks.
func NewForm(v url.Values) Form {
	return Form{values: v, now: time.Now}
}

// WithClock returns a copy of f whose date checks use now.
func (f Form) WithClock(now func() time.Time) Form {
	f.now = now
	return f
}

// Text returns the sanitised, trimmed value of name.
func (f Form) Text(name string) string {
	return clean(f.values.Get(name))
}

// List returns the sanitised non-empty values of a repeated field.
func (f Form) List(name string) []string {
	var out []string
	for _, v := range f.values[name] {
		if c := clean(v); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (f Form) today() time.Time {
	now := f.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// clean strips markup, then unescapes the entities the policy introduced so
// names like O'Brien survive. Templates escape again on output.
func clean(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(strict.Sanitize(s))), " ")
}

// requireText returns the value of a mandatory free-text field.
func requireText(f Form, bag ErrorBag, field string) string {
	v := f.Text(field)
	switch {
	case v == "":
		bag.Add(field, MsgRequired)
	case len(v) > maxTextLen:
		bag.Add(field, MsgTooLong)
	}
	return v
}

// optionalText returns the value of an optional free-text field.
func optionalText(f Form, bag ErrorBag, field string) string {
	v := f.Text(field)
	if len(v) > maxTextLen {
		bag.Add(field, MsgTooLong)
	}
	return v
}

// requireOption returns the value of a mandatory enumerated field.
func requireOption[T ~string](f Form, bag ErrorBag, field string, allowed []T) T {
	v := T(f.Text(field))
	switch {
	case v == "":
		bag.Add(field, MsgRequired)
	case !slices.Contains(allowed, v):
		bag.Add(field, MsgUnknownOption)
	}
	return v
}

// requireYesNo parses a mandatory yes/no radio group.
func requireYesNo(f Form, bag ErrorBag, field string) bool {
	switch f.Text(field) {
	case "yes":
		return true
	case "no":
		return false
	case "":
		bag.Add(field, MsgRequired)
	default:
		bag.Add(field, MsgUnknownOption)
	}
	return false
}

// requireChecked parses a mandatory checkbox.
func requireChecked(f Form, bag ErrorBag, field string) bool {
	switch strings.ToLower(f.Text(field)) {
	case "on", "true", "yes", "1":
		return true
	}
	bag.Add(field, MsgRequired)
	return false
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

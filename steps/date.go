package steps

import (
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day, serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// requirePastDate parses a mandatory date that must not be after today.
func requirePastDate(f Form, bag ErrorBag, field string) Date {
	d, ok := requireDate(f, bag, field)
	if ok && d.After(f.today()) {
		bag.Add(field, MsgFutureDate)
	}
	return d
}

// requireUnexpiredDate parses a mandatory date that must be today or later.
func requireUnexpiredDate(f Form, bag ErrorBag, field string) Date {
	d, ok := requireDate(f, bag, field)
	if ok && d.Before(f.today()) {
		bag.Add(field, MsgExpired)
	}
	return d
}

func requireDate(f Form, bag ErrorBag, field string) (Date, bool) {
	raw := f.Text(field)
	if raw == "" {
		bag.Add(field, MsgRequired)
		return Date{}, false
	}
	d, err := ParseDate(raw)
	if err != nil {
		bag.Add(field, MsgInvalid)
		return Date{}, false
	}
	return d, true
}

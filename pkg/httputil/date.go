package httputil

import (
	"encoding/json"
	"time"
)

// Date is a calendar day written as "YYYY-MM-DD" in request and response bodies
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day
func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// UnmarshalJSON accepts a YYYY-MM-DD string or null
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		d.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &DateError{Value: string(data)}
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return &DateError{Value: raw}
	}
	d.Time = t
	return nil
}

// MarshalJSON writes the YYYY-MM-DD form, or null for the zero date
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// DateError reports a body date that is not YYYY-MM-DD
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return "invalid date " + e.Value + ", expected " + DateLayout
}

package shared

import (
	"fmt"
	"strings"
	"time"
)

const dayFormat = "2006-01-02"

// Day is a calendar day without time-of-day or timezone. All date arithmetic
// in the settlement engine happens on whole days.
type Day struct {
	t time.Time
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Day{t: t}, nil
}

// DayOf truncates a timestamp to its calendar day.
func DayOf(t time.Time) Day {
	return Day{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day.
func Today() Day {
	return DayOf(time.Now())
}

func (d Day) String() string {
	return d.t.Format(dayFormat)
}

// Time exposes the underlying midnight-UTC timestamp for database scans.
func (d Day) Time() time.Time {
	return d.t
}

func (d Day) IsZero() bool {
	return d.t.IsZero()
}

func (d Day) Year() int {
	return d.t.Year()
}

// Quarter returns the calendar quarter 1..4 (Jan-Mar is 1).
func (d Day) Quarter() int {
	return (int(d.t.Month())-1)/3 + 1
}

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }
func (d Day) After(o Day) bool  { return d.t.After(o.t) }
func (d Day) Equal(o Day) bool  { return d.t.Equal(o.t) }

// MarshalJSON renders the day as a quoted YYYY-MM-DD string.
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON parses a quoted YYYY-MM-DD string.
func (d *Day) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

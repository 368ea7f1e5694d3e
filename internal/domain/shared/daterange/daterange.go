package daterange

import (
	"errors"
	"strings"
	"time"
)

// Layout is the calendar date format used for slot keys.
const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: end must not be before start")
	ErrInvalidDate  = errors.New("daterange: invalid calendar date")
)

// DateRange is an inclusive span of UTC calendar days [From, To].
type DateRange struct {
	From time.Time
	To   time.Time
}

// New truncates both bounds to their UTC day and validates order.
func New(from, to time.Time) (DateRange, error) {
	dr := DateRange{From: Day(from), To: Day(to)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two YYYY-MM-DD strings.
func Parse(from, to string) (DateRange, error) {
	start, err := ParseDate(from)
	if err != nil {
		return DateRange{}, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return DateRange{}, err
	}
	return New(start, end)
}

func (dr DateRange) Validate() error {
	if dr.From.IsZero() || dr.To.IsZero() {
		return ErrInvalidRange
	}
	if dr.To.Before(dr.From) {
		return ErrInvalidRange
	}
	return nil
}

// Len is the number of days in the range.
func (dr DateRange) Len() int {
	if dr.To.Before(dr.From) {
		return 0
	}
	return int(dr.To.Sub(dr.From).Hours()/24) + 1
}

// Contains reports whether the calendar day of t lies in the range.
func (dr DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(dr.From) && !d.After(dr.To)
}

// Overlaps reports whether two inclusive ranges share a day.
func (dr DateRange) Overlaps(other DateRange) bool {
	return !dr.From.After(other.To) && !other.From.After(dr.To)
}

// Days lists every day in the range, ascending.
func (dr DateRange) Days() []time.Time {
	n := dr.Len()
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, dr.From.AddDate(0, 0, i))
	}
	return out
}

// Keys lists every day in the range formatted with Layout.
func (dr DateRange) Keys() []string {
	days := dr.Days()
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Format(Layout)
	}
	return out
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date, falling back to RFC3339 timestamps.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(Layout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return Day(t), nil
	}
	return time.Time{}, ErrInvalidDate
}

// Key formats the calendar day of t.
func Key(t time.Time) string {
	return Day(t).Format(Layout)
}

package engine

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (this system plans in whole days)
// =============================================================================

// Date is a calendar date with no time-of-day component. All entity dates
// are stored as "2006-01-02" strings and parsed into Date for arithmetic.
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

// ParseDate parses an ISO-8601 date string. A failure is a DateParseError
// and aborts whichever calculation needed the date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, &DateParseError{Input: s, Err: err}
	}
	return Date{Time: t}, nil
}

// NewDate builds a Date from components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Comparison
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) String() string        { return d.Time.Format(dateLayout) }

// Min returns the earlier of two dates.
func (d Date) Min(other Date) Date {
	if d.Before(other) {
		return d
	}
	return other
}

// Max returns the later of two dates.
func (d Date) Max(other Date) Date {
	if d.After(other) {
		return d
	}
	return other
}

// =============================================================================
// PERIOD - Inclusive date interval
// =============================================================================

// Period is an inclusive [Start, End] date interval. Planning periods,
// absences, and holidays all reduce to Periods for overlap arithmetic.
type Period struct {
	Start Date
	End   Date
}

// ParsePeriod parses both bounds of a stored interval.
func ParsePeriod(startDate, endDate string) (Period, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return Period{}, err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return Period{}, err
	}
	return Period{Start: start, End: end}, nil
}

// TotalDays returns the inclusive day count of the interval.
func (p Period) TotalDays() int {
	return int(p.End.Time.Sub(p.Start.Time).Hours()/24) + 1
}

// Contains reports whether the date falls within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps reports whether two inclusive intervals intersect.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && p.End.AfterOrEqual(other.Start)
}

// Intersect returns the overlap of two intervals. The second return value
// is false when they do not intersect.
func (p Period) Intersect(other Period) (Period, bool) {
	start := p.Start.Max(other.Start)
	end := p.End.Min(other.End)
	if start.After(end) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

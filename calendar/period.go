package calendar

import "errors"

// ErrInvalidPeriod is returned when a period is malformed.
var ErrInvalidPeriod = errors.New("invalid period: end before start")

// =============================================================================
// PERIOD - Closed date interval
// =============================================================================

// Period is the closed interval [Start, End].
type Period struct {
	Start Date
	End   Date
}

// NewPeriod validates that both bounds are set and End is not before Start.
func NewPeriod(start, end Date) (Period, error) {
	if start.IsZero() || end.IsZero() {
		return Period{}, ErrInvalidPeriod
	}
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns the number of days in the period, both bounds included.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// RANGE - Effective range, open ended when To is nil
// =============================================================================

// Range is an effective range [From, To]; a nil To means "until further notice".
type Range struct {
	From Date
	To   *Date
}

// Contains reports whether d falls on or after From and, when To is set, on or
// before To.
func (r Range) Contains(d Date) bool {
	if d.Before(r.From) {
		return false
	}
	if r.To != nil && d.After(*r.To) {
		return false
	}
	return true
}

package generic

const secondsPerDay = 24 * 60 * 60

// =============================================================================
// RANGE - Inclusive span of calendar days
// =============================================================================

// Range is the inclusive span [Start, End]. A range whose End is before its
// Start is reversed and contains no day.
type Range struct {
	Start Date
	End   Date
}

func NewRange(start, end Date) Range { return Range{Start: start, End: end} }

// IsReversed reports End < Start.
func (r Range) IsReversed() bool { return r.End.Before(r.Start) }

// IsSingleDay reports Start == End.
func (r Range) IsSingleDay() bool { return r.Start.Equal(r.End) }

// WorkingDays counts the days of the range that are not Saturday or Sunday.
// Whole weeks count 5 each; only the trailing partial week is walked.
func (r Range) WorkingDays() int {
	if r.IsReversed() {
		return 0
	}
	span := int((r.End.Time.Unix()-r.Start.Time.Unix())/secondsPerDay) + 1
	weeks, rest := span/7, span%7

	n := weeks * 5
	for current := r.Start.AddDays(weeks * 7); rest > 0; current, rest = current.AddDays(1), rest-1 {
		if current.IsWorkday() {
			n++
		}
	}
	return n
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

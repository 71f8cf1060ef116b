package leave

import "github.com/warp/leave-planner/generic"

// Cost returns the working-day cost of leave from start to end inclusive.
//
// A single day costs the granularity weight (1 or 0.5) when it is a working
// day and nothing otherwise. A range spanning several calendar days costs the
// number of working days in it; the granularity is ignored there. A reversed
// range contains no day and costs 0. Saturdays and Sundays are the only
// non-working days.
func Cost(start, end generic.Date, granularity Granularity) generic.Days {
	r := generic.NewRange(start, end)
	if r.IsSingleDay() {
		if !IsWorkingDay(start) {
			return generic.ZeroDays
		}
		return granularity.Weight()
	}
	return generic.DaysFromInt(r.WorkingDays())
}

// IsWorkingDay reports whether d counts toward a period's cost.
func IsWorkingDay(d generic.Date) bool { return d.IsWorkday() }

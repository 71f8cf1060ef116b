package leave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/leave"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) generic.Date { return generic.MustParseDate(s) }

func days(n float64) generic.Days { return generic.NewDays(n) }

func assertDays(t *testing.T, want float64, got generic.Days) {
	t.Helper()
	assert.Truef(t, got.Equal(days(want)), "want %v days, got %s", want, got)
}

func period(id string, category leave.Category, start, end string, g leave.Granularity) leave.Period {
	return leave.Period{
		ID:          leave.PeriodID(id),
		Start:       date(start),
		End:         date(end),
		Category:    category,
		Granularity: g,
		WorkingDays: leave.Cost(date(start), date(end), g),
	}
}

func request(category leave.Category, start, end string, g leave.Granularity) leave.Request {
	return leave.Request{Start: date(start), End: date(end), Category: category, Granularity: g}
}

// annualPeriods returns weekday periods of category annual summing to total,
// which must be a multiple of 0.5. Each whole day is its own Monday..Friday
// period starting 2025-01-06; a trailing half day is a morning.
func annualPeriods(total float64) []leave.Period {
	var periods []leave.Period
	d := date("2025-01-06")
	for remaining := total; remaining > 0; {
		for d.IsWeekend() {
			d = d.AddDays(1)
		}
		g, cost := leave.GranularityFull, 1.0
		if remaining < 1 {
			g, cost = leave.GranularityMorning, 0.5
		}
		p := leave.Period{
			ID:          leave.PeriodID("seed-" + d.String()),
			Start:       d,
			End:         d,
			Category:    leave.CategoryAnnual,
			Granularity: g,
			WorkingDays: leave.Cost(d, d, g),
		}
		periods = append(periods, p)
		remaining -= cost
		d = d.AddDays(1)
	}
	return periods
}

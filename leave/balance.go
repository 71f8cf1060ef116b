package leave

import "github.com/warp/leave-planner/generic"

// ComputeBalance reduces periods into per-category balances.
//
// Used is the sum of WorkingDays per category. Remaining is the allotment
// minus Used, clamped at 0, for capped categories and always 0 for unpaid
// leave. Overruns are not reported here; Admit prevents them.
//
// The result is rebuilt from the full list on every call and carries no state
// between calls.
func ComputeBalance(periods []Period, quota Quota) Balance {
	used := make(map[Category]generic.Days, len(Categories))
	for _, p := range periods {
		used[p.Category] = used[p.Category].Add(p.WorkingDays)
	}

	balance := make(Balance, len(Categories))
	for _, c := range Categories {
		cb := CategoryBalance{Used: used[c]}
		if allotment, ok := quota.Allotment(c); ok {
			cb.Remaining = allotment.Sub(cb.Used).Max(generic.ZeroDays)
		}
		balance[c] = cb
	}
	return balance
}

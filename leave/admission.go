package leave

import (
	"github.com/google/uuid"
	"github.com/warp/leave-planner/generic"
)

func newPeriodID() PeriodID { return PeriodID(uuid.NewString()) }

// Admit decides whether req can be committed given the current balance.
//
// For capped categories the request is rejected with *InsufficientBalanceError
// when used + cost exceeds the allotment; reaching the allotment exactly is
// allowed. Unpaid leave is never rejected on balance grounds.
//
// On success Admit returns the new Period with a fresh ID. It mutates nothing:
// appending the period and persisting it are the caller's job, and the caller
// must hold the user's read-modify-write cycle so that current is not stale.
func Admit(req Request, current Balance, quota Quota) (Period, error) {
	cost, err := Preview(req, current, quota)
	if err != nil {
		return Period{}, err
	}

	return Period{
		ID:          newPeriodID(),
		Start:       req.Start,
		End:         req.End,
		Category:    req.Category,
		Granularity: req.Granularity,
		WorkingDays: cost,
		Note:        req.Note,
	}, nil
}

// Preview runs the admission checks and returns the cost of req without
// issuing a period. On rejection the cost is still returned with the error.
func Preview(req Request, current Balance, quota Quota) (generic.Days, error) {
	if err := req.Validate(); err != nil {
		return generic.ZeroDays, err
	}

	cost := Cost(req.Start, req.End, req.Granularity)

	if allotment, capped := quota.Allotment(req.Category); capped {
		used := current.For(req.Category).Used
		if used.Add(cost).GreaterThan(allotment) {
			return cost, &InsufficientBalanceError{
				Category:  req.Category,
				Requested: cost,
				Available: allotment.Sub(used),
			}
		}
	}
	return cost, nil
}

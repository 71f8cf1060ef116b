/*
planner.go - Read-modify-write glue around the pure leave functions

PURPOSE:
  Cost, ComputeBalance and Admit are pure. Planner is the caller they expect:
  it loads a user's quota and periods, derives the balance, runs admission
  and persists the outcome.

SERIALIZATION:
  Two near-simultaneous requests for the same user must not both be admitted
  against the same stale balance. Planner holds a per-user mutex from the
  read of the period list until the store has confirmed the write. Requests
  for different users do not contend.

  The lock lives in process memory. Several server processes sharing one
  database do not serialize against each other.

NO OPTIMISTIC MUTATION:
  A period is returned to the caller only once the store accepted it. Any
  store failure is reported as a *generic.StorageError and leaves the
  user's records as they were.

EDITS:
  Periods are immutable. ReplacePeriod removes the old period and admits the
  new one against the balance without it, under the same lock.
*/
package leave

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/warp/leave-planner/generic"
)

// Planner serves one user's leave operations against a store.
type Planner struct {
	periods PeriodStore
	quotas  QuotaStore
	logger  *slog.Logger
	locks   userLocks
}

// NewPlanner wires a planner. logger may be nil.
func NewPlanner(periods PeriodStore, quotas QuotaStore, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		periods: periods,
		quotas:  quotas,
		logger:  logger.With("component", "leave.planner"),
		locks:   userLocks{m: make(map[UserID]*userLock)},
	}
}

// Summary is everything the planning screen needs in one read.
type Summary struct {
	Quota   Quota
	Balance Balance
	Periods []Period
}

// =============================================================================
// QUOTA
// =============================================================================

// Quota returns the user's quota, or DefaultQuota if none was saved.
func (p *Planner) Quota(ctx context.Context, userID UserID) (Quota, error) {
	q, err := p.quotas.GetQuota(ctx, userID)
	if err != nil {
		return Quota{}, p.storageErr("get quota", userID, err)
	}
	if q == nil {
		return DefaultQuota(), nil
	}
	return *q, nil
}

// SetQuota validates and saves the user's quota. Existing periods are kept
// even if they now exceed the new allotment; remaining clamps at 0.
func (p *Planner) SetQuota(ctx context.Context, userID UserID, q Quota) error {
	if err := q.Validate(); err != nil {
		return err
	}

	unlock := p.locks.lock(userID)
	defer unlock()

	if err := p.quotas.UpsertQuota(ctx, userID, q); err != nil {
		return p.storageErr("upsert quota", userID, err)
	}
	p.logger.InfoContext(ctx, "quota saved", "user_id", userID,
		"annual", q.Annual, "comp_time", q.CompTime, "carried_over", q.CarriedOver)
	return nil
}

// =============================================================================
// PERIODS
// =============================================================================

// Periods returns the user's committed periods, ordered by start date.
func (p *Planner) Periods(ctx context.Context, userID UserID) ([]Period, error) {
	periods, err := p.periods.ListPeriods(ctx, userID)
	if err != nil {
		return nil, p.storageErr("list periods", userID, err)
	}
	if periods == nil {
		periods = []Period{}
	}
	return periods, nil
}

// Summary loads quota and periods and derives the balance.
func (p *Planner) Summary(ctx context.Context, userID UserID) (Summary, error) {
	quota, err := p.Quota(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	periods, err := p.Periods(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Quota:   quota,
		Balance: ComputeBalance(periods, quota),
		Periods: periods,
	}, nil
}

// RequestPeriod admits req against the user's current balance and persists
// the new period. Rejections are *InsufficientBalanceError or wrap
// ErrInvalidRequest; nothing is written in either case.
func (p *Planner) RequestPeriod(ctx context.Context, userID UserID, req Request) (Period, error) {
	if err := req.Validate(); err != nil {
		return Period{}, err
	}

	unlock := p.locks.lock(userID)
	defer unlock()

	summary, err := p.Summary(ctx, userID)
	if err != nil {
		return Period{}, err
	}

	period, err := Admit(req, summary.Balance, summary.Quota)
	if err != nil {
		p.logRejection(ctx, userID, req, err)
		return Period{}, err
	}

	stored, err := p.periods.InsertPeriod(ctx, userID, period)
	if err != nil {
		return Period{}, p.storageErr("insert period", userID, err)
	}

	p.logger.InfoContext(ctx, "period committed",
		"user_id", userID,
		"period_id", stored.ID,
		"category", stored.Category,
		"range", stored.Range().String(),
		"working_days", stored.WorkingDays,
	)
	return stored, nil
}

// RemovePeriod deletes one of the user's periods. Other periods are untouched.
func (p *Planner) RemovePeriod(ctx context.Context, userID UserID, id PeriodID) error {
	unlock := p.locks.lock(userID)
	defer unlock()

	if err := p.periods.DeletePeriod(ctx, userID, id); err != nil {
		if errors.Is(err, ErrPeriodNotFound) {
			return err
		}
		return p.storageErr("delete period", userID, err)
	}
	p.logger.InfoContext(ctx, "period removed", "user_id", userID, "period_id", id)
	return nil
}

// ReplacePeriod edits a period by deleting it and admitting req in its place.
// Admission sees the balance without the old period. If the new period cannot
// be stored, the old one is put back.
func (p *Planner) ReplacePeriod(ctx context.Context, userID UserID, id PeriodID, req Request) (Period, error) {
	if err := req.Validate(); err != nil {
		return Period{}, err
	}

	unlock := p.locks.lock(userID)
	defer unlock()

	summary, err := p.Summary(ctx, userID)
	if err != nil {
		return Period{}, err
	}

	var (
		old    Period
		found  bool
		others = make([]Period, 0, len(summary.Periods))
	)
	for _, existing := range summary.Periods {
		if existing.ID == id {
			old, found = existing, true
			continue
		}
		others = append(others, existing)
	}
	if !found {
		return Period{}, ErrPeriodNotFound
	}

	period, err := Admit(req, ComputeBalance(others, summary.Quota), summary.Quota)
	if err != nil {
		p.logRejection(ctx, userID, req, err)
		return Period{}, err
	}

	if err := p.periods.DeletePeriod(ctx, userID, id); err != nil {
		return Period{}, p.storageErr("delete period", userID, err)
	}

	stored, err := p.periods.InsertPeriod(ctx, userID, period)
	if err != nil {
		if _, restoreErr := p.periods.InsertPeriod(ctx, userID, old); restoreErr != nil {
			p.logger.ErrorContext(ctx, "restore after failed replace",
				"user_id", userID, "period_id", old.ID, "err", restoreErr)
		}
		return Period{}, p.storageErr("insert period", userID, err)
	}

	p.logger.InfoContext(ctx, "period replaced",
		"user_id", userID, "old_period_id", id, "period_id", stored.ID,
		"working_days", stored.WorkingDays)
	return stored, nil
}

func (p *Planner) logRejection(ctx context.Context, userID UserID, req Request, err error) {
	var ib *InsufficientBalanceError
	if errors.As(err, &ib) {
		p.logger.InfoContext(ctx, "period rejected",
			"user_id", userID,
			"category", ib.Category,
			"requested", ib.Requested,
			"available", ib.Available,
		)
		return
	}
	p.logger.DebugContext(ctx, "period request invalid", "user_id", userID,
		"category", req.Category, "err", err)
}

func (p *Planner) storageErr(op string, userID UserID, err error) error {
	p.logger.Warn("store failure", "op", op, "user_id", userID, "err", err)
	return &generic.StorageError{Op: op, Err: err}
}

// =============================================================================
// PER-USER LOCKS
// =============================================================================

type userLocks struct {
	mu sync.Mutex
	m  map[UserID]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

// lock blocks until the user's lock is held and returns its release func.
// Entries are dropped once no goroutine holds or waits on them.
func (l *userLocks) lock(userID UserID) func() {
	l.mu.Lock()
	ul, ok := l.m[userID]
	if !ok {
		ul = &userLock{}
		l.m[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.Lock()
	return func() {
		ul.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.m, userID)
		}
		l.mu.Unlock()
	}
}

// Package leave implements personal leave accounting: the working-day cost
// of a period, per-category balances against a quota, and the admission rule
// that keeps capped categories within their allotment.
package leave

import (
	"fmt"
	"strings"

	"github.com/warp/leave-planner/generic"
)

// =============================================================================
// CATEGORY
// =============================================================================

// Category is a leave type accounted independently. The set is closed.
// Values are the storage tags.
type Category string

const (
	CategoryAnnual      Category = "vacation"     // congés payés
	CategoryCompTime    Category = "rtt"          // RTT
	CategoryUnpaid      Category = "unpaid"       // congés sans solde, uncapped
	CategoryCarriedOver Category = "previousYear" // CP N-1
)

// Categories lists every category in display order.
var Categories = []Category{CategoryAnnual, CategoryCompTime, CategoryCarriedOver, CategoryUnpaid}

var categoryAliases = map[string]Category{
	"vacation":     CategoryAnnual,
	"annual":       CategoryAnnual,
	"rtt":          CategoryCompTime,
	"comptime":     CategoryCompTime,
	"comp_time":    CategoryCompTime,
	"unpaid":       CategoryUnpaid,
	"previousyear": CategoryCarriedOver,
	"carriedover":  CategoryCarriedOver,
	"carried_over": CategoryCarriedOver,
}

// ParseCategory accepts a storage tag or one of its aliases, case-insensitively.
func ParseCategory(s string) (Category, error) {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, s)
}

func (c Category) Valid() bool {
	switch c {
	case CategoryAnnual, CategoryCompTime, CategoryUnpaid, CategoryCarriedOver:
		return true
	}
	return false
}

// Capped reports whether the category is limited by a quota allotment.
func (c Category) Capped() bool { return c != CategoryUnpaid }

// Label is the phrase used in user notices ("Pas assez de jours <label> disponibles !").
func (c Category) Label() string {
	switch c {
	case CategoryAnnual:
		return "de congés payés"
	case CategoryCompTime:
		return "de RTT"
	case CategoryCarriedOver:
		return "de CP N-1"
	case CategoryUnpaid:
		return "sans solde"
	}
	return string(c)
}

// =============================================================================
// GRANULARITY
// =============================================================================

// Granularity selects a full day or a half day. It only affects single-day periods.
type Granularity string

const (
	GranularityFull      Granularity = "full"
	GranularityMorning   Granularity = "morning"
	GranularityAfternoon Granularity = "afternoon"
)

// ParseGranularity accepts "full", "morning" or "afternoon". Empty means full.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GranularityFull, nil
	case GranularityFull, GranularityMorning, GranularityAfternoon:
		return g, nil
	}
	return "", fmt.Errorf("%w: unknown granularity %q", ErrInvalidRequest, s)
}

func (g Granularity) Valid() bool {
	return g == GranularityFull || g == GranularityMorning || g == GranularityAfternoon
}

// IsHalf reports a morning or afternoon selector.
func (g Granularity) IsHalf() bool {
	return g == GranularityMorning || g == GranularityAfternoon
}

// Weight is the cost of one working day at this granularity.
func (g Granularity) Weight() generic.Days {
	if g.IsHalf() {
		return generic.HalfDay
	}
	return generic.OneDay
}

// =============================================================================
// PERIOD
// =============================================================================

type PeriodID string

// Period is a committed leave period. It is created by Admit and never
// modified afterwards; an edit is a removal followed by a new admission.
type Period struct {
	ID          PeriodID
	Start       generic.Date
	End         generic.Date
	Category    Category
	Granularity Granularity
	WorkingDays generic.Days
	Note        string
}

func (p Period) Range() generic.Range { return generic.NewRange(p.Start, p.End) }

// Label renders the dates for display: "2 juin (matin)", "2 juin - 6 juin".
func (p Period) Label() string {
	label := generic.FormatRange(p.Start, p.End)
	if p.Start.Equal(p.End) {
		switch p.Granularity {
		case GranularityMorning:
			label += " (matin)"
		case GranularityAfternoon:
			label += " (après-midi)"
		}
	}
	return label
}

// Request is a proposed period, before admission.
type Request struct {
	Start       generic.Date
	End         generic.Date
	Category    Category
	Granularity Granularity
	Note        string
}

// Validate checks the request shape. It does not look at balances.
func (r Request) Validate() error {
	if !r.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, r.Category)
	}
	if !r.Granularity.Valid() {
		return fmt.Errorf("%w: unknown granularity %q", ErrInvalidRequest, r.Granularity)
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidRequest)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: %w (%s > %s)", ErrInvalidRequest, generic.ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// =============================================================================
// QUOTA
// =============================================================================

// Quota holds the annual allotment of each capped category. Unpaid leave has
// no allotment.
type Quota struct {
	Annual      generic.Days
	CompTime    generic.Days
	CarriedOver generic.Days
}

// DefaultQuota is used for users who never saved one.
func DefaultQuota() Quota {
	return Quota{
		Annual:      generic.DaysFromInt(25),
		CompTime:    generic.DaysFromInt(15),
		CarriedOver: generic.DaysFromInt(5),
	}
}

// Allotment returns the cap of c. ok is false for uncapped categories.
func (q Quota) Allotment(c Category) (allotment generic.Days, ok bool) {
	switch c {
	case CategoryAnnual:
		return q.Annual, true
	case CategoryCompTime:
		return q.CompTime, true
	case CategoryCarriedOver:
		return q.CarriedOver, true
	}
	return generic.ZeroDays, false
}

// Validate rejects negative allotments.
func (q Quota) Validate() error {
	for _, c := range Categories {
		if a, ok := q.Allotment(c); ok && a.IsNegative() {
			return fmt.Errorf("%w: %w: allotment for %s is negative (%s)",
				ErrInvalidQuota, generic.ErrInvalidAmount, c, a)
		}
	}
	return nil
}

// =============================================================================
// BALANCE
// =============================================================================

// CategoryBalance is the derived used/remaining pair of one category.
type CategoryBalance struct {
	Used      generic.Days
	Remaining generic.Days
}

// UsagePercent is Used as a percentage of allotment, 0 when allotment is 0.
func (b CategoryBalance) UsagePercent(allotment generic.Days) float64 {
	pct, _ := b.Used.Ratio(allotment).Shift(2).Float64()
	return pct
}

// Balance maps every category to its balance. It is never persisted.
type Balance map[Category]CategoryBalance

// For returns the balance of c, zero if absent.
func (b Balance) For(c Category) CategoryBalance { return b[c] }

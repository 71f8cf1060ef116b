/*
Package generic provides the domain-agnostic primitives of the leave planner.

KEY CONCEPTS:
  - Days: an exact quantity of days (half-day steps) backed by decimal.Decimal
  - Date: a calendar day, normalized to midnight UTC
  - Range: an inclusive span of dates with working-day counting
  - Sentinel errors shared by the domain and storage packages

DESIGN PRINCIPLES:
  1. Precision: day counts use decimal.Decimal so 24.5 + 0.5 is exactly 25
  2. Value types: Date, Range and Days are immutable values, safe to copy
  3. No domain knowledge: categories and quotas live in the leave package

USAGE:
  r := generic.NewRange(generic.NewDate(2025, time.June, 2), generic.NewDate(2025, time.June, 8))
  n := r.WorkingDays()          // 5
  d := generic.DaysFromInt(n)   // 5 days
  d = d.Add(generic.HalfDay)    // 5.5 days

SEE ALSO:
  - time.go: Date
  - period.go: Range
  - format.go: French labels
*/
package generic

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAYS - Exact quantity of days
// =============================================================================

// Days is a number of days. The zero value is 0 days.
type Days struct {
	value decimal.Decimal
}

var (
	ZeroDays = Days{}
	HalfDay  = Days{value: decimal.New(5, -1)}
	OneDay   = Days{value: decimal.NewFromInt(1)}
)

func NewDays(value float64) Days { return Days{value: decimal.NewFromFloat(value)} }
func DaysFromInt(value int) Days  { return Days{value: decimal.NewFromInt(int64(value))} }

// ParseDays parses a decimal string such as "24.5".
func ParseDays(s string) (Days, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Days{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Days{value: d}, nil
}

func (d Days) Add(o Days) Days         { return Days{value: d.value.Add(o.value)} }
func (d Days) Sub(o Days) Days         { return Days{value: d.value.Sub(o.value)} }
func (d Days) Equal(o Days) bool       { return d.value.Equal(o.value) }
func (d Days) GreaterThan(o Days) bool { return d.value.GreaterThan(o.value) }
func (d Days) IsNegative() bool        { return d.value.IsNegative() }
func (d Days) IsZero() bool            { return d.value.IsZero() }
func (d Days) String() string          { return d.value.String() }

func (d Days) Max(o Days) Days {
	if d.GreaterThan(o) {
		return d
	}
	return o
}

// Ratio returns d / total, or zero when total is zero.
func (d Days) Ratio(total Days) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return d.value.Div(total.value)
}

// MarshalJSON writes a bare JSON number.
func (d Days) MarshalJSON() ([]byte, error) {
	return []byte(d.value.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (d *Days) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
		}
		n = json.Number(s)
	}
	parsed, err := ParseDays(n.String())
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

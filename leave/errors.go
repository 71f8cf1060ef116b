package leave

import (
	"errors"
	"fmt"

	"github.com/warp/leave-planner/generic"
)

var (
	// ErrInsufficientBalance is matched by every *InsufficientBalanceError.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidRequest is returned when a period request is malformed.
	ErrInvalidRequest = errors.New("invalid period request")

	// ErrInvalidQuota is returned when a quota has a negative allotment.
	ErrInvalidQuota = errors.New("invalid quota")

	// ErrPeriodNotFound is returned when removing a period the user does not own.
	ErrPeriodNotFound = fmt.Errorf("period %w", generic.ErrNotFound)
)

// InsufficientBalanceError rejects a period that would overrun its category.
// Available is allotment minus used and may be negative if the quota was
// lowered below what is already taken.
type InsufficientBalanceError struct {
	Category  Category
	Requested generic.Days
	Available generic.Days
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: requested %v, available %v",
		e.Category, e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// Shortfall is how many days are missing.
func (e *InsufficientBalanceError) Shortfall() generic.Days {
	return e.Requested.Sub(e.Available)
}

// Notice is the message shown to the user.
func (e *InsufficientBalanceError) Notice() string {
	return fmt.Sprintf("Pas assez de jours %s disponibles !", e.Category.Label())
}

// IsClientError returns true if the error is due to the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidQuota) ||
		errors.Is(err, generic.ErrInvalidDate) ||
		errors.Is(err, generic.ErrInvalidRange)
}

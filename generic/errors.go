/*
errors.go - Sentinel errors shared across packages

ERROR CATEGORIES:
  1. Input errors - malformed dates, ranges and amounts
  2. Lookup errors - missing records
  3. Store errors - collaborator failures (retryable)

USAGE:
  Domain and store packages wrap these with context:

    return fmt.Errorf("%w: %s", generic.ErrNotFound, id)

  and callers branch with errors.Is.
*/
package generic

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidRange is returned when a range ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrInvalidAmount is returned when a day quantity cannot be parsed or is out of bounds.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable is returned when a store read or write fails.
	// The operation left no state behind and may be retried.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// StorageError records which store operation failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage unavailable: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorageUnavailable) match any StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

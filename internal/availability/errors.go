package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/tripsync/internal/calendar"
)

var (
	// ErrNotFound is returned when the referenced trip does not exist.
	ErrNotFound = errors.New("trip not found")
	// ErrAccessDenied is returned when the caller may not read or write the
	// trip, or tries to mutate another member's records.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidInput wraps every validation failure; see InputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable marks transient store I/O failures. It is the only
	// retry-safe failure.
	ErrStoreUnavailable = errors.New("availability store unavailable")
)

// InputError names the field that failed validation.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}

// PartialError reports a range application that stopped part way. Days
// before Failed were applied and stay applied.
type PartialError struct {
	Applied int
	Failed  calendar.Day
	Err     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("range stopped at %s after %d applied day(s): %v", e.Failed, e.Applied, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// Kind is the stable, presentation-safe classification of an error.
type Kind string

const (
	KindNone             Kind = ""
	KindNotFound         Kind = "not_found"
	KindAccessDenied     Kind = "access_denied"
	KindInvalidInput     Kind = "invalid_input"
	KindStoreUnavailable Kind = "store_unavailable"
	KindCanceled         Kind = "canceled"
	KindInternal         Kind = "internal"
)

// KindOf classifies err. Validation, access and existence failures are kept
// apart from transient store failures so callers know what to retry.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAccessDenied):
		return KindAccessDenied
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	default:
		return KindInternal
	}
}

// Retryable is true only for transient store failures.
func (k Kind) Retryable() bool {
	return k == KindStoreUnavailable
}

// FieldOf returns the offending field of a validation error, or "".
func FieldOf(err error) string {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr.Field
	}
	return ""
}

// storeFailure makes sure a store error carries ErrStoreUnavailable while
// leaving cancellation untouched.
func storeFailure(op string, err error) error {
	if errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

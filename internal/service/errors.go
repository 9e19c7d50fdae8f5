package service

import (
	"github.com/tripsync/internal/availability"
)

// kindedError carries a user-facing message and classifies through the
// availability sentinels, so handlers map every service error the same way.
type kindedError struct {
	msg  string
	kind error
}

func (e *kindedError) Error() string { return e.msg }

func (e *kindedError) Unwrap() error { return e.kind }

var (
	ErrTripNotFound       error = availability.ErrNotFound
	ErrUserNotFound       error = &kindedError{"user not found", availability.ErrNotFound}
	ErrPinNotFound        error = &kindedError{"pin not found", availability.ErrNotFound}
	ErrNotTripOwner       error = &kindedError{"only the trip owner can do this", availability.ErrAccessDenied}
	ErrNotPinCreator      error = &kindedError{"only the pin creator can do this", availability.ErrAccessDenied}
	ErrInvalidCredentials error = &kindedError{"invalid email or password", availability.ErrAccessDenied}
	ErrEmailTaken         error = &kindedError{"email already registered", availability.ErrInvalidInput}
	ErrAlreadyMember      error = &kindedError{"user is already a member", availability.ErrInvalidInput}
	ErrOwnerNotRemovable  error = &kindedError{"the owner cannot be removed", availability.ErrInvalidInput}
	ErrAIAPIKeyMissing    error = &kindedError{"ai api key is not configured", availability.ErrStoreUnavailable}
	ErrFlightsUnavailable error = &kindedError{"flight search is not configured", availability.ErrStoreUnavailable}
)

func invalidField(field, reason string) error {
	return &availability.InputError{Field: field, Reason: reason}
}

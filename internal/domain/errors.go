package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrProfileNotFound = errors.New("provider profile not found")
	ErrProfileExists   = errors.New("provider profile already exists")
	ErrPackageNotFound = errors.New("package not found")

	// ErrStaleStatus is returned by a conditional status write when the row's
	// status no longer matches the expected source state. The caller lost a
	// race and must surface it as an invalid transition, never overwrite.
	ErrStaleStatus = errors.New("status changed concurrently")
)

// TransitionError is returned when a state transition is not allowed from the
// current verification status, including when a concurrent decision already
// moved the profile.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}

// ForbiddenError is returned when the entity is visible and the caller is
// identified, but lacks ownership, role, or trust level.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// ValidationError is returned for malformed input, such as an empty rejection
// reason or an unknown status filter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConflictError is returned when an edit is attempted while the profile is in
// a state that forbids it, e.g. onboarding changes while under review.
type ConflictError struct {
	Current Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("onboarding data is locked while status is %q", e.Current)
}

// PackageStateError is returned when a package action is not allowed from the
// package's current status (e.g. publishing a PAUSED package).
type PackageStateError struct {
	Action  string
	Current PackageStatus
}

func (e *PackageStateError) Error() string {
	return fmt.Sprintf("cannot %s a package in status %q", e.Action, e.Current)
}

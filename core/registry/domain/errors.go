package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDuplicateProfile = errors.New("profile with the requested email already exists")
	ErrInvalidData      = errors.New("invalid data provided for registry operations")
	ErrUnhandled        = errors.New("unexpected error")
	ErrProfileNotFound  = errors.New("profile not found")

	// ErrBusy means a submission is already in flight; the registry accepts
	// one mutation at a time.
	ErrBusy = errors.New("another submission is still in progress")

	// ErrStaleSubmission means the form was reset (edit started or cancelled)
	// while the submission's photo was being encoded; the result is discarded.
	ErrStaleSubmission = errors.New("submission superseded by a form reset")

	ErrNotEditing       = errors.New("no edit in progress for the requested profile")
	ErrNoPendingRemoval = errors.New("no removal pending for the requested profile")
)

// FieldErrorCode identifies why a single field failed validation.
type FieldErrorCode string

const (
	FieldRequired        FieldErrorCode = "required"
	FieldInvalidFormat   FieldErrorCode = "invalid_format"
	FieldDuplicate       FieldErrorCode = "duplicate"
	FieldTooMany         FieldErrorCode = "too_many"
	FieldTooLarge        FieldErrorCode = "too_large"
	FieldUnsupportedType FieldErrorCode = "unsupported_type"
	FieldReadError       FieldErrorCode = "read_error"
)

// FieldErrors maps field name to the reason it was rejected. Every rule is
// evaluated independently so the caller sees all failures at once, not just
// the first.
type FieldErrors map[string]FieldErrorCode

// ValidationError carries the per-field outcome of a failed submission.
// It unwraps to ErrInvalidData so callers can keep matching on the sentinel.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// Unwrap lets callers match the sentinels: every ValidationError is
// ErrInvalidData, and one carrying a duplicate email is also
// ErrDuplicateProfile.
func (e *ValidationError) Unwrap() []error {
	errs := []error{ErrInvalidData}
	for _, code := range e.Fields {
		if code == FieldDuplicate {
			errs = append(errs, ErrDuplicateProfile)
			break
		}
	}
	return errs
}

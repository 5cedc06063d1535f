package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the model package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrEmptyID is returned when an entity carries an empty identity field.
	ErrEmptyID = errors.New("id is required")

	// ErrNegativeDuration is returned when a duration field is negative.
	ErrNegativeDuration = errors.New("duration must be >= 0")

	// ErrInvalidStatus is returned when a status value is not a known enum member.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidShardIndex is returned when a shard index is not positive.
	ErrInvalidShardIndex = errors.New("shard index must be >= 1")

	// ErrInvalidWorkerID is returned when a worker id is below the legal floor.
	ErrInvalidWorkerID = errors.New("worker id must be >= -1")

	// ErrInvalidRate is returned when a rate field falls outside [0, 1].
	ErrInvalidRate = errors.New("rate must be in [0, 1]")

	// ErrInvalidTimestamp is returned when a timestamp fails RFC3339 parsing.
	ErrInvalidTimestamp = errors.New("timestamp is not well-formed RFC3339")

	// ErrDuplicateFile is returned when a file path appears in more than one
	// shard assignment within a single plan.
	ErrDuplicateFile = errors.New("file appears in more than one assignment")

	// ErrIsFlakyInvariant is returned when isFlaky disagrees with status/retries.
	ErrIsFlakyInvariant = errors.New("isFlaky must hold iff status=passed and retries>0")

	// ErrEmptyShardPlan is returned when a plan has no assignments at all.
	ErrEmptyShardPlan = errors.New("shard plan has no assignments")
)

// ValidationError is the structured diagnostic returned when an entity fails
// its value constraints. It names the offending field so a caller can surface
// a precise, actionable message instead of a bare error string.
type ValidationError struct {
	// Entity is the type name being validated (e.g. "TestResult").
	Entity string

	// Field is the offending field, empty when the error concerns the whole entity.
	Field string

	// Err is the underlying sentinel or wrapped error.
	Err error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", e.Entity, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// newValidationError builds a ValidationError with the given context.
func newValidationError(entity, field string, err error) *ValidationError {
	return &ValidationError{Entity: entity, Field: field, Err: err}
}

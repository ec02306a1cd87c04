/*
errors.go - Centralized error types for entity persistence

PURPOSE:
  All persistence-layer error types in one place. Callers distinguish the
  fatal integrity classes (identity collision, immutable mutation, temporal
  inconsistency, connection misuse) from ordinary store failures with
  errors.Is / errors.As.

SEE ALSO:
  - save.go: raises the immutable and validation errors
  - store.go: raises collision and connection errors
*/
package item

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingIdentity is returned when an entity lacks the parameters
	// needed to compute its composite identity key.
	ErrMissingIdentity = errors.New("missing identity parameters")

	// ErrImmutableField is returned when a save would change id or
	// creation_date after they were persisted with a non-null value.
	// Entities are never re-identified or re-dated. Non-retryable.
	ErrImmutableField = errors.New("immutable field changed")

	// ErrIdentityCollision is returned by Load when more than one stored
	// document shares an identity key. Fatal data-integrity bug.
	ErrIdentityCollision = errors.New("identity key collision")

	// ErrTemporalInconsistency is returned by validation when an
	// observation timestamp precedes the entity's creation time.
	ErrTemporalInconsistency = errors.New("observation precedes entity creation")

	// ErrConnMismatch is returned when the shared connection is released
	// more times than it was acquired. Fatal usage error.
	ErrConnMismatch = errors.New("mismatched connection open and close calls")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ImmutableFieldError reports which reserved field a save tried to rewrite.
type ImmutableFieldError struct {
	Field string
	Old   any
	New   any
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("immutable field %q changed: %v -> %v", e.Field, e.Old, e.New)
}

func (e *ImmutableFieldError) Unwrap() error { return ErrImmutableField }

// TemporalInconsistencyError reports a seen-date that lands before the
// entity existed - a clock-skew or replay defect, not a legitimate state.
type TemporalInconsistencyError struct {
	Field        string
	Observed     time.Time
	CreationDate time.Time
}

func (e *TemporalInconsistencyError) Error() string {
	return fmt.Sprintf("%s %s precedes entity creation %s",
		e.Field, e.Observed.Format(time.RFC3339), e.CreationDate.Format(time.RFC3339))
}

func (e *TemporalInconsistencyError) Unwrap() error { return ErrTemporalInconsistency }

/*
errors.go - Centralized error types for the calendar core

PURPOSE:
  Structural invariant violations raised by the aggregator. These are
  programmer or data-integrity bugs, not user-recoverable conditions:
  they abort the current listing's cycle and must not leak into other
  listings' cycles.

  Recoverable conditions (missing price, incomplete day history) are NOT
  errors here - they degrade to nulled statistics and diagnostic strings
  on the owning Month.
*/
package calendar

import (
	"errors"
	"fmt"
)

var (
	// ErrMonthConsistency is returned when a Month's day set violates a
	// structural invariant (day/month mismatch, day count > 31).
	ErrMonthConsistency = errors.New("month consistency violation")

	// ErrMissingTimeZone is returned when inference runs on a day whose
	// time zone was never set.
	ErrMissingTimeZone = errors.New("day has no time zone")
)

// MonthConsistencyError reports which invariant a day set broke.
type MonthConsistencyError struct {
	MonthID string
	Detail  string
}

func (e *MonthConsistencyError) Error() string {
	return fmt.Sprintf("month %s: %s", e.MonthID, e.Detail)
}

func (e *MonthConsistencyError) Unwrap() error { return ErrMonthConsistency }

/*
errors.go - Error types for the pricing engine

ERROR CATEGORIES:
  1. Validation errors - malformed input to a constructor or to Calculate
  2. Collaborator errors - returned by a RateProvider and propagated as-is

Validation failures are raised before any work is done, so a failed call
never yields a partial result.

USAGE:
  if errors.Is(err, pricing.ErrValidation) {
      // reject the request
  }

  var verr *pricing.ValidationError
  if errors.As(err, &verr) {
      log.Printf("bad field %s", verr.Field)
  }
*/
package pricing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrNonPositivePremium is returned when adjustments would push the final
	// premium to zero or below.
	ErrNonPositivePremium = fmt.Errorf("%w: final premium must be positive", ErrValidation)
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

/*
errors.go - Error types for the policy lifecycle

ERROR CATEGORIES:
  1. Validation errors - malformed constructor input (pricing.ErrValidation)
  2. State-transition errors - operation not allowed from the current state
  3. Not-found errors - raised by collaborators, propagated unchanged
  4. Store conflicts - a conditional write lost a race

USAGE:
  var terr *policy.TransitionError
  if errors.As(err, &terr) {
      log.Printf("policy is %s, cannot %s", terr.Current, terr.Attempted)
  }

SEE ALSO:
  - pricing/errors.go: ValidationError
  - api/handlers.go: maps these kinds to HTTP status codes
*/
package policy

import (
	"errors"
	"fmt"

	"github.com/warp/premium-engine/pricing"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTransition is the root of every TransitionError.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrPolicyNotFound is returned when a referenced policy doesn't exist.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrSnapshotNotFound is returned when a policy has no pricing snapshot.
	ErrSnapshotNotFound = errors.New("pricing snapshot not found")

	// ErrBuildingNotFound is returned when a policy's building doesn't exist.
	ErrBuildingNotFound = errors.New("building not found")

	// ErrSnapshotExists is returned when a second snapshot is written for a policy.
	ErrSnapshotExists = errors.New("pricing snapshot already exists")

	// ErrDuplicatePolicyNumber is returned when a policy number is reused.
	ErrDuplicatePolicyNumber = errors.New("duplicate policy number")

	// ErrConcurrentModification is returned when a conditional write finds the
	// policy is no longer in the state the caller loaded it in.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// Transition names a lifecycle operation.
type Transition string

const (
	TransitionActivate Transition = "activate"
	TransitionCancel   Transition = "cancel"
	TransitionExpire   Transition = "expire"
)

// TransitionError reports an operation attempted from a state that does not
// permit it.
type TransitionError struct {
	PolicyID  ID
	Current   Status
	Attempted Transition
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s policy %s in status %s", e.Attempted, e.PolicyID, e.Current)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPolicyNotFound) ||
		errors.Is(err, ErrSnapshotNotFound) ||
		errors.Is(err, ErrBuildingNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, pricing.ErrValidation)
}

// IsConflict returns true if the error is a state or write conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrSnapshotExists) ||
		errors.Is(err, ErrDuplicatePolicyNumber)
}

func invalid(field, reason string) error {
	return &pricing.ValidationError{Field: field, Reason: reason}
}

/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Normalization never fails (malformed cells become zero), so the errors
  here belong to the few operations that can be refused: recording a
  payment and accepting a collection policy.

ERROR CATEGORIES:
  1. Lookup errors - A participant id that is not on the roster
  2. Validation errors - Negative payments, malformed policies
  3. Adapter errors - Unsupported workbook formats, empty rosters

USAGE:
  if err := roster.RecordPayment(id, amount); err != nil {
      if ledger.IsNotFound(err) {
          // 404
      }
  }

SEE ALSO:
  - roster.go: RecordPayment
  - policy.go: Policy.Validate
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrParticipantNotFound is returned when an id is not on the roster.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrInvalidAmount is returned when a payment target is negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidInstallment is returned for an installment index outside the plan.
	ErrInvalidInstallment = errors.New("invalid installment index")

	// ErrInvalidPolicy is returned when a collection policy cannot be used.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrEmptyRoster is returned by stores that have no snapshot loaded yet.
	ErrEmptyRoster = errors.New("no roster loaded")

	// ErrUnsupportedFormat is returned by workbook readers for unknown file types.
	ErrUnsupportedFormat = errors.New("unsupported workbook format")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParticipantNotFoundError names the id that was looked up.
type ParticipantNotFoundError struct {
	ID ParticipantID
}

func (e *ParticipantNotFoundError) Error() string {
	return fmt.Sprintf("participant not found: %d", e.ID)
}

func (e *ParticipantNotFoundError) Unwrap() error {
	return ErrParticipantNotFound
}

// PolicyError reports which policy field was rejected.
type PolicyError struct {
	Field   string
	Message string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("invalid policy: %s: %s", e.Field, e.Message)
}

func (e *PolicyError) Unwrap() error {
	return ErrInvalidPolicy
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidInstallment) ||
		errors.Is(err, ErrInvalidPolicy) ||
		errors.Is(err, ErrUnsupportedFormat)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrParticipantNotFound) ||
		errors.Is(err, ErrEmptyRoster)
}

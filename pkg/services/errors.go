// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/revisio/revisio/pkg/models"
	"github.com/revisio/revisio/pkg/nesting"
	"github.com/revisio/revisio/pkg/persistence"
)

// Business logic errors. Validation errors indicate client mistakes (400),
// conflicts indicate state-machine or dependency violations (409).
var (
	// Validation errors (400 Bad Request).
	ErrRevisionNil         = errors.New("transformation revision cannot be nil")
	ErrDuplicateVersionTag = persistence.ErrDuplicateVersionTag

	// Not found (404).
	ErrRevisionNotFound = persistence.ErrRevisionNotFound

	// Business logic conflicts (409 Conflict).
	ErrRevisionExists         = errors.New("revision id already exists")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrReleasedImmutable      = errors.New("released revisions are immutable")
	ErrRevisionInUse          = errors.New("revision is contained in an active workflow")
	ErrCyclicNesting          = nesting.ErrCyclicNesting
)

// StateTransitionError wraps state machine violations with context.
type StateTransitionError struct {
	RevisionID uuid.UUID
	From       models.State
	To         models.State
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("revision %s cannot transition from %s to %s", e.RevisionID, e.From, e.To)
}

func (e *StateTransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return true
	}

	return errors.Is(err, ErrRevisionNil) ||
		errors.Is(err, ErrDuplicateVersionTag) ||
		errors.Is(err, models.ErrBothContents) ||
		errors.Is(err, models.ErrMissingContent) ||
		errors.Is(err, models.ErrContentTypeMismatch) ||
		errors.Is(err, models.ErrInvalidTestWiring) ||
		errors.Is(err, nesting.ErrUnresolvedOperator)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrRevisionExists) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrReleasedImmutable) ||
		errors.Is(err, ErrRevisionInUse) ||
		errors.Is(err, ErrCyclicNesting)
}

// IsNotFound checks if an error should map to HTTP 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRevisionNotFound)
}

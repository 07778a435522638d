// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrRevisionNotFound indicates a transformation revision was not found
	// by the given identifier.
	ErrRevisionNotFound = errors.New("transformation revision not found")

	// ErrDuplicateVersionTag indicates another revision already carries the
	// same (revision_group_id, version_tag) pair.
	ErrDuplicateVersionTag = errors.New("version tag already exists in revision group")

	// ErrInvalidNesting indicates a closure row violating the nesting
	// invariants was handed to the store.
	ErrInvalidNesting = errors.New("invalid nesting row")
)

// RevisionError wraps revision-related errors with additional context.
type RevisionError struct {
	Op         string // Operation being performed (e.g., "Save", "GetByID", "Delete")
	RevisionID string // Revision ID if applicable
	Err        error  // Underlying error
}

func (e *RevisionError) Error() string {
	return fmt.Sprintf("%s operation failed for revision %s: %v", e.Op, e.RevisionID, e.Err)
}

func (e *RevisionError) Unwrap() error {
	return e.Err
}

func (e *RevisionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRevisionError creates a new revision error with context.
func NewRevisionError(op, revisionID string, err error) *RevisionError {
	return &RevisionError{
		Op:         op,
		RevisionID: revisionID,
		Err:        err,
	}
}

// IsRevisionNotFound checks if an error indicates a revision was not found.
func IsRevisionNotFound(err error) bool {
	return errors.Is(err, ErrRevisionNotFound)
}

// IsDuplicateVersionTag checks if an error indicates a version tag collision
// within a revision group.
func IsDuplicateVersionTag(err error) bool {
	return errors.Is(err, ErrDuplicateVersionTag)
}

package models

import "github.com/google/uuid"

// FilterParams is the immutable query contract of the registry's list
// operation. Every predicate is independently optional; an unset predicate
// imposes no constraint.
type FilterParams struct {
	Type            *Type       `json:"type,omitempty"`
	State           *State      `json:"state,omitempty"`
	Category        *string     `json:"category,omitempty"`
	RevisionGroupID *uuid.UUID  `json:"revision_group_id,omitempty"`
	IDs             []uuid.UUID `json:"ids,omitempty"`
	Names           []string    `json:"names,omitempty"`

	// IncludeDeprecated keeps DISABLED revisions in the result when no
	// explicit state predicate is set. Defaults to true.
	IncludeDeprecated bool `json:"include_deprecated"`

	// IncludeDependencies expands the result with every transformation
	// transitively reachable from matched workflows. Defaults to false.
	IncludeDependencies bool `json:"include_dependencies"`

	// Unused restricts the result to revisions not contained in any
	// workflow that is not DISABLED. Defaults to false.
	Unused bool `json:"unused"`
}

// DefaultFilterParams returns the zero filter with defaults applied.
func DefaultFilterParams() FilterParams {
	return FilterParams{IncludeDeprecated: true}
}

// Package models defines the core domain models for the transformation revision registry.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type discriminates between atomic components and composite workflows.
type Type string

const (
	TypeComponent Type = "COMPONENT" // Carries executable component code
	TypeWorkflow  Type = "WORKFLOW"  // Nests other transformation revisions as operators
)

// State represents the lifecycle state of a transformation revision.
type State string

const (
	StateDraft    State = "DRAFT"    // Editable, content may still change
	StateReleased State = "RELEASED" // Immutable, executable
	StateDisabled State = "DISABLED" // Addressable but excluded from default listings
)

// Content invariant errors.
var (
	// ErrBothContents indicates a revision carries component code and workflow content at once.
	ErrBothContents = errors.New("component code and workflow content are mutually exclusive")

	// ErrMissingContent indicates a revision carries neither component code nor workflow content.
	ErrMissingContent = errors.New("exactly one of component code or workflow content must be set")

	// ErrContentTypeMismatch indicates the content kind does not match the declared type.
	ErrContentTypeMismatch = errors.New("content does not match transformation type")
)

// TransformationRevision is a single versioned revision of a reusable
// data-processing unit. All revisions sharing a RevisionGroupID are version
// tags of the same logical transformation; (RevisionGroupID, VersionTag) is
// unique across the store.
type TransformationRevision struct {
	ID              uuid.UUID `json:"id"`
	RevisionGroupID uuid.UUID `json:"revision_group_id"`
	Name            string    `json:"name"          validate:"required,min=1"`
	Description     string    `json:"description"`
	Category        string    `json:"category"      validate:"required,min=1"`
	VersionTag      string    `json:"version_tag"   validate:"required,min=1"`
	State           State     `json:"state"         validate:"required,oneof=DRAFT RELEASED DISABLED"`
	Type            Type      `json:"type"          validate:"required,oneof=COMPONENT WORKFLOW"`
	Documentation   string    `json:"documentation"`

	// Exactly one of the two is present: ComponentCode non-empty for
	// COMPONENT revisions, WorkflowContent non-nil for WORKFLOW revisions.
	ComponentCode   string           `json:"component_code,omitempty"`
	WorkflowContent *WorkflowContent `json:"workflow_content,omitempty"`

	IOInterface IOInterface    `json:"io_interface"`
	TestWiring  map[string]any `json:"test_wiring"`

	// Stamped exactly once on the respective transition, never reset.
	ReleasedTimestamp *time.Time `json:"released_timestamp,omitempty"`
	DisabledTimestamp *time.Time `json:"disabled_timestamp,omitempty"`
}

// ValidateContent enforces the content-type invariant: a COMPONENT carries
// non-empty component code and no workflow content, a WORKFLOW carries
// workflow content and no component code.
func (tr *TransformationRevision) ValidateContent() error {
	hasCode := tr.ComponentCode != ""
	hasContent := tr.WorkflowContent != nil

	if hasCode && hasContent {
		return ErrBothContents
	}

	if !hasCode && !hasContent {
		return ErrMissingContent
	}

	switch tr.Type {
	case TypeComponent:
		if !hasCode {
			return fmt.Errorf("%w: component %s has no code", ErrContentTypeMismatch, tr.ID)
		}
	case TypeWorkflow:
		if !hasContent {
			return fmt.Errorf("%w: workflow %s has no content", ErrContentTypeMismatch, tr.ID)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrContentTypeMismatch, tr.Type)
	}

	return nil
}

// CanTransition reports whether the state machine permits moving to the
// target state. Transitions are strictly forward: DRAFT -> RELEASED -> DISABLED.
func (tr *TransformationRevision) CanTransition(to State) bool {
	switch to {
	case StateReleased:
		return tr.State == StateDraft
	case StateDisabled:
		return tr.State == StateReleased
	case StateDraft:
		return false
	}

	return false
}

// Clone returns a deep copy of the revision. Repositories hand out clones so
// callers can never mutate stored entities in place.
func (tr *TransformationRevision) Clone() *TransformationRevision {
	clone := *tr

	if tr.WorkflowContent != nil {
		clone.WorkflowContent = tr.WorkflowContent.Clone()
	}

	clone.IOInterface = tr.IOInterface.Clone()

	if tr.TestWiring != nil {
		wiring := make(map[string]any, len(tr.TestWiring))
		for k, v := range tr.TestWiring {
			wiring[k] = v
		}

		clone.TestWiring = wiring
	}

	if tr.ReleasedTimestamp != nil {
		ts := *tr.ReleasedTimestamp
		clone.ReleasedTimestamp = &ts
	}

	if tr.DisabledTimestamp != nil {
		ts := *tr.DisabledTimestamp
		clone.DisabledTimestamp = &ts
	}

	return &clone
}

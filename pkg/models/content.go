package models

import "github.com/google/uuid"

// WorkflowContent is the composition graph of a WORKFLOW revision: a set of
// operator instances, each referencing another transformation revision and
// optionally embedding that revision's own workflow body inline.
type WorkflowContent struct {
	Operators []*Operator `json:"operators"`
}

// Operator is an instance of a child transformation embedded within a
// workflow's content. The ID is unique within the owning workflow.
type Operator struct {
	ID               uuid.UUID `json:"id"`
	TransformationID uuid.UUID `json:"transformation_id"`
	Type             Type      `json:"type"       validate:"required,oneof=COMPONENT WORKFLOW"`
	Name             string    `json:"name"       validate:"required,min=1"`
	VersionTag       string    `json:"version_tag,omitempty"`

	// Content is the inline body of a nested workflow. When nil the nested
	// structure is resolved through the store via TransformationID.
	Content *WorkflowContent `json:"content,omitempty"`
}

// Clone returns a deep copy of the content.
func (wc *WorkflowContent) Clone() *WorkflowContent {
	if wc == nil {
		return nil
	}

	clone := &WorkflowContent{Operators: make([]*Operator, 0, len(wc.Operators))}

	for _, op := range wc.Operators {
		opCopy := *op
		opCopy.Content = op.Content.Clone()
		clone.Operators = append(clone.Operators, &opCopy)
	}

	return clone
}

package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Nesting invariant errors.
var (
	// ErrDepthNotPositive indicates a closure row with depth < 1.
	ErrDepthNotPositive = errors.New("nesting depth must be a positive integer")

	// ErrViaNestedMismatch indicates a depth-1 row whose via and nested
	// identities differ, or a deeper row whose identities collapse.
	ErrViaNestedMismatch = errors.New("via and nested identity must coincide exactly at depth 1")
)

// Nesting is one closure-table row: a transformation reachable inside a
// workflow's transitive composition graph. Via identifies the direct child
// operator of WorkflowID through which the nested transformation is reached;
// at depth 1 the direct child is the nested entity itself.
//
// (WorkflowID, ViaOperatorID, Depth, NestedOperatorID) uniquely identifies a
// row. The table is fully derived data, reconstructible from the owning
// workflow's content.
type Nesting struct {
	WorkflowID             uuid.UUID `json:"workflow_id"`
	ViaTransformationID    uuid.UUID `json:"via_transformation_id"`
	ViaOperatorID          uuid.UUID `json:"via_operator_id"`
	Depth                  int       `json:"depth"`
	NestedTransformationID uuid.UUID `json:"nested_transformation_id"`
	NestedOperatorID       uuid.UUID `json:"nested_operator_id"`
}

// Validate enforces the depth and depth/identity coupling invariants.
func (n Nesting) Validate() error {
	if n.Depth < 1 {
		return fmt.Errorf("%w: got %d", ErrDepthNotPositive, n.Depth)
	}

	directIdentity := n.ViaTransformationID == n.NestedTransformationID &&
		n.ViaOperatorID == n.NestedOperatorID

	if (n.Depth == 1) != directIdentity {
		return fmt.Errorf("%w: depth %d, via %s/%s, nested %s/%s",
			ErrViaNestedMismatch, n.Depth,
			n.ViaTransformationID, n.ViaOperatorID,
			n.NestedTransformationID, n.NestedOperatorID)
	}

	return nil
}

// Descendant is a single reachable transformation returned by closure
// queries, identified by its operator instance and nesting depth.
type Descendant struct {
	Depth            int       `json:"depth"`
	TransformationID uuid.UUID `json:"transformation_id"`
	OperatorID       uuid.UUID `json:"operator_id"`
}

// Package web provides HTTP handlers and REST API endpoints for the
// transformation revision registry.
package web

import (
	"github.com/google/uuid"

	"github.com/revisio/revisio/pkg/models"
)

// CreateRevisionRequest represents the request body for creating a new
// transformation revision. State is server-assigned: new revisions always
// start as DRAFT.
type CreateRevisionRequest struct {
	Name            string                  `json:"name"        validate:"required,min=1"`
	Description     string                  `json:"description"`
	Category        string                  `json:"category"    validate:"required,min=1"`
	VersionTag      string                  `json:"version_tag" validate:"required,min=1"`
	Type            models.Type             `json:"type"        validate:"required,oneof=COMPONENT WORKFLOW"`
	Documentation   string                  `json:"documentation"`
	RevisionGroupID *uuid.UUID              `json:"revision_group_id,omitempty"`
	ComponentCode   string                  `json:"component_code,omitempty"`
	WorkflowContent *models.WorkflowContent `json:"workflow_content,omitempty"`
	IOInterface     models.IOInterface      `json:"io_interface"`
	TestWiring      map[string]any          `json:"test_wiring,omitempty"`
}

// ToModel builds the revision the service will persist. The lifecycle fields
// are left for the service to assign.
func (r CreateRevisionRequest) ToModel() *models.TransformationRevision {
	revision := &models.TransformationRevision{
		Name:            r.Name,
		Description:     r.Description,
		Category:        r.Category,
		VersionTag:      r.VersionTag,
		Type:            r.Type,
		Documentation:   r.Documentation,
		ComponentCode:   r.ComponentCode,
		WorkflowContent: r.WorkflowContent,
		IOInterface:     r.IOInterface,
		TestWiring:      r.TestWiring,
	}

	if r.RevisionGroupID != nil {
		revision.RevisionGroupID = *r.RevisionGroupID
	}

	return revision
}

// UpdateRevisionRequest represents the request body for replacing the content
// of a DRAFT revision. Identity, type and state cannot be changed through an
// update.
type UpdateRevisionRequest struct {
	Name            string                  `json:"name"        validate:"required,min=1"`
	Description     string                  `json:"description"`
	Category        string                  `json:"category"    validate:"required,min=1"`
	VersionTag      string                  `json:"version_tag" validate:"required,min=1"`
	Documentation   string                  `json:"documentation"`
	ComponentCode   string                  `json:"component_code,omitempty"`
	WorkflowContent *models.WorkflowContent `json:"workflow_content,omitempty"`
	IOInterface     models.IOInterface      `json:"io_interface"`
	TestWiring      map[string]any          `json:"test_wiring,omitempty"`
}

func (r UpdateRevisionRequest) ToModel() *models.TransformationRevision {
	return &models.TransformationRevision{
		Name:            r.Name,
		Description:     r.Description,
		Category:        r.Category,
		VersionTag:      r.VersionTag,
		Documentation:   r.Documentation,
		ComponentCode:   r.ComponentCode,
		WorkflowContent: r.WorkflowContent,
		IOInterface:     r.IOInterface,
		TestWiring:      r.TestWiring,
	}
}

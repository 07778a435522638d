// Package persistence provides the data storage abstraction layer for
// transformation revisions and their nesting closure.
package persistence

import (
	"context"

	"github.com/google/uuid"

	"github.com/revisio/revisio/pkg/models"
)

// RevisionRepository owns all TransformationRevision rows. No other component
// mutates them directly.
type RevisionRepository interface {
	// Save upserts a revision and atomically replaces its closure rows:
	// either the revision and every row persist, or neither does. For
	// component revisions closure is empty. Violating the
	// (revision_group_id, version_tag) uniqueness invariant surfaces
	// ErrDuplicateVersionTag.
	Save(ctx context.Context, revision *models.TransformationRevision, closure []models.Nesting) error

	// GetByID returns the revision or (nil, nil) when the id is unknown.
	GetByID(ctx context.Context, id uuid.UUID) (*models.TransformationRevision, error)

	// List applies the scalar/set predicates of the filter (phase 1).
	// Dependency expansion and the unused restriction are layered on top by
	// the service.
	List(ctx context.Context, params models.FilterParams) ([]*models.TransformationRevision, error)

	// Delete removes a revision together with the closure rows it owns.
	Delete(ctx context.Context, id uuid.UUID) error
}

// NestingRepository reads the derived closure table. Writes happen only
// through RevisionRepository.Save.
type NestingRepository interface {
	// Descendants returns every transformation reachable from the workflow,
	// any depth, ordered by (depth, nested operator id).
	Descendants(ctx context.Context, workflowID uuid.UUID) ([]models.Descendant, error)

	// Ancestors returns the distinct workflows whose closure contains the
	// transformation at any depth.
	Ancestors(ctx context.Context, transformationID uuid.UUID) ([]uuid.UUID, error)

	// Rows returns the raw closure rows of a workflow, ordered like
	// Descendants.
	Rows(ctx context.Context, workflowID uuid.UUID) ([]models.Nesting, error)
}

type Persistence interface {
	RevisionRepository() RevisionRepository
	NestingRepository() NestingRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

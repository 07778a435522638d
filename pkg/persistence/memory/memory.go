// Package memory provides an in-memory persistence implementation, used by
// unit tests and as a lightweight backend for local development.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/revisio/revisio/pkg/models"
	"github.com/revisio/revisio/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface with maps
// guarded by a single RWMutex. Mutations are atomic under the write lock, so
// a revision and its closure rows always change together.
type Persistence struct {
	mu        sync.RWMutex
	revisions map[uuid.UUID]*models.TransformationRevision
	nestings  map[uuid.UUID][]models.Nesting

	revisionRepo *RevisionRepository
	nestingRepo  *NestingRepository
}

// NewPersistence creates an empty in-memory persistence layer.
func NewPersistence() *Persistence {
	p := &Persistence{
		revisions: make(map[uuid.UUID]*models.TransformationRevision),
		nestings:  make(map[uuid.UUID][]models.Nesting),
	}
	p.revisionRepo = &RevisionRepository{store: p}
	p.nestingRepo = &NestingRepository{store: p}

	return p
}

func (p *Persistence) RevisionRepository() persistence.RevisionRepository {
	return p.revisionRepo
}

func (p *Persistence) NestingRepository() persistence.NestingRepository {
	return p.nestingRepo
}

// HealthCheck always succeeds for the in-memory store.
func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

// Close discards nothing; data lives only as long as the process.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// RevisionRepository handles revision operations against the in-memory store.
type RevisionRepository struct {
	store *Persistence
}

// Save upserts a revision and replaces its closure rows under one write lock.
// Invariants are checked up front so a failed save leaves both maps untouched.
func (r *RevisionRepository) Save(_ context.Context, revision *models.TransformationRevision, closure []models.Nesting) error {
	p := r.store

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.revisions {
		if existing.ID != revision.ID &&
			existing.RevisionGroupID == revision.RevisionGroupID &&
			existing.VersionTag == revision.VersionTag {
			return persistence.NewRevisionError("Save", revision.ID.String(), persistence.ErrDuplicateVersionTag)
		}
	}

	// Same key as the SQL primary key, so both backends reject the same rows.
	type rowKey struct {
		viaOperatorID    uuid.UUID
		depth            int
		nestedOperatorID uuid.UUID
	}

	seen := make(map[rowKey]struct{}, len(closure))

	for _, row := range closure {
		if row.WorkflowID != revision.ID {
			return fmt.Errorf("%w: row belongs to workflow %s, saving %s",
				persistence.ErrInvalidNesting, row.WorkflowID, revision.ID)
		}

		if err := row.Validate(); err != nil {
			return fmt.Errorf("%w: %w", persistence.ErrInvalidNesting, err)
		}

		key := rowKey{row.ViaOperatorID, row.Depth, row.NestedOperatorID}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate row for operator %s at depth %d",
				persistence.ErrInvalidNesting, row.NestedOperatorID, row.Depth)
		}

		seen[key] = struct{}{}
	}

	p.revisions[revision.ID] = revision.Clone()
	p.nestings[revision.ID] = slices.Clone(closure)

	return nil
}

// GetByID returns a copy of the revision, or (nil, nil) when absent.
func (r *RevisionRepository) GetByID(_ context.Context, id uuid.UUID) (*models.TransformationRevision, error) {
	p := r.store

	p.mu.RLock()
	defer p.mu.RUnlock()

	revision, ok := p.revisions[id]
	if !ok {
		return nil, nil
	}

	return revision.Clone(), nil
}

// List applies the scalar and set predicates of the filter.
func (r *RevisionRepository) List(_ context.Context, params models.FilterParams) ([]*models.TransformationRevision, error) {
	p := r.store

	p.mu.RLock()
	defer p.mu.RUnlock()

	matches := make([]*models.TransformationRevision, 0)

	for _, revision := range p.revisions {
		if !matchesFilter(revision, params) {
			continue
		}

		matches = append(matches, revision.Clone())
	}

	// Stable iteration order for callers that do not re-sort.
	sort.Slice(matches, func(i, j int) bool {
		return strings.Compare(matches[i].ID.String(), matches[j].ID.String()) < 0
	})

	return matches, nil
}

// Delete removes the revision and the closure rows it owns.
func (r *RevisionRepository) Delete(_ context.Context, id uuid.UUID) error {
	p := r.store

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.revisions[id]; !ok {
		return persistence.NewRevisionError("Delete", id.String(), persistence.ErrRevisionNotFound)
	}

	delete(p.revisions, id)
	delete(p.nestings, id)

	return nil
}

func matchesFilter(revision *models.TransformationRevision, params models.FilterParams) bool {
	if params.Type != nil && revision.Type != *params.Type {
		return false
	}

	if params.State != nil {
		if revision.State != *params.State {
			return false
		}
	} else if !params.IncludeDeprecated && revision.State == models.StateDisabled {
		return false
	}

	if params.Category != nil && revision.Category != *params.Category {
		return false
	}

	if params.RevisionGroupID != nil && revision.RevisionGroupID != *params.RevisionGroupID {
		return false
	}

	if len(params.IDs) > 0 && !slices.Contains(params.IDs, revision.ID) {
		return false
	}

	if len(params.Names) > 0 && !slices.Contains(params.Names, revision.Name) {
		return false
	}

	return true
}

// NestingRepository reads the derived closure rows of the in-memory store.
type NestingRepository struct {
	store *Persistence
}

// Descendants returns all reachable transformations of a workflow.
func (r *NestingRepository) Descendants(ctx context.Context, workflowID uuid.UUID) ([]models.Descendant, error) {
	rows, err := r.Rows(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	descendants := make([]models.Descendant, 0, len(rows))
	for _, row := range rows {
		descendants = append(descendants, models.Descendant{
			Depth:            row.Depth,
			TransformationID: row.NestedTransformationID,
			OperatorID:       row.NestedOperatorID,
		})
	}

	return descendants, nil
}

// Ancestors returns the distinct workflows reaching the transformation.
func (r *NestingRepository) Ancestors(_ context.Context, transformationID uuid.UUID) ([]uuid.UUID, error) {
	p := r.store

	p.mu.RLock()
	defer p.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	ancestors := make([]uuid.UUID, 0)

	for workflowID, rows := range p.nestings {
		for _, row := range rows {
			if row.NestedTransformationID != transformationID {
				continue
			}

			if _, ok := seen[workflowID]; !ok {
				seen[workflowID] = struct{}{}
				ancestors = append(ancestors, workflowID)
			}

			break
		}
	}

	sort.Slice(ancestors, func(i, j int) bool {
		return strings.Compare(ancestors[i].String(), ancestors[j].String()) < 0
	})

	return ancestors, nil
}

// Rows returns the closure rows of a workflow ordered by depth, then nested
// operator id.
func (r *NestingRepository) Rows(_ context.Context, workflowID uuid.UUID) ([]models.Nesting, error) {
	p := r.store

	p.mu.RLock()
	defer p.mu.RUnlock()

	rows := slices.Clone(p.nestings[workflowID])

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Depth != rows[j].Depth {
			return rows[i].Depth < rows[j].Depth
		}

		return strings.Compare(rows[i].NestedOperatorID.String(), rows[j].NestedOperatorID.String()) < 0
	})

	return rows, nil
}

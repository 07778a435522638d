package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/revisio/revisio/pkg/models"
	"github.com/revisio/revisio/pkg/otelhelper"
	"github.com/revisio/revisio/pkg/persistence"
)

// Query is the read side of the registry. List runs in two phases: scalar
// predicates against the revision rows, then set-level post-processing
// (unused restriction and dependency expansion) against the closure table.
type Query struct {
	persistence persistence.Persistence
	logger      *slog.Logger
	tracer      trace.Tracer
}

func NewQuery(p persistence.Persistence, logger *slog.Logger) *Query {
	return &Query{
		persistence: p,
		logger:      logger,
		tracer:      otel.Tracer("github.com/revisio/revisio/pkg/services"),
	}
}

// List returns the revisions matching the filter, ordered by category, name,
// version tag and id. Expansion-added dependencies stay in the result even
// when they do not match the scalar predicates; DISABLED dependencies are
// never added by expansion.
func (s *Query) List(ctx context.Context, params models.FilterParams) ([]*models.TransformationRevision, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "query.list")
	defer span.End()

	matched, err := s.persistence.RevisionRepository().List(ctx, params)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if params.Unused {
		matched, err = s.restrictToUnused(ctx, matched)
		if err != nil {
			otelhelper.SetError(span, err)

			return nil, err
		}
	}

	if params.IncludeDependencies {
		matched, err = s.expandDependencies(ctx, matched)
		if err != nil {
			otelhelper.SetError(span, err)

			return nil, err
		}
	}

	sortRevisions(matched)
	span.SetAttributes(attribute.Int("revisio.query.result_count", len(matched)))

	return matched, nil
}

// Descendants returns everything transitively nested in the workflow,
// ordered by depth then operator id.
func (s *Query) Descendants(ctx context.Context, workflowID uuid.UUID) ([]models.Descendant, error) {
	workflow, err := s.getExisting(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Type != models.TypeWorkflow {
		return nil, nil
	}

	return s.persistence.NestingRepository().Descendants(ctx, workflowID)
}

// Ancestors returns the distinct workflows containing the transformation at
// any depth.
func (s *Query) Ancestors(ctx context.Context, transformationID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.getExisting(ctx, transformationID); err != nil {
		return nil, err
	}

	return s.persistence.NestingRepository().Ancestors(ctx, transformationID)
}

func (s *Query) getExisting(ctx context.Context, id uuid.UUID) (*models.TransformationRevision, error) {
	revision, err := s.persistence.RevisionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if revision == nil {
		return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, id)
	}

	return revision, nil
}

// restrictToUnused drops every revision still contained in a workflow that
// is not DISABLED. Ancestor states are resolved once per distinct workflow.
func (s *Query) restrictToUnused(ctx context.Context, revisions []*models.TransformationRevision) ([]*models.TransformationRevision, error) {
	activeAncestor := make(map[uuid.UUID]bool)

	kept := revisions[:0]

	for _, revision := range revisions {
		ancestors, err := s.persistence.NestingRepository().Ancestors(ctx, revision.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up ancestors: %w", err)
		}

		used := false

		for _, workflowID := range ancestors {
			active, seen := activeAncestor[workflowID]
			if !seen {
				workflow, err := s.persistence.RevisionRepository().GetByID(ctx, workflowID)
				if err != nil {
					return nil, err
				}

				active = workflow != nil && workflow.State != models.StateDisabled
				activeAncestor[workflowID] = active
			}

			if active {
				used = true

				break
			}
		}

		if !used {
			kept = append(kept, revision)
		}
	}

	return kept, nil
}

// expandDependencies adds every transformation reachable from the matched
// workflows. The closure is transitive, so one lookup per workflow suffices.
func (s *Query) expandDependencies(ctx context.Context, revisions []*models.TransformationRevision) ([]*models.TransformationRevision, error) {
	present := make(map[uuid.UUID]bool, len(revisions))
	for _, revision := range revisions {
		present[revision.ID] = true
	}

	result := revisions

	for _, revision := range revisions {
		if revision.Type != models.TypeWorkflow {
			continue
		}

		descendants, err := s.persistence.NestingRepository().Descendants(ctx, revision.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up descendants: %w", err)
		}

		for _, descendant := range descendants {
			if present[descendant.TransformationID] {
				continue
			}

			present[descendant.TransformationID] = true

			dependency, err := s.persistence.RevisionRepository().GetByID(ctx, descendant.TransformationID)
			if err != nil {
				return nil, err
			}

			if dependency == nil {
				s.logger.WarnContext(ctx, "closure references unknown transformation",
					"workflow_id", revision.ID, "transformation_id", descendant.TransformationID)

				continue
			}

			if dependency.State == models.StateDisabled {
				continue
			}

			result = append(result, dependency)
		}
	}

	return result, nil
}

func sortRevisions(revisions []*models.TransformationRevision) {
	sort.Slice(revisions, func(i, j int) bool {
		a, b := revisions[i], revisions[j]

		if a.Category != b.Category {
			return a.Category < b.Category
		}

		if a.Name != b.Name {
			return a.Name < b.Name
		}

		if a.VersionTag != b.VersionTag {
			return a.VersionTag < b.VersionTag
		}

		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	})
}

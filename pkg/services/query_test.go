package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revisio/revisio/pkg/models"
)

// seedCatalog builds a small catalog used across the query tests:
// a released component, a draft component, a disabled component and a
// released workflow containing the released and the disabled component.
func seedCatalog(t *testing.T, service *Revision) (released, draft, disabled, workflow *models.TransformationRevision) {
	t.Helper()

	ctx := context.Background()

	released, err := service.Create(ctx, componentRevision("Add", "Math", "1.0.0"))
	require.NoError(t, err)
	released, err = service.Release(ctx, released.ID)
	require.NoError(t, err)

	draft, err = service.Create(ctx, componentRevision("Multiply", "Math", "0.1.0"))
	require.NoError(t, err)

	disabled, err = service.Create(ctx, componentRevision("Legacy Filter", "Filters", "1.0.0"))
	require.NoError(t, err)
	_, err = service.Release(ctx, disabled.ID)
	require.NoError(t, err)
	disabled, err = service.Disable(ctx, disabled.ID)
	require.NoError(t, err)

	workflow, err = service.Create(ctx, workflowRevision("Calc", "Pipelines", "1.0.0",
		operatorFor(released), operatorFor(disabled)))
	require.NoError(t, err)
	workflow, err = service.Release(ctx, workflow.ID)
	require.NoError(t, err)

	return released, draft, disabled, workflow
}

func resultIDs(revisions []*models.TransformationRevision) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(revisions))
	for _, revision := range revisions {
		ids = append(ids, revision.ID)
	}

	return ids
}

func TestQueryListPredicates(t *testing.T) {
	ctx := context.Background()

	t.Run("default filter includes disabled revisions", func(t *testing.T) {
		service, query, _ := newTestServices(t)
		_, _, disabled, _ := seedCatalog(t, service)

		result, err := query.List(ctx, models.DefaultFilterParams())
		require.NoError(t, err)

		assert.Len(t, result, 4)
		assert.Contains(t, resultIDs(result), disabled.ID)
	})

	t.Run("include_deprecated false hides disabled revisions", func(t *testing.T) {
		service, query, _ := newTestServices(t)
		_, _, disabled, _ := seedCatalog(t, service)

		params := models.DefaultFilterParams()
		params.IncludeDeprecated = false

		result, err := query.List(ctx, params)
		require.NoError(t, err)

		assert.Len(t, result, 3)
		assert.NotContains(t, resultIDs(result), disabled.ID)
	})

	t.Run("explicit state predicate wins over include_deprecated", func(t *testing.T) {
		service, query, _ := newTestServices(t)
		_, _, disabled, _ := seedCatalog(t, service)

		state := models.StateDisabled
		params := models.DefaultFilterParams()
		params.State = &state
		params.IncludeDeprecated = false

		result, err := query.List(ctx, params)
		require.NoError(t, err)

		require.Len(t, result, 1)
		assert.Equal(t, disabled.ID, result[0].ID)
	})

	t.Run("filters by type and category", func(t *testing.T) {
		service, query, _ := newTestServices(t)
		_, _, _, workflow := seedCatalog(t, service)

		workflowType := models.TypeWorkflow
		params := models.DefaultFilterParams()
		params.Type = &workflowType

		result, err := query.List(ctx, params)
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, workflow.ID, result[0].ID)

		category := "Math"
		params = models.DefaultFilterParams()
		params.Category = &category

		result, err = query.List(ctx, params)
		require.NoError(t, err)
		assert.Len(t, result, 2)
	})

	t.Run("filters by ids and names", func(t *testing.T) {
		service, query, _ := newTestServices(t)
		released, draft, _, _ := seedCatalog(t, service)

		params := models.DefaultFilterParams()
		params.IDs = []uuid.UUID{released.ID, draft.ID}

		result, err := query.List(ctx, params)
		require.NoError(t, err)
		assert.Len(t, result, 2)

		params = models.DefaultFilterParams()
		params.Names = []string{"Add"}

		result, err = query.List(ctx, params)
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, released.ID, result[0].ID)
	})

	t.Run("orders by category, name, version tag", func(t *testing.T) {
		service, query, _ := newTestServices(t)
		seedCatalog(t, service)

		result, err := query.List(ctx, models.DefaultFilterParams())
		require.NoError(t, err)
		require.Len(t, result, 4)

		assert.Equal(t, "Filters", result[0].Category)
		assert.Equal(t, "Math", result[1].Category)
		assert.Equal(t, "Add", result[1].Name)
		assert.Equal(t, "Multiply", result[2].Name)
		assert.Equal(t, "Pipelines", result[3].Category)
	})
}

func TestQueryListIncludeDependencies(t *testing.T) {
	ctx := context.Background()
	service, query, _ := newTestServices(t)
	released, _, disabled, workflow := seedCatalog(t, service)

	state := models.StateReleased
	params := models.DefaultFilterParams()
	params.State = &state
	params.IncludeDependencies = true

	result, err := query.List(ctx, params)
	require.NoError(t, err)

	ids := resultIDs(result)
	assert.Contains(t, ids, workflow.ID)
	assert.Contains(t, ids, released.ID)
	// Disabled dependencies are never pulled in by expansion.
	assert.NotContains(t, ids, disabled.ID)
}

func TestQueryListDependencyExpansionKeepsNonMatching(t *testing.T) {
	ctx := context.Background()
	service, query, _ := newTestServices(t)

	dependency, err := service.Create(ctx, componentRevision("Add", "Math", "1.0.0"))
	require.NoError(t, err)

	workflow, err := service.Create(ctx, workflowRevision("Calc", "Pipelines", "1.0.0", operatorFor(dependency)))
	require.NoError(t, err)
	_, err = service.Release(ctx, workflow.ID)
	require.NoError(t, err)

	// The dependency is still DRAFT and would not match the state predicate
	// on its own; expansion keeps it anyway.
	state := models.StateReleased
	params := models.DefaultFilterParams()
	params.State = &state
	params.IncludeDependencies = true

	result, err := query.List(ctx, params)
	require.NoError(t, err)

	ids := resultIDs(result)
	require.Len(t, ids, 2)
	assert.Contains(t, ids, workflow.ID)
	assert.Contains(t, ids, dependency.ID)
}

func TestQueryListUnused(t *testing.T) {
	ctx := context.Background()
	service, query, _ := newTestServices(t)
	released, draft, disabled, workflow := seedCatalog(t, service)

	componentType := models.TypeComponent
	params := models.DefaultFilterParams()
	params.Type = &componentType
	params.Unused = true

	result, err := query.List(ctx, params)
	require.NoError(t, err)

	ids := resultIDs(result)
	assert.NotContains(t, ids, released.ID)
	assert.NotContains(t, ids, disabled.ID)
	assert.Contains(t, ids, draft.ID)

	// Disabling the containing workflow releases its members.
	_, err = service.Disable(ctx, workflow.ID)
	require.NoError(t, err)

	result, err = query.List(ctx, params)
	require.NoError(t, err)

	ids = resultIDs(result)
	assert.Contains(t, ids, released.ID)
	assert.Contains(t, ids, disabled.ID)
}

func TestQueryDescendantsAndAncestors(t *testing.T) {
	ctx := context.Background()
	service, query, _ := newTestServices(t)
	released, _, disabled, workflow := seedCatalog(t, service)

	t.Run("descendants of a workflow", func(t *testing.T) {
		descendants, err := query.Descendants(ctx, workflow.ID)
		require.NoError(t, err)
		require.Len(t, descendants, 2)

		seen := make(map[uuid.UUID]int)
		for _, descendant := range descendants {
			seen[descendant.TransformationID] = descendant.Depth
		}

		assert.Equal(t, 1, seen[released.ID])
		assert.Equal(t, 1, seen[disabled.ID])
	})

	t.Run("descendants of a component are empty", func(t *testing.T) {
		descendants, err := query.Descendants(ctx, released.ID)
		require.NoError(t, err)
		assert.Empty(t, descendants)
	})

	t.Run("ancestors of a contained component", func(t *testing.T) {
		ancestors, err := query.Ancestors(ctx, released.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{workflow.ID}, ancestors)
	})

	t.Run("unknown ids are reported", func(t *testing.T) {
		_, err := query.Descendants(ctx, uuid.New())
		require.ErrorIs(t, err, ErrRevisionNotFound)

		_, err = query.Ancestors(ctx, uuid.New())
		require.ErrorIs(t, err, ErrRevisionNotFound)
	})
}

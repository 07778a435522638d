package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revisio/revisio/pkg/models"
	"github.com/revisio/revisio/pkg/persistence"
)

func testRevision(name, category, tag string) *models.TransformationRevision {
	return &models.TransformationRevision{
		ID:              uuid.New(),
		RevisionGroupID: uuid.New(),
		Name:            name,
		Category:        category,
		VersionTag:      tag,
		State:           models.StateDraft,
		Type:            models.TypeComponent,
		ComponentCode:   "def main():\n    pass\n",
	}
}

func directRow(workflowID uuid.UUID) models.Nesting {
	transformationID := uuid.New()
	operatorID := uuid.New()

	return models.Nesting{
		WorkflowID:             workflowID,
		ViaTransformationID:    transformationID,
		ViaOperatorID:          operatorID,
		Depth:                  1,
		NestedTransformationID: transformationID,
		NestedOperatorID:       operatorID,
	}
}

func TestSaveAndGetByID(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence()

	revision := testRevision("Add", "Math", "1.0.0")
	require.NoError(t, p.RevisionRepository().Save(ctx, revision, nil))

	loaded, err := p.RevisionRepository().GetByID(ctx, revision.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, revision.Name, loaded.Name)

	// The store hands out copies, not aliases.
	loaded.Name = "Mutated"

	again, err := p.RevisionRepository().GetByID(ctx, revision.ID)
	require.NoError(t, err)
	assert.Equal(t, "Add", again.Name)
}

func TestGetByIDUnknown(t *testing.T) {
	p := NewPersistence()

	loaded, err := p.RevisionRepository().GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveDuplicateVersionTag(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence()

	first := testRevision("Add", "Math", "1.0.0")
	require.NoError(t, p.RevisionRepository().Save(ctx, first, nil))

	duplicate := testRevision("Add", "Math", "1.0.0")
	duplicate.RevisionGroupID = first.RevisionGroupID

	err := p.RevisionRepository().Save(ctx, duplicate, nil)
	require.ErrorIs(t, err, persistence.ErrDuplicateVersionTag)
	assert.True(t, persistence.IsDuplicateVersionTag(err))

	// Re-saving the same revision is an upsert, not a duplicate.
	first.Description = "updated"
	require.NoError(t, p.RevisionRepository().Save(ctx, first, nil))
}

func TestSaveRejectsInvalidClosure(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence()

	revision := testRevision("Calc", "Pipelines", "1.0.0")

	t.Run("row owned by another workflow", func(t *testing.T) {
		foreign := directRow(uuid.New())

		err := p.RevisionRepository().Save(ctx, revision, []models.Nesting{foreign})
		require.ErrorIs(t, err, persistence.ErrInvalidNesting)
	})

	t.Run("duplicate rows for the same operator", func(t *testing.T) {
		// Two operators sharing an id collapse to identical rows; the SQL
		// backend rejects them on its primary key, so this store must too.
		row := directRow(revision.ID)

		err := p.RevisionRepository().Save(ctx, revision, []models.Nesting{row, row})
		require.ErrorIs(t, err, persistence.ErrInvalidNesting)

		loaded, err := p.RevisionRepository().GetByID(ctx, revision.ID)
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("row violating the depth coupling", func(t *testing.T) {
		bad := directRow(revision.ID)
		bad.NestedOperatorID = uuid.New()

		err := p.RevisionRepository().Save(ctx, revision, []models.Nesting{bad})
		require.ErrorIs(t, err, persistence.ErrInvalidNesting)

		// Nothing was stored.
		loaded, err := p.RevisionRepository().GetByID(ctx, revision.ID)
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})
}

func TestSaveReplacesClosure(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence()

	revision := testRevision("Calc", "Pipelines", "1.0.0")
	first := directRow(revision.ID)
	require.NoError(t, p.RevisionRepository().Save(ctx, revision, []models.Nesting{first}))

	second := directRow(revision.ID)
	require.NoError(t, p.RevisionRepository().Save(ctx, revision, []models.Nesting{second}))

	rows, err := p.NestingRepository().Rows(ctx, revision.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.NestedOperatorID, rows[0].NestedOperatorID)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence()

	revision := testRevision("Add", "Math", "1.0.0")
	require.NoError(t, p.RevisionRepository().Save(ctx, revision, []models.Nesting{directRow(revision.ID)}))

	require.NoError(t, p.RevisionRepository().Delete(ctx, revision.ID))

	loaded, err := p.RevisionRepository().GetByID(ctx, revision.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	rows, err := p.NestingRepository().Rows(ctx, revision.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	err = p.RevisionRepository().Delete(ctx, revision.ID)
	require.ErrorIs(t, err, persistence.ErrRevisionNotFound)
	assert.True(t, persistence.IsRevisionNotFound(err))
}

func TestListFiltering(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence()

	componentA := testRevision("Add", "Math", "1.0.0")
	componentB := testRevision("Multiply", "Math", "1.0.0")
	componentB.State = models.StateReleased

	disabled := testRevision("Old", "Legacy", "0.9.0")
	disabled.State = models.StateDisabled

	for _, revision := range []*models.TransformationRevision{componentA, componentB, disabled} {
		require.NoError(t, p.RevisionRepository().Save(ctx, revision, nil))
	}

	t.Run("no predicates with include_deprecated", func(t *testing.T) {
		result, err := p.RevisionRepository().List(ctx, models.DefaultFilterParams())
		require.NoError(t, err)
		assert.Len(t, result, 3)
	})

	t.Run("exclude deprecated", func(t *testing.T) {
		params := models.DefaultFilterParams()
		params.IncludeDeprecated = false

		result, err := p.RevisionRepository().List(ctx, params)
		require.NoError(t, err)
		assert.Len(t, result, 2)
	})

	t.Run("state predicate", func(t *testing.T) {
		state := models.StateReleased
		params := models.DefaultFilterParams()
		params.State = &state

		result, err := p.RevisionRepository().List(ctx, params)
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, componentB.ID, result[0].ID)
	})

	t.Run("category predicate", func(t *testing.T) {
		category := "Legacy"
		params := models.DefaultFilterParams()
		params.Category = &category

		result, err := p.RevisionRepository().List(ctx, params)
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, disabled.ID, result[0].ID)
	})

	t.Run("revision group predicate", func(t *testing.T) {
		params := models.DefaultFilterParams()
		params.RevisionGroupID = &componentA.RevisionGroupID

		result, err := p.RevisionRepository().List(ctx, params)
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, componentA.ID, result[0].ID)
	})

	t.Run("ids and names predicates", func(t *testing.T) {
		params := models.DefaultFilterParams()
		params.IDs = []uuid.UUID{componentA.ID, disabled.ID}

		result, err := p.RevisionRepository().List(ctx, params)
		require.NoError(t, err)
		assert.Len(t, result, 2)

		params = models.DefaultFilterParams()
		params.Names = []string{"Multiply", "Old"}

		result, err = p.RevisionRepository().List(ctx, params)
		require.NoError(t, err)
		assert.Len(t, result, 2)
	})
}

func TestNestingQueries(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence()

	workflowA := testRevision("A", "Pipelines", "1.0.0")
	workflowA.Type = models.TypeWorkflow
	workflowA.ComponentCode = ""
	workflowA.WorkflowContent = &models.WorkflowContent{}

	sharedTransformation := uuid.New()

	rowA := directRow(workflowA.ID)
	rowA.ViaTransformationID = sharedTransformation
	rowA.NestedTransformationID = sharedTransformation

	require.NoError(t, p.RevisionRepository().Save(ctx, workflowA, []models.Nesting{rowA}))

	workflowB := testRevision("B", "Pipelines", "1.0.0")
	workflowB.Type = models.TypeWorkflow
	workflowB.ComponentCode = ""
	workflowB.WorkflowContent = &models.WorkflowContent{}

	rowB := directRow(workflowB.ID)
	rowB.ViaTransformationID = sharedTransformation
	rowB.NestedTransformationID = sharedTransformation

	require.NoError(t, p.RevisionRepository().Save(ctx, workflowB, []models.Nesting{rowB}))

	descendants, err := p.NestingRepository().Descendants(ctx, workflowA.ID)
	require.NoError(t, err)
	require.Len(t, descendants, 1)
	assert.Equal(t, sharedTransformation, descendants[0].TransformationID)

	ancestors, err := p.NestingRepository().Ancestors(ctx, sharedTransformation)
	require.NoError(t, err)
	assert.Len(t, ancestors, 2)
	assert.Contains(t, ancestors, workflowA.ID)
	assert.Contains(t, ancestors, workflowB.ID)

	none, err := p.NestingRepository().Ancestors(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name     string
		revision TransformationRevision
		wantErr  error
	}{
		{
			name: "component with code",
			revision: TransformationRevision{
				Type:          TypeComponent,
				ComponentCode: "def main():\n    pass\n",
			},
		},
		{
			name: "workflow with content",
			revision: TransformationRevision{
				Type:            TypeWorkflow,
				WorkflowContent: &WorkflowContent{},
			},
		},
		{
			name: "both contents",
			revision: TransformationRevision{
				Type:            TypeComponent,
				ComponentCode:   "code",
				WorkflowContent: &WorkflowContent{},
			},
			wantErr: ErrBothContents,
		},
		{
			name:     "neither content",
			revision: TransformationRevision{Type: TypeComponent},
			wantErr:  ErrMissingContent,
		},
		{
			name: "component carrying workflow content",
			revision: TransformationRevision{
				Type:            TypeComponent,
				WorkflowContent: &WorkflowContent{},
			},
			wantErr: ErrContentTypeMismatch,
		},
		{
			name: "workflow carrying component code",
			revision: TransformationRevision{
				Type:          TypeWorkflow,
				ComponentCode: "code",
			},
			wantErr: ErrContentTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.revision.ValidateContent()
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	draft := TransformationRevision{State: StateDraft}
	released := TransformationRevision{State: StateReleased}
	disabled := TransformationRevision{State: StateDisabled}

	assert.True(t, draft.CanTransition(StateReleased))
	assert.False(t, draft.CanTransition(StateDisabled))
	assert.False(t, draft.CanTransition(StateDraft))

	assert.True(t, released.CanTransition(StateDisabled))
	assert.False(t, released.CanTransition(StateReleased))
	assert.False(t, released.CanTransition(StateDraft))

	assert.False(t, disabled.CanTransition(StateReleased))
	assert.False(t, disabled.CanTransition(StateDisabled))
	assert.False(t, disabled.CanTransition(StateDraft))
}

func TestClone(t *testing.T) {
	original := &TransformationRevision{
		ID:   uuid.New(),
		Name: "Add",
		Type: TypeWorkflow,
		WorkflowContent: &WorkflowContent{
			Operators: []*Operator{
				{ID: uuid.New(), Name: "Op"},
			},
		},
		IOInterface: IOInterface{
			Inputs: []IOConnector{{ID: uuid.New(), Name: "x", DataType: "FLOAT"}},
		},
		TestWiring: map[string]any{"input_wirings": []any{}},
	}

	clone := original.Clone()

	clone.Name = "Changed"
	clone.WorkflowContent.Operators[0].Name = "ChangedOp"
	clone.IOInterface.Inputs[0].Name = "changed"
	clone.TestWiring["extra"] = true

	assert.Equal(t, "Add", original.Name)
	assert.Equal(t, "Op", original.WorkflowContent.Operators[0].Name)
	assert.Equal(t, "x", original.IOInterface.Inputs[0].Name)
	assert.NotContains(t, original.TestWiring, "extra")
}

func TestNestingValidate(t *testing.T) {
	workflowID := uuid.New()
	viaTransformation := uuid.New()
	viaOperator := uuid.New()
	nestedTransformation := uuid.New()
	nestedOperator := uuid.New()

	t.Run("valid direct row", func(t *testing.T) {
		row := Nesting{
			WorkflowID:             workflowID,
			ViaTransformationID:    viaTransformation,
			ViaOperatorID:          viaOperator,
			Depth:                  1,
			NestedTransformationID: viaTransformation,
			NestedOperatorID:       viaOperator,
		}
		require.NoError(t, row.Validate())
	})

	t.Run("valid deep row", func(t *testing.T) {
		row := Nesting{
			WorkflowID:             workflowID,
			ViaTransformationID:    viaTransformation,
			ViaOperatorID:          viaOperator,
			Depth:                  2,
			NestedTransformationID: nestedTransformation,
			NestedOperatorID:       nestedOperator,
		}
		require.NoError(t, row.Validate())
	})

	t.Run("zero depth", func(t *testing.T) {
		row := Nesting{Depth: 0}
		require.ErrorIs(t, row.Validate(), ErrDepthNotPositive)
	})

	t.Run("direct row with diverging identities", func(t *testing.T) {
		row := Nesting{
			WorkflowID:             workflowID,
			ViaTransformationID:    viaTransformation,
			ViaOperatorID:          viaOperator,
			Depth:                  1,
			NestedTransformationID: nestedTransformation,
			NestedOperatorID:       nestedOperator,
		}
		require.ErrorIs(t, row.Validate(), ErrViaNestedMismatch)
	})

	t.Run("deep row with collapsed identities", func(t *testing.T) {
		row := Nesting{
			WorkflowID:             workflowID,
			ViaTransformationID:    viaTransformation,
			ViaOperatorID:          viaOperator,
			Depth:                  3,
			NestedTransformationID: viaTransformation,
			NestedOperatorID:       viaOperator,
		}
		require.ErrorIs(t, row.Validate(), ErrViaNestedMismatch)
	})
}

func TestValidateTestWiring(t *testing.T) {
	t.Run("nil wiring is valid", func(t *testing.T) {
		require.NoError(t, ValidateTestWiring(nil))
	})

	t.Run("valid wiring", func(t *testing.T) {
		wiring := map[string]any{
			"input_wirings": []any{
				map[string]any{
					"workflow_io_name": "x",
					"adapter_id":       "direct_provisioning",
				},
			},
		}
		require.NoError(t, ValidateTestWiring(wiring))
	})

	t.Run("entry missing io name", func(t *testing.T) {
		wiring := map[string]any{
			"input_wirings": []any{
				map[string]any{"adapter_id": "direct_provisioning"},
			},
		}
		require.ErrorIs(t, ValidateTestWiring(wiring), ErrInvalidTestWiring)
	})
}

func TestDefaultFilterParams(t *testing.T) {
	params := DefaultFilterParams()

	assert.True(t, params.IncludeDeprecated)
	assert.False(t, params.IncludeDependencies)
	assert.False(t, params.Unused)
	assert.Nil(t, params.Type)
	assert.Nil(t, params.State)
}

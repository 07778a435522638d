// Package nesting derives closure-table rows from workflow content. The
// closure replaces recursive graph traversal at query time with precomputed
// rows: rebuild cost is paid on every content change, reads stay flat.
package nesting

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/revisio/revisio/pkg/models"
)

var (
	// ErrCyclicNesting indicates a workflow nests itself, directly or transitively.
	ErrCyclicNesting = errors.New("cyclic nesting detected")

	// ErrNotAWorkflow indicates closure computation was requested for a
	// revision that carries no workflow content.
	ErrNotAWorkflow = errors.New("transformation revision is not a workflow")

	// ErrUnresolvedOperator indicates an operator references a transformation
	// unknown to the resolver.
	ErrUnresolvedOperator = errors.New("operator references unknown transformation")
)

// CyclicDependencyError reports a back-edge found during closure computation.
// The rebuild it aborts leaves any previously persisted rows intact.
type CyclicDependencyError struct {
	WorkflowID uuid.UUID
	Path       []uuid.UUID // transformation ids on the traversal stack, root first
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic nesting in workflow %s (path length %d)", e.WorkflowID, len(e.Path))
}

func (e *CyclicDependencyError) Unwrap() error {
	return ErrCyclicNesting
}

// Resolver looks up a transformation revision by id. The closure walk uses it
// to load the content of operators that reference sub-workflows without
// embedding their bodies inline.
type Resolver func(ctx context.Context, id uuid.UUID) (*models.TransformationRevision, error)

// walker carries the traversal state for a single closure computation. Each
// transformation id is interned into an arena index once; onPath marks the
// indexes currently on the traversal stack so back-edges are detected without
// identity comparisons scattered through the walk.
type walker struct {
	resolve Resolver
	index   map[uuid.UUID]int
	onPath  []bool
	path    []uuid.UUID
	rows    []models.Nesting
	root    uuid.UUID
}

// Closure computes the complete set of nesting rows for a workflow revision:
// one row per (reachable transformation, reaching path class), every depth.
// The result is deterministic for a given content (depth-first, operator
// order preserved), so rebuilding without a content change yields an
// identical row set.
func Closure(ctx context.Context, workflow *models.TransformationRevision, resolve Resolver) ([]models.Nesting, error) {
	if workflow.Type != models.TypeWorkflow || workflow.WorkflowContent == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAWorkflow, workflow.ID)
	}

	w := &walker{
		resolve: resolve,
		index:   make(map[uuid.UUID]int),
		rows:    make([]models.Nesting, 0),
		root:    workflow.ID,
	}

	if err := w.enter(workflow.ID); err != nil {
		return nil, err
	}

	for _, op := range workflow.WorkflowContent.Operators {
		via := operatorIdentity{transformationID: op.TransformationID, operatorID: op.ID}

		w.rows = append(w.rows, models.Nesting{
			WorkflowID:             workflow.ID,
			ViaTransformationID:    via.transformationID,
			ViaOperatorID:          via.operatorID,
			Depth:                  1,
			NestedTransformationID: via.transformationID,
			NestedOperatorID:       via.operatorID,
		})

		if err := w.descend(ctx, op, via, 1); err != nil {
			return nil, err
		}
	}

	w.leave(workflow.ID)

	return w.rows, nil
}

type operatorIdentity struct {
	transformationID uuid.UUID
	operatorID       uuid.UUID
}

// descend walks into the content of op, emitting rows at depth+1 and deeper.
// The via identity stays fixed to the direct child operator of the root
// workflow for the whole subtree.
func (w *walker) descend(ctx context.Context, op *models.Operator, via operatorIdentity, depth int) error {
	content, err := w.contentOf(ctx, op)
	if err != nil {
		return err
	}

	if content == nil {
		return nil
	}

	if err := w.enter(op.TransformationID); err != nil {
		return err
	}

	for _, child := range content.Operators {
		w.rows = append(w.rows, models.Nesting{
			WorkflowID:             w.root,
			ViaTransformationID:    via.transformationID,
			ViaOperatorID:          via.operatorID,
			Depth:                  depth + 1,
			NestedTransformationID: child.TransformationID,
			NestedOperatorID:       child.ID,
		})

		if err := w.descend(ctx, child, via, depth+1); err != nil {
			return err
		}
	}

	w.leave(op.TransformationID)

	return nil
}

// contentOf returns the workflow body an operator nests: the inline body if
// one is embedded, otherwise the referenced revision's content for workflow
// operators. Component operators are leaves.
func (w *walker) contentOf(ctx context.Context, op *models.Operator) (*models.WorkflowContent, error) {
	if op.Content != nil {
		return op.Content, nil
	}

	if op.Type != models.TypeWorkflow {
		return nil, nil
	}

	revision, err := w.resolve(ctx, op.TransformationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve operator %s: %w", op.ID, err)
	}

	if revision == nil {
		return nil, fmt.Errorf("%w: operator %s -> %s", ErrUnresolvedOperator, op.ID, op.TransformationID)
	}

	return revision.WorkflowContent, nil
}

// enter interns id into the arena and marks it on the traversal path.
// Re-entering an id already on the path is a back-edge.
func (w *walker) enter(id uuid.UUID) error {
	idx, ok := w.index[id]
	if !ok {
		idx = len(w.onPath)
		w.index[id] = idx
		w.onPath = append(w.onPath, false)
	}

	if w.onPath[idx] {
		return &CyclicDependencyError{
			WorkflowID: w.root,
			Path:       append(append([]uuid.UUID{}, w.path...), id),
		}
	}

	w.onPath[idx] = true
	w.path = append(w.path, id)

	return nil
}

func (w *walker) leave(id uuid.UUID) {
	w.onPath[w.index[id]] = false
	w.path = w.path[:len(w.path)-1]
}

// Descendants converts closure rows into the query result shape.
func Descendants(rows []models.Nesting) []models.Descendant {
	descendants := make([]models.Descendant, 0, len(rows))

	for _, row := range rows {
		descendants = append(descendants, models.Descendant{
			Depth:            row.Depth,
			TransformationID: row.NestedTransformationID,
			OperatorID:       row.NestedOperatorID,
		})
	}

	return descendants
}

package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/revisio/revisio/pkg/models"
)

// NestingRepository reads the derived closure table. Writes happen only
// through RevisionRepository.Save.
type NestingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewNestingRepository creates a new nesting repository.
func NewNestingRepository(db *sql.DB, logger *slog.Logger) *NestingRepository {
	return &NestingRepository{db: db, logger: logger}
}

// Descendants returns every transformation reachable from the workflow.
func (r *NestingRepository) Descendants(ctx context.Context, workflowID uuid.UUID) ([]models.Descendant, error) {
	query := `
		SELECT depth, nested_transformation_id, nested_operator_id
		FROM nestings
		WHERE workflow_id = $1
		ORDER BY depth, nested_operator_id
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query descendants: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	descendants := make([]models.Descendant, 0)

	for rows.Next() {
		var descendant models.Descendant

		err := rows.Scan(&descendant.Depth, &descendant.TransformationID, &descendant.OperatorID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan descendant: %w", err)
		}

		descendants = append(descendants, descendant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating descendants: %w", err)
	}

	return descendants, nil
}

// Ancestors returns the distinct workflows whose closure contains the
// transformation at any depth.
func (r *NestingRepository) Ancestors(ctx context.Context, transformationID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT workflow_id
		FROM nestings
		WHERE nested_transformation_id = $1
		ORDER BY workflow_id
	`

	rows, err := r.db.QueryContext(ctx, query, transformationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ancestors: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	ancestors := make([]uuid.UUID, 0)

	for rows.Next() {
		var workflowID uuid.UUID

		err := rows.Scan(&workflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ancestor: %w", err)
		}

		ancestors = append(ancestors, workflowID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ancestors: %w", err)
	}

	return ancestors, nil
}

// Rows returns the raw closure rows of a workflow.
func (r *NestingRepository) Rows(ctx context.Context, workflowID uuid.UUID) ([]models.Nesting, error) {
	query := `
		SELECT workflow_id, via_transformation_id, via_operator_id, depth,
		       nested_transformation_id, nested_operator_id
		FROM nestings
		WHERE workflow_id = $1
		ORDER BY depth, nested_operator_id
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nestings: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	nestings := make([]models.Nesting, 0)

	for rows.Next() {
		var row models.Nesting

		err := rows.Scan(
			&row.WorkflowID,
			&row.ViaTransformationID,
			&row.ViaOperatorID,
			&row.Depth,
			&row.NestedTransformationID,
			&row.NestedOperatorID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nesting row: %w", err)
		}

		nestings = append(nestings, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nestings: %w", err)
	}

	return nestings, nil
}

package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/revisio/revisio/pkg/models"
	"github.com/revisio/revisio/pkg/persistence"
)

const uniqueViolation = "23505"

// RevisionRepository handles transformation-revision database operations.
type RevisionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRevisionRepository creates a new revision repository.
func NewRevisionRepository(db *sql.DB, logger *slog.Logger) *RevisionRepository {
	return &RevisionRepository{db: db, logger: logger}
}

const revisionColumns = `
	id
  , revision_group_id
  , name
  , description
  , category
  , version_tag
  , state
  , type
  , documentation
  , component_code
  , workflow_content
  , io_interface
  , test_wiring
  , released_timestamp
  , disabled_timestamp
`

// Save upserts the revision and replaces its closure rows in one transaction,
// so a state transition and its closure rebuild commit as a single unit.
func (r *RevisionRepository) Save(ctx context.Context, revision *models.TransformationRevision, closure []models.Nesting) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var componentCode sql.NullString
	if revision.ComponentCode != "" {
		componentCode = sql.NullString{String: revision.ComponentCode, Valid: true}
	}

	var workflowContentJSON []byte
	if revision.WorkflowContent != nil {
		workflowContentJSON, err = json.Marshal(revision.WorkflowContent)
		if err != nil {
			return fmt.Errorf("failed to marshal workflow content: %w", err)
		}
	}

	ioInterfaceJSON, err := json.Marshal(revision.IOInterface)
	if err != nil {
		return fmt.Errorf("failed to marshal io interface: %w", err)
	}

	testWiringJSON, err := json.Marshal(revision.TestWiring)
	if err != nil {
		return fmt.Errorf("failed to marshal test wiring: %w", err)
	}

	revisionQuery := `
		INSERT INTO transformation_revisions (id, revision_group_id, name, description, category,
version_tag, state, type, documentation, component_code, workflow_content, io_interface, test_wiring,
released_timestamp, disabled_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			revision_group_id = EXCLUDED.revision_group_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			version_tag = EXCLUDED.version_tag,
			state = EXCLUDED.state,
			type = EXCLUDED.type,
			documentation = EXCLUDED.documentation,
			component_code = EXCLUDED.component_code,
			workflow_content = EXCLUDED.workflow_content,
			io_interface = EXCLUDED.io_interface,
			test_wiring = EXCLUDED.test_wiring,
			released_timestamp = EXCLUDED.released_timestamp,
			disabled_timestamp = EXCLUDED.disabled_timestamp
	`

	_, err = tx.ExecContext(ctx, revisionQuery,
		revision.ID,
		revision.RevisionGroupID,
		revision.Name,
		revision.Description,
		revision.Category,
		revision.VersionTag,
		revision.State,
		revision.Type,
		revision.Documentation,
		componentCode,
		workflowContentJSON,
		ioInterfaceJSON,
		testWiringJSON,
		revision.ReleasedTimestamp,
		revision.DisabledTimestamp,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewRevisionError("Save", revision.ID.String(), persistence.ErrDuplicateVersionTag)
		}

		return fmt.Errorf("failed to save revision: %w", err)
	}

	// Replace closure rows: delete-and-reinsert inside the same transaction
	// keeps the replacement all-or-nothing.
	_, err = tx.ExecContext(ctx, "DELETE FROM nestings WHERE workflow_id = $1", revision.ID)
	if err != nil {
		return fmt.Errorf("failed to delete existing nestings: %w", err)
	}

	err = r.insertNestings(ctx, tx, closure)
	if err != nil {
		return fmt.Errorf("failed to save nestings: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *RevisionRepository) insertNestings(ctx context.Context, tx *sql.Tx, closure []models.Nesting) error {
	query := `
		INSERT INTO nestings (workflow_id, via_transformation_id, via_operator_id, depth,
nested_transformation_id, nested_operator_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, row := range closure {
		_, err := tx.ExecContext(ctx, query,
			row.WorkflowID,
			row.ViaTransformationID,
			row.ViaOperatorID,
			row.Depth,
			row.NestedTransformationID,
			row.NestedOperatorID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert nesting row: %w", err)
		}
	}

	return nil
}

// GetByID returns a revision by its ID, or (nil, nil) when it does not exist.
func (r *RevisionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TransformationRevision, error) {
	query := `SELECT ` + revisionColumns + ` FROM transformation_revisions WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	revision, err := r.scanRevision(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan revision: %w", err)
	}

	return revision, nil
}

// List returns all revisions matching the scalar and set predicates of the
// filter. Dependency expansion happens in the service layer.
func (r *RevisionRepository) List(ctx context.Context, params models.FilterParams) ([]*models.TransformationRevision, error) {
	conditions := make([]string, 0)
	args := make([]any, 0)

	arg := func(value any) string {
		args = append(args, value)

		return "$" + strconv.Itoa(len(args))
	}

	if params.Type != nil {
		conditions = append(conditions, "type = "+arg(*params.Type))
	}

	if params.State != nil {
		conditions = append(conditions, "state = "+arg(*params.State))
	} else if !params.IncludeDeprecated {
		conditions = append(conditions, "state != "+arg(models.StateDisabled))
	}

	if params.Category != nil {
		conditions = append(conditions, "category = "+arg(*params.Category))
	}

	if params.RevisionGroupID != nil {
		conditions = append(conditions, "revision_group_id = "+arg(*params.RevisionGroupID))
	}

	if len(params.IDs) > 0 {
		ids := make([]string, 0, len(params.IDs))
		for _, id := range params.IDs {
			ids = append(ids, id.String())
		}

		conditions = append(conditions, "id = ANY("+arg(pq.Array(ids))+")")
	}

	if len(params.Names) > 0 {
		conditions = append(conditions, "name = ANY("+arg(pq.Array(params.Names))+")")
	}

	query := `SELECT ` + revisionColumns + ` FROM transformation_revisions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY category, name, version_tag, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query revisions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	revisions := make([]*models.TransformationRevision, 0)

	for rows.Next() {
		revision, err := r.scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}

		revisions = append(revisions, revision)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revisions: %w", err)
	}

	return revisions, nil
}

// Delete removes a revision; the nestings it owns go with it via cascade.
func (r *RevisionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM transformation_revisions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete revision: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewRevisionError("Delete", id.String(), persistence.ErrRevisionNotFound)
	}

	return nil
}

func (r *RevisionRepository) scanRevision(scanner interface {
	Scan(dest ...any) error
}) (*models.TransformationRevision, error) {
	var (
		revision                                             models.TransformationRevision
		componentCode                                        sql.NullString
		workflowContentJSON, ioInterfaceJSON, testWiringJSON []byte
	)

	err := scanner.Scan(
		&revision.ID,
		&revision.RevisionGroupID,
		&revision.Name,
		&revision.Description,
		&revision.Category,
		&revision.VersionTag,
		&revision.State,
		&revision.Type,
		&revision.Documentation,
		&componentCode,
		&workflowContentJSON,
		&ioInterfaceJSON,
		&testWiringJSON,
		&revision.ReleasedTimestamp,
		&revision.DisabledTimestamp,
	)
	if err != nil {
		return nil, err
	}

	if componentCode.Valid {
		revision.ComponentCode = componentCode.String
	}

	if workflowContentJSON != nil {
		err := json.Unmarshal(workflowContentJSON, &revision.WorkflowContent)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflow content: %w", err)
		}
	}

	if ioInterfaceJSON != nil {
		err := json.Unmarshal(ioInterfaceJSON, &revision.IOInterface)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal io interface: %w", err)
		}
	}

	if testWiringJSON != nil {
		err := json.Unmarshal(testWiringJSON, &revision.TestWiring)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal test wiring: %w", err)
		}
	}

	return &revision, nil
}

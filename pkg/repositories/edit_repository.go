package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/buildyoursite/buildyoursite-engine/pkg/database"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
)

// EditRepository defines the interface for edit data access.
// Edits are append-only.
type EditRepository interface {
	Create(ctx context.Context, edit *models.Edit) error
	// ListByProject returns edits newest first with their generation attached when
	// one is referenced. A limit <= 0 returns all.
	ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.Edit, error)
	ListByProjectAndType(ctx context.Context, projectID uuid.UUID, editType models.EditType) ([]*models.Edit, error)
	CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
	CountByType(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error)
	// CountByGenerationType counts edits per type of the generation they reference,
	// across all projects, highest first. Edits without a generation are ignored.
	CountByGenerationType(ctx context.Context, limit int) ([]models.EditedGenerationType, error)
}

type editRepository struct {
	db *database.DB
}

var _ EditRepository = (*editRepository)(nil)

// NewEditRepository creates a new edit repository.
func NewEditRepository(db *database.DB) EditRepository {
	return &editRepository{db: db}
}

func (r *editRepository) Create(ctx context.Context, edit *models.Edit) error {
	q := database.QuerierFrom(ctx, r.db)

	if edit.ID == uuid.Nil {
		edit.ID = uuid.New()
	}
	if edit.CreatedAt.IsZero() {
		edit.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO edits (id, project_id, generation_id, original_content, edited_content, edit_type, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := q.Exec(ctx, query,
		edit.ID,
		edit.ProjectID,
		edit.GenerationID,
		edit.OriginalContent,
		edit.EditedContent,
		edit.EditType,
		edit.Reason,
		edit.CreatedAt,
	)
	if err != nil {
		return translateWriteError("create edit", err)
	}

	return nil
}

// editSelect joins the referenced generation; its columns are NULL for unlinked edits.
const editSelect = `
	SELECT e.id, e.project_id, e.generation_id, e.original_content, e.edited_content,
	       e.edit_type, e.reason, e.created_at,
	       g.model, g.prompt, g.generation_type, g.created_at
	FROM edits e
	LEFT JOIN generations g ON g.id = e.generation_id`

func (r *editRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.Edit, error) {
	query := editSelect + `
		WHERE e.project_id = $1
		ORDER BY e.created_at DESC, e.id DESC`
	args := []any{projectID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

func (r *editRepository) ListByProjectAndType(ctx context.Context, projectID uuid.UUID, editType models.EditType) ([]*models.Edit, error) {
	query := editSelect + `
		WHERE e.project_id = $1 AND e.edit_type = $2
		ORDER BY e.created_at DESC, e.id DESC`
	return r.list(ctx, query, projectID, editType)
}

func (r *editRepository) list(ctx context.Context, query string, args ...any) ([]*models.Edit, error) {
	q := database.QuerierFrom(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	defer rows.Close()

	edits := make([]*models.Edit, 0)
	for rows.Next() {
		e, err := scanEditWithGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan edit: %w", err)
		}
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate edits: %w", err)
	}
	return edits, nil
}

func (r *editRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	q := database.QuerierFrom(ctx, r.db)

	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM edits WHERE project_id = $1`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count edits: %w", err)
	}
	return count, nil
}

func (r *editRepository) CountByType(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error) {
	query := `
		SELECT edit_type, COUNT(*)
		FROM edits
		WHERE project_id = $1
		GROUP BY edit_type
		ORDER BY COUNT(*) DESC, edit_type`
	return queryTypeCounts(ctx, database.QuerierFrom(ctx, r.db), "edit", query, projectID)
}

func (r *editRepository) CountByGenerationType(ctx context.Context, limit int) ([]models.EditedGenerationType, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT g.generation_type, COUNT(e.id)
		FROM edits e
		JOIN generations g ON g.id = e.generation_id
		GROUP BY g.generation_type
		ORDER BY COUNT(e.id) DESC, g.generation_type
		LIMIT $1`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to count edits by generation type: %w", err)
	}
	defer rows.Close()

	result := make([]models.EditedGenerationType, 0, limit)
	for rows.Next() {
		var item models.EditedGenerationType
		if err := rows.Scan(&item.GenerationType, &item.EditCount); err != nil {
			return nil, fmt.Errorf("failed to scan edited generation type: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate edited generation types: %w", err)
	}
	return result, nil
}

func scanEditWithGeneration(row pgx.Row) (*models.Edit, error) {
	var e models.Edit
	var (
		genModel     *string
		genPrompt    *string
		genType      *models.GenerationType
		genCreatedAt *time.Time
	)
	err := row.Scan(
		&e.ID,
		&e.ProjectID,
		&e.GenerationID,
		&e.OriginalContent,
		&e.EditedContent,
		&e.EditType,
		&e.Reason,
		&e.CreatedAt,
		&genModel,
		&genPrompt,
		&genType,
		&genCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if e.GenerationID != nil && genType != nil {
		e.Generation = &models.Generation{
			ID:             *e.GenerationID,
			ProjectID:      e.ProjectID,
			Model:          genModel,
			GenerationType: *genType,
		}
		if genPrompt != nil {
			e.Generation.Prompt = *genPrompt
		}
		if genCreatedAt != nil {
			e.Generation.CreatedAt = *genCreatedAt
		}
	}
	return &e, nil
}

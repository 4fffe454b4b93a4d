package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
	"github.com/buildyoursite/buildyoursite-engine/pkg/database"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
)

// GenerationRepository defines the interface for generation data access.
// Generations are append-only.
type GenerationRepository interface {
	Create(ctx context.Context, generation *models.Generation) error
	Get(ctx context.Context, id uuid.UUID) (*models.Generation, error)
	// ListByProject returns generations newest first. A limit <= 0 returns all.
	ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.Generation, error)
	ListByProjectAndType(ctx context.Context, projectID uuid.UUID, generationType models.GenerationType) ([]*models.Generation, error)
	CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
	CountByType(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error)
}

type generationRepository struct {
	db *database.DB
}

var _ GenerationRepository = (*generationRepository)(nil)

// NewGenerationRepository creates a new generation repository.
func NewGenerationRepository(db *database.DB) GenerationRepository {
	return &generationRepository{db: db}
}

const generationColumns = `id, project_id, model, prompt, output, temperature, generation_type, metadata, created_at`

func (r *generationRepository) Create(ctx context.Context, generation *models.Generation) error {
	q := database.QuerierFrom(ctx, r.db)

	if generation.ID == uuid.Nil {
		generation.ID = uuid.New()
	}
	if generation.CreatedAt.IsZero() {
		generation.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO generations (` + generationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		generation.ID,
		generation.ProjectID,
		generation.Model,
		generation.Prompt,
		generation.Output,
		generation.Temperature,
		generation.GenerationType,
		generation.Metadata,
		generation.CreatedAt,
	)
	if err != nil {
		return translateWriteError("create generation", err)
	}

	return nil
}

func (r *generationRepository) Get(ctx context.Context, id uuid.UUID) (*models.Generation, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = $1`

	generation, err := scanGeneration(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return generation, nil
}

func (r *generationRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.Generation, error) {
	query := `
		SELECT ` + generationColumns + `
		FROM generations
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{projectID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

func (r *generationRepository) ListByProjectAndType(ctx context.Context, projectID uuid.UUID, generationType models.GenerationType) ([]*models.Generation, error) {
	query := `
		SELECT ` + generationColumns + `
		FROM generations
		WHERE project_id = $1 AND generation_type = $2
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, projectID, generationType)
}

func (r *generationRepository) list(ctx context.Context, query string, args ...any) ([]*models.Generation, error) {
	q := database.QuerierFrom(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	generations := make([]*models.Generation, 0)
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		generations = append(generations, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generations: %w", err)
	}
	return generations, nil
}

func (r *generationRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	q := database.QuerierFrom(ctx, r.db)

	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM generations WHERE project_id = $1`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return count, nil
}

func (r *generationRepository) CountByType(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error) {
	query := `
		SELECT generation_type, COUNT(*)
		FROM generations
		WHERE project_id = $1
		GROUP BY generation_type
		ORDER BY COUNT(*) DESC, generation_type`
	return queryTypeCounts(ctx, database.QuerierFrom(ctx, r.db), "generation", query, projectID)
}

func scanGeneration(row pgx.Row) (*models.Generation, error) {
	var g models.Generation
	err := row.Scan(
		&g.ID,
		&g.ProjectID,
		&g.Model,
		&g.Prompt,
		&g.Output,
		&g.Temperature,
		&g.GenerationType,
		&g.Metadata,
		&g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// queryTypeCounts runs a two-column (discriminant, count) grouping query.
func queryTypeCounts(ctx context.Context, q database.Querier, kind, query string, args ...any) ([]models.TypeCount, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s by type: %w", kind, err)
	}
	defer rows.Close()

	counts := make([]models.TypeCount, 0)
	for rows.Next() {
		var tc models.TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s type count: %w", kind, err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s type counts: %w", kind, err)
	}
	return counts, nil
}

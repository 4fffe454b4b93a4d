package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
	"github.com/buildyoursite/buildyoursite-engine/pkg/database"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
)

// ProjectRepository defines the interface for project data access.
// Projects are never hard-deleted.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	// List returns projects ordered by most recent update. A nil status returns all projects.
	List(ctx context.Context, status *models.ProjectStatus) ([]*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error)
	// ListActivityAsOf returns the activity of every project created on or before
	// dayStart, read in a single statement so the rollup sees one snapshot.
	ListActivityAsOf(ctx context.Context, dayStart time.Time) ([]models.ProjectActivity, error)
}

// projectRepository implements ProjectRepository using PostgreSQL.
type projectRepository struct {
	db *database.DB
}

var _ ProjectRepository = (*projectRepository)(nil)

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *database.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, name, client_name, description, status, created_at, updated_at`

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	q := database.QuerierFrom(ctx, r.db)

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}

	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Status == "" {
		project.Status = models.ProjectStatusActive
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := q.Exec(ctx, query,
		project.ID,
		project.Name,
		project.ClientName,
		project.Description,
		project.Status,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return translateWriteError("create project", err)
	}

	return nil
}

func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

func (r *projectRepository) List(ctx context.Context, status *models.ProjectStatus) ([]*models.Project, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + projectColumns + ` FROM projects`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	q := database.QuerierFrom(ctx, r.db)

	sets := []string{"updated_at = $2"}
	args := []any{id, time.Now().UTC()}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.ClientName != nil {
		add("client_name", *update.ClientName)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.Status != nil {
		add("status", *update.Status)
	}

	query := `UPDATE projects SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + projectColumns

	project, err := scanProject(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

func (r *projectRepository) ListActivityAsOf(ctx context.Context, dayStart time.Time) ([]models.ProjectActivity, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT p.id,
		       p.created_at,
		       (SELECT COUNT(*) FROM generations g WHERE g.project_id = p.id),
		       (SELECT COUNT(*) FROM edits e WHERE e.project_id = p.id),
		       COALESCE((SELECT array_agg(f.rating ORDER BY f.created_at, f.id)
		                 FROM feedback f
		                 WHERE f.project_id = p.id AND f.rating IS NOT NULL), '{}')
		FROM projects p
		WHERE p.created_at <= $1
		ORDER BY p.created_at, p.id`

	rows, err := q.Query(ctx, query, dayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list project activity: %w", err)
	}
	defer rows.Close()

	activity := make([]models.ProjectActivity, 0)
	for rows.Next() {
		var a models.ProjectActivity
		var ratings []int32
		if err := rows.Scan(&a.ProjectID, &a.CreatedAt, &a.GenerationCount, &a.EditCount, &ratings); err != nil {
			return nil, fmt.Errorf("failed to scan project activity: %w", err)
		}
		a.Ratings = make([]int, len(ratings))
		for i, rating := range ratings {
			a.Ratings[i] = int(rating)
		}
		activity = append(activity, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project activity: %w", err)
	}

	return activity, nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.ClientName,
		&p.Description,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

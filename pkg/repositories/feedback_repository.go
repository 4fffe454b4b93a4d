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

// FeedbackRepository defines the interface for feedback data access.
// Feedback is append-only.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	// ListByProject returns feedback newest first. A limit <= 0 returns all.
	ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.Feedback, error)
	ListByProjectAndType(ctx context.Context, projectID uuid.UUID, feedbackType models.FeedbackType) ([]*models.Feedback, error)
	// ListChronological returns feedback oldest first, for one project or for all
	// projects when projectID is nil.
	ListChronological(ctx context.Context, projectID *uuid.UUID) ([]*models.Feedback, error)
	CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
	CountByType(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error)
	// CountByRating groups rated feedback by rating. Unrated feedback is ignored.
	CountByRating(ctx context.Context, projectID uuid.UUID) ([]models.RatingCount, error)
	// RatingSummary averages non-null ratings. Average is nil when none exist.
	RatingSummary(ctx context.Context, projectID uuid.UUID) (models.RatingSummary, error)
}

type feedbackRepository struct {
	db *database.DB
}

var _ FeedbackRepository = (*feedbackRepository)(nil)

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *database.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

const feedbackColumns = `id, project_id, type, content, rating, client_name, created_at`

func (r *feedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	q := database.QuerierFrom(ctx, r.db)

	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO feedback (` + feedbackColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := q.Exec(ctx, query,
		feedback.ID,
		feedback.ProjectID,
		feedback.Type,
		feedback.Content,
		feedback.Rating,
		feedback.ClientName,
		feedback.CreatedAt,
	)
	if err != nil {
		return translateWriteError("create feedback", err)
	}

	return nil
}

func (r *feedbackRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.Feedback, error) {
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedback
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{projectID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

func (r *feedbackRepository) ListByProjectAndType(ctx context.Context, projectID uuid.UUID, feedbackType models.FeedbackType) ([]*models.Feedback, error) {
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedback
		WHERE project_id = $1 AND type = $2
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, projectID, feedbackType)
}

func (r *feedbackRepository) ListChronological(ctx context.Context, projectID *uuid.UUID) ([]*models.Feedback, error) {
	if projectID == nil {
		return r.list(ctx, `SELECT `+feedbackColumns+` FROM feedback ORDER BY created_at, id`)
	}
	return r.list(ctx, `
		SELECT `+feedbackColumns+`
		FROM feedback
		WHERE project_id = $1
		ORDER BY created_at, id`, *projectID)
}

func (r *feedbackRepository) list(ctx context.Context, query string, args ...any) ([]*models.Feedback, error) {
	q := database.QuerierFrom(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Feedback, 0)
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return items, nil
}

func (r *feedbackRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	q := database.QuerierFrom(ctx, r.db)

	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM feedback WHERE project_id = $1`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return count, nil
}

func (r *feedbackRepository) CountByType(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error) {
	query := `
		SELECT type, COUNT(*)
		FROM feedback
		WHERE project_id = $1
		GROUP BY type
		ORDER BY COUNT(*) DESC, type`
	return queryTypeCounts(ctx, database.QuerierFrom(ctx, r.db), "feedback", query, projectID)
}

func (r *feedbackRepository) CountByRating(ctx context.Context, projectID uuid.UUID) ([]models.RatingCount, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT rating, COUNT(*)
		FROM feedback
		WHERE project_id = $1 AND rating IS NOT NULL
		GROUP BY rating
		ORDER BY rating DESC`

	rows, err := q.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count feedback by rating: %w", err)
	}
	defer rows.Close()

	counts := make([]models.RatingCount, 0)
	for rows.Next() {
		var rc models.RatingCount
		if err := rows.Scan(&rc.Rating, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan rating count: %w", err)
		}
		counts = append(counts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rating counts: %w", err)
	}
	return counts, nil
}

func (r *feedbackRepository) RatingSummary(ctx context.Context, projectID uuid.UUID) (models.RatingSummary, error) {
	q := database.QuerierFrom(ctx, r.db)

	var summary models.RatingSummary
	err := q.QueryRow(ctx, `
		SELECT AVG(rating)::float8, COUNT(rating)
		FROM feedback
		WHERE project_id = $1 AND rating IS NOT NULL`, projectID).Scan(&summary.Average, &summary.Count)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("failed to summarize ratings: %w", err)
	}
	return summary, nil
}

func scanFeedback(row pgx.Row) (*models.Feedback, error) {
	var f models.Feedback
	err := row.Scan(
		&f.ID,
		&f.ProjectID,
		&f.Type,
		&f.Content,
		&f.Rating,
		&f.ClientName,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

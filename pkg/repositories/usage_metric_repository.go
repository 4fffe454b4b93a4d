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

// UsageMetricRepository defines the interface for daily usage metric data access.
type UsageMetricRepository interface {
	// Upsert writes the metric for metric.Date, overwriting every field of an
	// existing record for that day. The stored ID is written back to metric.
	Upsert(ctx context.Context, metric *models.UsageMetric) error
	GetByDate(ctx context.Context, date time.Time) (*models.UsageMetric, error)
	// ListRange returns metrics with from <= date <= to, oldest first.
	ListRange(ctx context.Context, from, to time.Time) ([]*models.UsageMetric, error)
}

type usageMetricRepository struct {
	db *database.DB
}

var _ UsageMetricRepository = (*usageMetricRepository)(nil)

// NewUsageMetricRepository creates a new usage metric repository.
func NewUsageMetricRepository(db *database.DB) UsageMetricRepository {
	return &usageMetricRepository{db: db}
}

const usageMetricColumns = `id, date, total_projects, ai_generated_ratio, manual_edit_ratio,
	generation_count, edit_count, feedback_count, average_rating`

func (r *usageMetricRepository) Upsert(ctx context.Context, metric *models.UsageMetric) error {
	q := database.QuerierFrom(ctx, r.db)

	if metric.ID == uuid.Nil {
		metric.ID = uuid.New()
	}

	// The id of the first write for a day is kept so reruns produce identical rows.
	query := `
		INSERT INTO usage_metrics (` + usageMetricColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (date) DO UPDATE
		SET total_projects = EXCLUDED.total_projects,
		    ai_generated_ratio = EXCLUDED.ai_generated_ratio,
		    manual_edit_ratio = EXCLUDED.manual_edit_ratio,
		    generation_count = EXCLUDED.generation_count,
		    edit_count = EXCLUDED.edit_count,
		    feedback_count = EXCLUDED.feedback_count,
		    average_rating = EXCLUDED.average_rating
		RETURNING id`

	err := q.QueryRow(ctx, query,
		metric.ID,
		metric.Date,
		metric.TotalProjects,
		metric.AIGeneratedRatio,
		metric.ManualEditRatio,
		metric.GenerationCount,
		metric.EditCount,
		metric.FeedbackCount,
		metric.AverageRating,
	).Scan(&metric.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert usage metric: %w", err)
	}

	return nil
}

func (r *usageMetricRepository) GetByDate(ctx context.Context, date time.Time) (*models.UsageMetric, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + usageMetricColumns + ` FROM usage_metrics WHERE date = $1`

	metric, err := scanUsageMetric(q.QueryRow(ctx, query, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get usage metric: %w", err)
	}
	return metric, nil
}

func (r *usageMetricRepository) ListRange(ctx context.Context, from, to time.Time) ([]*models.UsageMetric, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT ` + usageMetricColumns + `
		FROM usage_metrics
		WHERE date >= $1 AND date <= $2
		ORDER BY date`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage metrics: %w", err)
	}
	defer rows.Close()

	metrics := make([]*models.UsageMetric, 0)
	for rows.Next() {
		m, err := scanUsageMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage metrics: %w", err)
	}
	return metrics, nil
}

func scanUsageMetric(row pgx.Row) (*models.UsageMetric, error) {
	var m models.UsageMetric
	err := row.Scan(
		&m.ID,
		&m.Date,
		&m.TotalProjects,
		&m.AIGeneratedRatio,
		&m.ManualEditRatio,
		&m.GenerationCount,
		&m.EditCount,
		&m.FeedbackCount,
		&m.AverageRating,
	)
	if err != nil {
		return nil, err
	}
	m.Date = m.Date.UTC()
	return &m, nil
}

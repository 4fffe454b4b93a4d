package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/buildyoursite/buildyoursite-engine/pkg/analytics"
	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
	"github.com/buildyoursite/buildyoursite-engine/pkg/config"
	"github.com/buildyoursite/buildyoursite-engine/pkg/database"
	"github.com/buildyoursite/buildyoursite-engine/pkg/instrumentation"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories"
)

// MostEditedTypesLimit is how many generation types MostEditedGenerationTypes returns.
const MostEditedTypesLimit = 5

// UsageAnalytics reports AI-versus-manual usage and writes the daily rollup.
type UsageAnalytics interface {
	ProjectUsageStats(ctx context.Context, projectID uuid.UUID) (*models.ProjectUsageStats, error)
	// CalculateDailyMetrics recomputes the rollup for the UTC day containing date,
	// or for today when date is nil.
	CalculateDailyMetrics(ctx context.Context, date *time.Time) (*models.UsageMetric, error)
	// HistoricalMetrics returns rollups from the last days days, oldest first.
	// A nil days uses the configured default.
	HistoricalMetrics(ctx context.Context, days *int) ([]*models.UsageMetric, error)
	// RecurringFeedbackPatterns scans one project, or every project when projectID is nil.
	RecurringFeedbackPatterns(ctx context.Context, projectID *uuid.UUID) ([]models.FeedbackPattern, error)
	MostEditedGenerationTypes(ctx context.Context) ([]models.EditedGenerationType, error)
}

// UsageAnalyticsDeps groups the collaborators of the usage analytics service.
type UsageAnalyticsDeps struct {
	Projects     repositories.ProjectRepository
	Generations  repositories.GenerationRepository
	Edits        repositories.EditRepository
	Feedback     repositories.FeedbackRepository
	UsageMetrics repositories.UsageMetricRepository
	Locker       database.DayLocker
	Metrics      *instrumentation.Metrics
	Config       config.AnalyticsConfig
	// Now defaults to time.Now.
	Now func() time.Time
}

type usageAnalytics struct {
	projects     repositories.ProjectRepository
	generations  repositories.GenerationRepository
	edits        repositories.EditRepository
	feedback     repositories.FeedbackRepository
	usageMetrics repositories.UsageMetricRepository
	locker       database.DayLocker
	metrics      *instrumentation.Metrics
	historyDays  int
	now          func() time.Time
	logger       *zap.Logger
}

// NewUsageAnalytics creates a new UsageAnalytics. A nil Locker serializes rollups
// within this process only.
func NewUsageAnalytics(deps UsageAnalyticsDeps, logger *zap.Logger) UsageAnalytics {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	locker := deps.Locker
	if locker == nil {
		locker = database.NewLocalDayLocker()
	}
	historyDays := deps.Config.HistoryDays
	if historyDays <= 0 {
		historyDays = 30
	}
	return &usageAnalytics{
		projects:     deps.Projects,
		generations:  deps.Generations,
		edits:        deps.Edits,
		feedback:     deps.Feedback,
		usageMetrics: deps.UsageMetrics,
		locker:       locker,
		metrics:      deps.Metrics,
		historyDays:  historyDays,
		now:          now,
		logger:       logger.Named("usage-analytics"),
	}
}

var _ UsageAnalytics = (*usageAnalytics)(nil)

func (s *usageAnalytics) ProjectUsageStats(ctx context.Context, projectID uuid.UUID) (*models.ProjectUsageStats, error) {
	var (
		generations, edits int64
		summary            models.RatingSummary
	)

	g, gctx := errgroup.WithContext(database.Detach(ctx))
	g.Go(func() error {
		n, err := s.generations.CountByProject(gctx, projectID)
		generations = n
		return wrapProjectRead("count generations", projectID, err)
	})
	g.Go(func() error {
		n, err := s.edits.CountByProject(gctx, projectID)
		edits = n
		return wrapProjectRead("count edits", projectID, err)
	})
	g.Go(func() error {
		rs, err := s.feedback.RatingSummary(gctx, projectID)
		summary = rs
		return wrapProjectRead("summarize ratings", projectID, err)
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to compute project usage stats",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return nil, err
	}

	ai, manual := analytics.UsageSplit(generations, edits)
	return &models.ProjectUsageStats{
		GenerationCount:       generations,
		EditCount:             edits,
		AIGeneratedPercentage: ai,
		ManualEditPercentage:  manual,
		AverageRating:         analytics.AverageOrZero(summary.Average),
		RatingCount:           summary.Count,
	}, nil
}

func (s *usageAnalytics) CalculateDailyMetrics(ctx context.Context, date *time.Time) (metric *models.UsageMetric, err error) {
	at := s.now()
	if date != nil {
		at = *date
	}
	day := analytics.DayStart(at)

	start := time.Now()
	defer func() {
		total := 0
		if metric != nil {
			total = metric.TotalProjects
		}
		s.metrics.RollupFinished(time.Since(start), total, err)
	}()

	release, err := s.locker.Acquire(ctx, day)
	if err != nil {
		if errors.Is(err, database.ErrLockHeld) {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrConflict, err)
		}
		return nil, apperrors.NewCollaboratorError("acquire day lock", err).ForDay(day)
	}
	defer release()

	activity, err := s.projects.ListActivityAsOf(ctx, day)
	if err != nil {
		s.logger.Error("Failed to read project activity",
			zap.Time("day", day),
			zap.Error(err))
		return nil, apperrors.NewCollaboratorError("read project activity", err).ForDay(day)
	}

	metric = analytics.ComputeDailyRollup(day, activity)
	if err := s.usageMetrics.Upsert(ctx, metric); err != nil {
		s.logger.Error("Failed to store daily metrics",
			zap.Time("day", day),
			zap.Error(err))
		return nil, apperrors.NewCollaboratorError("store daily metrics", err).ForDay(day)
	}

	s.logger.Info("Daily metrics calculated",
		zap.Time("day", day),
		zap.Int("total_projects", metric.TotalProjects),
		zap.Int64("generations", metric.GenerationCount),
		zap.Int64("edits", metric.EditCount))
	return metric, nil
}

func (s *usageAnalytics) HistoricalMetrics(ctx context.Context, days *int) ([]*models.UsageMetric, error) {
	window := s.historyDays
	if days != nil {
		if *days < 0 {
			return nil, apperrors.InvalidInput("days must not be negative, got %d", *days)
		}
		window = *days
	}

	to := s.now().UTC()
	from := to.AddDate(0, 0, -window)
	metrics, err := s.usageMetrics.ListRange(ctx, from, to)
	if err != nil {
		return nil, apperrors.NewCollaboratorError("list daily metrics", err)
	}
	return nonNil(metrics), nil
}

func (s *usageAnalytics) RecurringFeedbackPatterns(ctx context.Context, projectID *uuid.UUID) ([]models.FeedbackPattern, error) {
	feedback, err := s.feedback.ListChronological(ctx, projectID)
	if err != nil {
		cerr := apperrors.NewCollaboratorError("list feedback", err)
		if projectID != nil {
			cerr = cerr.ForProject(*projectID)
		}
		return nil, cerr
	}
	return nonNil(analytics.DetectFeedbackPatterns(feedback)), nil
}

func (s *usageAnalytics) MostEditedGenerationTypes(ctx context.Context) ([]models.EditedGenerationType, error) {
	types, err := s.edits.CountByGenerationType(ctx, MostEditedTypesLimit)
	if err != nil {
		return nil, apperrors.NewCollaboratorError("count edits by generation type", err)
	}
	return nonNil(types), nil
}

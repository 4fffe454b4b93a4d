package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/buildyoursite/buildyoursite-engine/pkg/analytics"
	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
	"github.com/buildyoursite/buildyoursite-engine/pkg/database"
	"github.com/buildyoursite/buildyoursite-engine/pkg/instrumentation"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories"
)

// CollectFeedbackInput is one piece of client feedback.
// Rating is expected to be 1-5 but is stored as given.
type CollectFeedbackInput struct {
	ProjectID  uuid.UUID `json:"-"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	Rating     *int      `json:"rating,omitempty"`
	ClientName *string   `json:"client_name,omitempty"`
}

// FeedbackCollector records client feedback and summarizes it per project.
type FeedbackCollector interface {
	CollectFeedback(ctx context.Context, input *CollectFeedbackInput) (*models.Feedback, error)
	// ListFeedback returns feedback newest first, filtered by type when one is given.
	ListFeedback(ctx context.Context, projectID uuid.UUID, feedbackType string) ([]*models.Feedback, error)
	FeedbackStats(ctx context.Context, projectID uuid.UUID) (*models.FeedbackStats, error)
	// AverageRating averages rated feedback, 0 when nothing is rated.
	AverageRating(ctx context.Context, projectID uuid.UUID) (float64, error)
}

type feedbackCollector struct {
	projects repositories.ProjectRepository
	feedback repositories.FeedbackRepository
	metrics  *instrumentation.Metrics
	logger   *zap.Logger
}

// NewFeedbackCollector creates a new FeedbackCollector. metrics may be nil.
func NewFeedbackCollector(
	projects repositories.ProjectRepository,
	feedback repositories.FeedbackRepository,
	metrics *instrumentation.Metrics,
	logger *zap.Logger,
) FeedbackCollector {
	return &feedbackCollector{
		projects: projects,
		feedback: feedback,
		metrics:  metrics,
		logger:   logger.Named("feedback-collector"),
	}
}

var _ FeedbackCollector = (*feedbackCollector)(nil)

func (s *feedbackCollector) CollectFeedback(ctx context.Context, input *CollectFeedbackInput) (*models.Feedback, error) {
	if input.Type == "" || strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.InvalidInput("type and content are required")
	}
	feedbackType, ok := models.ParseFeedbackType(input.Type)
	if !ok {
		return nil, apperrors.InvalidInput("unknown feedback type %q", input.Type)
	}
	if err := requireProject(ctx, s.projects, input.ProjectID); err != nil {
		return nil, err
	}

	feedback := &models.Feedback{
		ProjectID:  input.ProjectID,
		Type:       feedbackType,
		Content:    input.Content,
		Rating:     input.Rating,
		ClientName: input.ClientName,
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		s.logger.Error("Failed to collect feedback",
			zap.String("project_id", input.ProjectID.String()),
			zap.Error(err))
		return nil, err
	}

	s.metrics.EventRecorded("feedback", string(feedbackType))
	return feedback, nil
}

func (s *feedbackCollector) ListFeedback(ctx context.Context, projectID uuid.UUID, feedbackType string) ([]*models.Feedback, error) {
	var (
		feedback []*models.Feedback
		err      error
	)
	if feedbackType == "" {
		feedback, err = s.feedback.ListByProject(ctx, projectID, 0)
	} else {
		parsed, ok := models.ParseFeedbackType(feedbackType)
		if !ok {
			return nil, apperrors.InvalidInput("unknown feedback type %q", feedbackType)
		}
		feedback, err = s.feedback.ListByProjectAndType(ctx, projectID, parsed)
	}
	if err != nil {
		s.logger.Error("Failed to list feedback",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return nil, err
	}
	return nonNil(feedback), nil
}

func (s *feedbackCollector) FeedbackStats(ctx context.Context, projectID uuid.UUID) (*models.FeedbackStats, error) {
	stats := &models.FeedbackStats{}

	g, gctx := errgroup.WithContext(database.Detach(ctx))
	g.Go(func() error {
		byType, err := s.feedback.CountByType(gctx, projectID)
		stats.ByType = byType
		return wrapProjectRead("count feedback by type", projectID, err)
	})
	g.Go(func() error {
		byRating, err := s.feedback.CountByRating(gctx, projectID)
		stats.ByRating = byRating
		return wrapProjectRead("count feedback by rating", projectID, err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.ByType = nonNil(stats.ByType)
	stats.ByRating = nonNil(stats.ByRating)
	return stats, nil
}

func (s *feedbackCollector) AverageRating(ctx context.Context, projectID uuid.UUID) (float64, error) {
	summary, err := s.feedback.RatingSummary(ctx, projectID)
	if err != nil {
		return 0, apperrors.NewCollaboratorError("average rating", err).ForProject(projectID)
	}
	return analytics.AverageOrZero(summary.Average), nil
}

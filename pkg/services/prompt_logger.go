package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
	"github.com/buildyoursite/buildyoursite-engine/pkg/instrumentation"
	"github.com/buildyoursite/buildyoursite-engine/pkg/logging"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories"
)

// LogGenerationInput describes one AI generation to record.
// GenerationType is accepted in any case, e.g. "full_page".
type LogGenerationInput struct {
	ProjectID      uuid.UUID       `json:"-"`
	Model          *string         `json:"model,omitempty"`
	Prompt         string          `json:"prompt"`
	Output         string          `json:"output"`
	Temperature    *float64        `json:"temperature,omitempty"`
	GenerationType string          `json:"generation_type"`
	Metadata       models.JSONBMap `json:"metadata,omitempty"`
}

// PromptLogger records AI generations and reports on them per project.
type PromptLogger interface {
	LogGeneration(ctx context.Context, input *LogGenerationInput) (*models.Generation, error)
	// ListGenerations returns generations newest first, filtered by type when one is given.
	ListGenerations(ctx context.Context, projectID uuid.UUID, generationType string) ([]*models.Generation, error)
	GenerationStats(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error)
}

type promptLogger struct {
	projects    repositories.ProjectRepository
	generations repositories.GenerationRepository
	metrics     *instrumentation.Metrics
	logger      *zap.Logger
}

// NewPromptLogger creates a new PromptLogger. metrics may be nil.
func NewPromptLogger(
	projects repositories.ProjectRepository,
	generations repositories.GenerationRepository,
	metrics *instrumentation.Metrics,
	logger *zap.Logger,
) PromptLogger {
	return &promptLogger{
		projects:    projects,
		generations: generations,
		metrics:     metrics,
		logger:      logger.Named("prompt-logger"),
	}
}

var _ PromptLogger = (*promptLogger)(nil)

func (s *promptLogger) LogGeneration(ctx context.Context, input *LogGenerationInput) (*models.Generation, error) {
	if strings.TrimSpace(input.Prompt) == "" || input.Output == "" || input.GenerationType == "" {
		return nil, apperrors.InvalidInput("prompt, output and generation_type are required")
	}
	generationType, ok := models.ParseGenerationType(input.GenerationType)
	if !ok {
		return nil, apperrors.InvalidInput("unknown generation type %q", input.GenerationType)
	}
	if err := requireProject(ctx, s.projects, input.ProjectID); err != nil {
		return nil, err
	}

	generation := &models.Generation{
		ProjectID:      input.ProjectID,
		Model:          input.Model,
		Prompt:         input.Prompt,
		Output:         input.Output,
		Temperature:    input.Temperature,
		GenerationType: generationType,
		Metadata:       input.Metadata,
	}
	if err := s.generations.Create(ctx, generation); err != nil {
		s.logger.Error("Failed to log generation",
			zap.String("project_id", input.ProjectID.String()),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	s.metrics.EventRecorded("generation", string(generationType))
	s.logger.Debug("Generation logged",
		zap.String("project_id", generation.ProjectID.String()),
		zap.String("generation_id", generation.ID.String()),
		zap.String("type", string(generationType)),
		zap.String("prompt", logging.SanitizePrompt(generation.Prompt)))
	return generation, nil
}

func (s *promptLogger) ListGenerations(ctx context.Context, projectID uuid.UUID, generationType string) ([]*models.Generation, error) {
	var (
		generations []*models.Generation
		err         error
	)
	if generationType == "" {
		generations, err = s.generations.ListByProject(ctx, projectID, 0)
	} else {
		parsed, ok := models.ParseGenerationType(generationType)
		if !ok {
			return nil, apperrors.InvalidInput("unknown generation type %q", generationType)
		}
		generations, err = s.generations.ListByProjectAndType(ctx, projectID, parsed)
	}
	if err != nil {
		s.logger.Error("Failed to list generations",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return nil, err
	}
	return nonNil(generations), nil
}

func (s *promptLogger) GenerationStats(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error) {
	stats, err := s.generations.CountByType(ctx, projectID)
	if err != nil {
		return nil, apperrors.NewCollaboratorError("count generations by type", err).ForProject(projectID)
	}
	return nonNil(stats), nil
}

// requireProject returns ErrNotFound when the project does not exist.
func requireProject(ctx context.Context, projects repositories.ProjectRepository, projectID uuid.UUID) error {
	if projectID == uuid.Nil {
		return apperrors.InvalidInput("project id is required")
	}
	if _, err := projects.Get(ctx, projectID); err != nil {
		return err
	}
	return nil
}

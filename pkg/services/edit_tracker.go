package services

import (
	"context"
	"errors"

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

// TrackEditInput describes a manual change to generated content.
type TrackEditInput struct {
	ProjectID       uuid.UUID  `json:"-"`
	GenerationID    *uuid.UUID `json:"generation_id,omitempty"`
	OriginalContent string     `json:"original_content"`
	EditedContent   string     `json:"edited_content"`
	EditType        string     `json:"edit_type"`
	Reason          *string    `json:"reason,omitempty"`
}

// EditTracker records manual edits and reports how much of a project was hand edited.
type EditTracker interface {
	TrackEdit(ctx context.Context, input *TrackEditInput) (*models.Edit, error)
	// ListEdits returns edits newest first, filtered by type when one is given.
	ListEdits(ctx context.Context, projectID uuid.UUID, editType string) ([]*models.Edit, error)
	EditStats(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error)
	// EditRatio is edits per generation, 0 when the project has no generations.
	EditRatio(ctx context.Context, projectID uuid.UUID) (float64, error)
}

type editTracker struct {
	projects    repositories.ProjectRepository
	generations repositories.GenerationRepository
	edits       repositories.EditRepository
	metrics     *instrumentation.Metrics
	logger      *zap.Logger
}

// NewEditTracker creates a new EditTracker. metrics may be nil.
func NewEditTracker(
	projects repositories.ProjectRepository,
	generations repositories.GenerationRepository,
	edits repositories.EditRepository,
	metrics *instrumentation.Metrics,
	logger *zap.Logger,
) EditTracker {
	return &editTracker{
		projects:    projects,
		generations: generations,
		edits:       edits,
		metrics:     metrics,
		logger:      logger.Named("edit-tracker"),
	}
}

var _ EditTracker = (*editTracker)(nil)

func (s *editTracker) TrackEdit(ctx context.Context, input *TrackEditInput) (*models.Edit, error) {
	if input.OriginalContent == "" || input.EditedContent == "" || input.EditType == "" {
		return nil, apperrors.InvalidInput("original_content, edited_content and edit_type are required")
	}
	editType, ok := models.ParseEditType(input.EditType)
	if !ok {
		return nil, apperrors.InvalidInput("unknown edit type %q", input.EditType)
	}
	if err := requireProject(ctx, s.projects, input.ProjectID); err != nil {
		return nil, err
	}
	if input.GenerationID != nil {
		if err := s.checkGeneration(ctx, input.ProjectID, *input.GenerationID); err != nil {
			return nil, err
		}
	}

	edit := &models.Edit{
		ProjectID:       input.ProjectID,
		GenerationID:    input.GenerationID,
		OriginalContent: input.OriginalContent,
		EditedContent:   input.EditedContent,
		EditType:        editType,
		Reason:          input.Reason,
	}
	if err := s.edits.Create(ctx, edit); err != nil {
		s.logger.Error("Failed to track edit",
			zap.String("project_id", input.ProjectID.String()),
			zap.Error(err))
		return nil, err
	}

	s.metrics.EventRecorded("edit", string(editType))
	return edit, nil
}

// checkGeneration verifies an edited generation exists and belongs to the project.
func (s *editTracker) checkGeneration(ctx context.Context, projectID, generationID uuid.UUID) error {
	generation, err := s.generations.Get(ctx, generationID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.InvalidInput("generation %s not found", generationID)
	}
	if err != nil {
		return err
	}
	if generation.ProjectID != projectID {
		return apperrors.InvalidInput("generation %s belongs to another project", generationID)
	}
	return nil
}

func (s *editTracker) ListEdits(ctx context.Context, projectID uuid.UUID, editType string) ([]*models.Edit, error) {
	var (
		edits []*models.Edit
		err   error
	)
	if editType == "" {
		edits, err = s.edits.ListByProject(ctx, projectID, 0)
	} else {
		parsed, ok := models.ParseEditType(editType)
		if !ok {
			return nil, apperrors.InvalidInput("unknown edit type %q", editType)
		}
		edits, err = s.edits.ListByProjectAndType(ctx, projectID, parsed)
	}
	if err != nil {
		s.logger.Error("Failed to list edits",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return nil, err
	}
	return nonNil(edits), nil
}

func (s *editTracker) EditStats(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error) {
	stats, err := s.edits.CountByType(ctx, projectID)
	if err != nil {
		return nil, apperrors.NewCollaboratorError("count edits by type", err).ForProject(projectID)
	}
	return nonNil(stats), nil
}

func (s *editTracker) EditRatio(ctx context.Context, projectID uuid.UUID) (float64, error) {
	var generations, edits int64

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
	if err := g.Wait(); err != nil {
		return 0, err
	}

	return analytics.EditRatio(generations, edits), nil
}

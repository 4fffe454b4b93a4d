package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
	"github.com/buildyoursite/buildyoursite-engine/pkg/database"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories"
)

// RecentRecordsLimit is how many of each record kind a project detail includes.
const RecentRecordsLimit = 10

// CreateProjectInput is the data needed to start a project.
type CreateProjectInput struct {
	Name        string  `json:"name"`
	ClientName  *string `json:"client_name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// UpdateProjectInput carries the fields to change. Nil fields are left unchanged.
// Status is accepted in any case.
type UpdateProjectInput struct {
	Name        *string `json:"name,omitempty"`
	ClientName  *string `json:"client_name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// ProjectService manages projects and assembles the project detail view.
type ProjectService interface {
	Create(ctx context.Context, input *CreateProjectInput) (*models.Project, error)
	// Get returns the project with its record counts and most recent records.
	Get(ctx context.Context, id uuid.UUID) (*models.ProjectDetail, error)
	// List returns projects newest update first. An empty status returns all projects.
	List(ctx context.Context, status string) ([]*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, input *UpdateProjectInput) (*models.Project, error)
}

type projectService struct {
	projects    repositories.ProjectRepository
	generations repositories.GenerationRepository
	edits       repositories.EditRepository
	feedback    repositories.FeedbackRepository
	logger      *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(
	projects repositories.ProjectRepository,
	generations repositories.GenerationRepository,
	edits repositories.EditRepository,
	feedback repositories.FeedbackRepository,
	logger *zap.Logger,
) ProjectService {
	return &projectService{
		projects:    projects,
		generations: generations,
		edits:       edits,
		feedback:    feedback,
		logger:      logger.Named("project-service"),
	}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) Create(ctx context.Context, input *CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("project name is required")
	}

	project := &models.Project{
		Name:        name,
		ClientName:  input.ClientName,
		Description: input.Description,
		Status:      models.ProjectStatusActive,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		s.logger.Error("Failed to create project", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("name", project.Name))
	return project, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*models.ProjectDetail, error) {
	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.ProjectDetail{Project: *project}

	g, gctx := errgroup.WithContext(database.Detach(ctx))
	g.Go(func() error {
		n, err := s.generations.CountByProject(gctx, id)
		detail.Counts.Generations = n
		return wrapProjectRead("count generations", id, err)
	})
	g.Go(func() error {
		n, err := s.edits.CountByProject(gctx, id)
		detail.Counts.Edits = n
		return wrapProjectRead("count edits", id, err)
	})
	g.Go(func() error {
		n, err := s.feedback.CountByProject(gctx, id)
		detail.Counts.Feedback = n
		return wrapProjectRead("count feedback", id, err)
	})
	g.Go(func() error {
		recent, err := s.generations.ListByProject(gctx, id, RecentRecordsLimit)
		detail.RecentGenerations = recent
		return wrapProjectRead("list recent generations", id, err)
	})
	g.Go(func() error {
		recent, err := s.edits.ListByProject(gctx, id, RecentRecordsLimit)
		detail.RecentEdits = recent
		return wrapProjectRead("list recent edits", id, err)
	})
	g.Go(func() error {
		recent, err := s.feedback.ListByProject(gctx, id, RecentRecordsLimit)
		detail.RecentFeedback = recent
		return wrapProjectRead("list recent feedback", id, err)
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load project detail",
			zap.String("project_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	detail.RecentGenerations = nonNil(detail.RecentGenerations)
	detail.RecentEdits = nonNil(detail.RecentEdits)
	detail.RecentFeedback = nonNil(detail.RecentFeedback)
	return detail, nil
}

func (s *projectService) List(ctx context.Context, status string) ([]*models.Project, error) {
	var filter *models.ProjectStatus
	if strings.TrimSpace(status) != "" {
		parsed, ok := models.ParseProjectStatus(status)
		if !ok {
			return nil, apperrors.InvalidInput("unknown project status %q", status)
		}
		filter = &parsed
	}

	projects, err := s.projects.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list projects", zap.Error(err))
		return nil, err
	}
	return nonNil(projects), nil
}

func (s *projectService) Update(ctx context.Context, id uuid.UUID, input *UpdateProjectInput) (*models.Project, error) {
	update := models.ProjectUpdate{
		ClientName:  input.ClientName,
		Description: input.Description,
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("project name cannot be empty")
		}
		update.Name = &name
	}
	if input.Status != nil {
		status, ok := models.ParseProjectStatus(*input.Status)
		if !ok {
			return nil, apperrors.InvalidInput("unknown project status %q", *input.Status)
		}
		update.Status = &status
	}

	project, err := s.projects.Update(ctx, id, update)
	if err != nil {
		s.logger.Error("Failed to update project",
			zap.String("project_id", id.String()),
			zap.Error(err))
		return nil, err
	}
	return project, nil
}

// wrapProjectRead tags a failed read with the operation and project.
func wrapProjectRead(op string, projectID uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	return apperrors.NewCollaboratorError(op, err).ForProject(projectID)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

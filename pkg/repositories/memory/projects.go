package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories"
)

type projectRepository struct {
	s *Store
}

var _ repositories.ProjectRepository = (*projectRepository)(nil)

func (r *projectRepository) Create(_ context.Context, project *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if _, exists := r.s.projects[project.ID]; exists {
		return apperrors.ErrConflict
	}

	now := r.s.now()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Status == "" {
		project.Status = models.ProjectStatusActive
	}

	r.s.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *projectRepository) Get(_ context.Context, id uuid.UUID) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneProject(p), nil
}

func (r *projectRepository) List(_ context.Context, status *models.ProjectStatus) ([]*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	projects := make([]*models.Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		if status != nil && p.Status != *status {
			continue
		}
		projects = append(projects, cloneProject(p))
	}
	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].UpdatedAt.Equal(projects[j].UpdatedAt) {
			return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
		}
		return projects[i].ID.String() < projects[j].ID.String()
	})
	return projects, nil
}

func (r *projectRepository) Update(_ context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.ClientName != nil {
		v := *update.ClientName
		p.ClientName = &v
	}
	if update.Description != nil {
		v := *update.Description
		p.Description = &v
	}
	if update.Status != nil {
		p.Status = *update.Status
	}
	p.UpdatedAt = r.s.now()

	return cloneProject(p), nil
}

func (r *projectRepository) ListActivityAsOf(_ context.Context, dayStart time.Time) ([]models.ProjectActivity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	index := make(map[uuid.UUID]int)
	activity := make([]models.ProjectActivity, 0)
	for _, p := range r.s.projects {
		if p.CreatedAt.After(dayStart) {
			continue
		}
		index[p.ID] = len(activity)
		activity = append(activity, models.ProjectActivity{ProjectID: p.ID, CreatedAt: p.CreatedAt, Ratings: []int{}})
	}

	for _, g := range r.s.generations {
		if i, ok := index[g.ProjectID]; ok {
			activity[i].GenerationCount++
		}
	}
	for _, e := range r.s.edits {
		if i, ok := index[e.ProjectID]; ok {
			activity[i].EditCount++
		}
	}
	// r.s.feedback is in insertion order, which matches created_at order for
	// records written through the store.
	for _, f := range r.s.feedback {
		if i, ok := index[f.ProjectID]; ok && f.Rating != nil {
			activity[i].Ratings = append(activity[i].Ratings, *f.Rating)
		}
	}

	sort.Slice(activity, func(i, j int) bool {
		if !activity[i].CreatedAt.Equal(activity[j].CreatedAt) {
			return activity[i].CreatedAt.Before(activity[j].CreatedAt)
		}
		return activity[i].ProjectID.String() < activity[j].ProjectID.String()
	})
	return activity, nil
}

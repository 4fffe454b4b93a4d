// Package memory provides an in-process implementation of the repository
// interfaces. It is selected with storage.driver=memory and keeps nothing across
// restarts.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories"
)

// Store holds every record behind one lock. Records are copied on the way in and
// on the way out so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	now func() time.Time

	projects    map[uuid.UUID]*models.Project
	generations []*models.Generation
	edits       []*models.Edit
	feedback    []*models.Feedback
	metrics     map[time.Time]*models.UsageMetric
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		projects: make(map[uuid.UUID]*models.Project),
		metrics:  make(map[time.Time]*models.UsageMetric),
	}
}

// SetClock replaces the clock used to stamp created_at and updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Repositories bundles the store's views as repository interfaces.
type Repositories struct {
	Projects     repositories.ProjectRepository
	Generations  repositories.GenerationRepository
	Edits        repositories.EditRepository
	Feedback     repositories.FeedbackRepository
	UsageMetrics repositories.UsageMetricRepository
}

// Repositories returns the repository views backed by s.
func (s *Store) Repositories() Repositories {
	return Repositories{
		Projects:     &projectRepository{s: s},
		Generations:  &generationRepository{s: s},
		Edits:        &editRepository{s: s},
		Feedback:     &feedbackRepository{s: s},
		UsageMetrics: &usageMetricRepository{s: s},
	}
}

// requireProject must be called with s.mu held.
func (s *Store) requireProject(id uuid.UUID) error {
	if _, ok := s.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	return nil
}

// newestFirst sorts by created_at descending, breaking ties by insertion order
// (later insert first). items must be in insertion order.
func newestFirst[T any](items []T, createdAt func(T) time.Time) []T {
	out := make([]T, len(items))
	for i := range items {
		out[i] = items[len(items)-1-i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdAt(out[i]).After(createdAt(out[j]))
	})
	return out
}

func limitSlice[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func cloneProject(p *models.Project) *models.Project {
	c := *p
	return &c
}

func cloneGeneration(g *models.Generation) *models.Generation {
	c := *g
	if g.Metadata != nil {
		c.Metadata = make(models.JSONBMap, len(g.Metadata))
		for k, v := range g.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func cloneEdit(e *models.Edit) *models.Edit {
	c := *e
	c.Generation = nil
	return &c
}

func cloneFeedback(f *models.Feedback) *models.Feedback {
	c := *f
	if f.Rating != nil {
		r := *f.Rating
		c.Rating = &r
	}
	return &c
}

func cloneMetric(m *models.UsageMetric) *models.UsageMetric {
	c := *m
	if m.AverageRating != nil {
		avg := *m.AverageRating
		c.AverageRating = &avg
	}
	return &c
}

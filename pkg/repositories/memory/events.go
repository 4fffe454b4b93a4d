package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/buildyoursite/buildyoursite-engine/pkg/analytics"
	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories"
)

type generationRepository struct {
	s *Store
}

var _ repositories.GenerationRepository = (*generationRepository)(nil)

func (r *generationRepository) Create(_ context.Context, generation *models.Generation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.requireProject(generation.ProjectID); err != nil {
		return err
	}
	if generation.ID == uuid.Nil {
		generation.ID = uuid.New()
	}
	if generation.CreatedAt.IsZero() {
		generation.CreatedAt = r.s.now()
	}
	r.s.generations = append(r.s.generations, cloneGeneration(generation))
	return nil
}

func (r *generationRepository) Get(_ context.Context, id uuid.UUID) (*models.Generation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, g := range r.s.generations {
		if g.ID == id {
			return cloneGeneration(g), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *generationRepository) ListByProject(_ context.Context, projectID uuid.UUID, limit int) ([]*models.Generation, error) {
	return r.filter(projectID, limit, func(*models.Generation) bool { return true }), nil
}

func (r *generationRepository) ListByProjectAndType(_ context.Context, projectID uuid.UUID, generationType models.GenerationType) ([]*models.Generation, error) {
	return r.filter(projectID, 0, func(g *models.Generation) bool { return g.GenerationType == generationType }), nil
}

func (r *generationRepository) filter(projectID uuid.UUID, limit int, keep func(*models.Generation) bool) []*models.Generation {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]*models.Generation, 0)
	for _, g := range r.s.generations {
		if g.ProjectID == projectID && keep(g) {
			matched = append(matched, cloneGeneration(g))
		}
	}
	matched = newestFirst(matched, func(g *models.Generation) time.Time { return g.CreatedAt })
	return limitSlice(matched, limit)
}

func (r *generationRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	list, _ := r.ListByProject(ctx, projectID, 0)
	return int64(len(list)), nil
}

func (r *generationRepository) CountByType(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error) {
	list, _ := r.ListByProject(ctx, projectID, 0)
	return analytics.GenerationsByType(list), nil
}

type editRepository struct {
	s *Store
}

var _ repositories.EditRepository = (*editRepository)(nil)

func (r *editRepository) Create(_ context.Context, edit *models.Edit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.requireProject(edit.ProjectID); err != nil {
		return err
	}
	if edit.GenerationID != nil && r.s.generation(*edit.GenerationID) == nil {
		return apperrors.ErrNotFound
	}
	if edit.ID == uuid.Nil {
		edit.ID = uuid.New()
	}
	if edit.CreatedAt.IsZero() {
		edit.CreatedAt = r.s.now()
	}
	r.s.edits = append(r.s.edits, cloneEdit(edit))
	return nil
}

func (r *editRepository) ListByProject(_ context.Context, projectID uuid.UUID, limit int) ([]*models.Edit, error) {
	return r.filter(projectID, limit, func(*models.Edit) bool { return true }), nil
}

func (r *editRepository) ListByProjectAndType(_ context.Context, projectID uuid.UUID, editType models.EditType) ([]*models.Edit, error) {
	return r.filter(projectID, 0, func(e *models.Edit) bool { return e.EditType == editType }), nil
}

func (r *editRepository) filter(projectID uuid.UUID, limit int, keep func(*models.Edit) bool) []*models.Edit {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]*models.Edit, 0)
	for _, e := range r.s.edits {
		if e.ProjectID != projectID || !keep(e) {
			continue
		}
		c := cloneEdit(e)
		if e.GenerationID != nil {
			if g := r.s.generation(*e.GenerationID); g != nil {
				c.Generation = &models.Generation{
					ID:             g.ID,
					ProjectID:      g.ProjectID,
					Model:          g.Model,
					Prompt:         g.Prompt,
					GenerationType: g.GenerationType,
					CreatedAt:      g.CreatedAt,
				}
			}
		}
		matched = append(matched, c)
	}
	matched = newestFirst(matched, func(e *models.Edit) time.Time { return e.CreatedAt })
	return limitSlice(matched, limit)
}

func (r *editRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	list, _ := r.ListByProject(ctx, projectID, 0)
	return int64(len(list)), nil
}

func (r *editRepository) CountByType(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error) {
	list, _ := r.ListByProject(ctx, projectID, 0)
	return analytics.EditsByType(list), nil
}

func (r *editRepository) CountByGenerationType(_ context.Context, limit int) ([]models.EditedGenerationType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	linked := make([]*models.Generation, 0, len(r.s.edits))
	for _, e := range r.s.edits {
		if e.GenerationID == nil {
			continue
		}
		if g := r.s.generation(*e.GenerationID); g != nil {
			linked = append(linked, g)
		}
	}

	groups := analytics.CountBy(linked, func(g *models.Generation) models.GenerationType { return g.GenerationType })
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})

	result := make([]models.EditedGenerationType, 0, len(groups))
	for _, g := range limitSlice(groups, limit) {
		result = append(result, models.EditedGenerationType{GenerationType: g.Key, EditCount: g.Count})
	}
	return result, nil
}

// generation must be called with s.mu held.
func (s *Store) generation(id uuid.UUID) *models.Generation {
	for _, g := range s.generations {
		if g.ID == id {
			return g
		}
	}
	return nil
}

type feedbackRepository struct {
	s *Store
}

var _ repositories.FeedbackRepository = (*feedbackRepository)(nil)

func (r *feedbackRepository) Create(_ context.Context, feedback *models.Feedback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.requireProject(feedback.ProjectID); err != nil {
		return err
	}
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = r.s.now()
	}
	r.s.feedback = append(r.s.feedback, cloneFeedback(feedback))
	return nil
}

func (r *feedbackRepository) ListByProject(_ context.Context, projectID uuid.UUID, limit int) ([]*models.Feedback, error) {
	matched := r.chronological(&projectID, func(*models.Feedback) bool { return true })
	matched = newestFirst(matched, func(f *models.Feedback) time.Time { return f.CreatedAt })
	return limitSlice(matched, limit), nil
}

func (r *feedbackRepository) ListByProjectAndType(_ context.Context, projectID uuid.UUID, feedbackType models.FeedbackType) ([]*models.Feedback, error) {
	matched := r.chronological(&projectID, func(f *models.Feedback) bool { return f.Type == feedbackType })
	return newestFirst(matched, func(f *models.Feedback) time.Time { return f.CreatedAt }), nil
}

func (r *feedbackRepository) ListChronological(_ context.Context, projectID *uuid.UUID) ([]*models.Feedback, error) {
	matched := r.chronological(projectID, func(*models.Feedback) bool { return true })
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

// chronological returns copies of matching feedback in insertion order.
func (r *feedbackRepository) chronological(projectID *uuid.UUID, keep func(*models.Feedback) bool) []*models.Feedback {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]*models.Feedback, 0)
	for _, f := range r.s.feedback {
		if projectID != nil && f.ProjectID != *projectID {
			continue
		}
		if keep(f) {
			matched = append(matched, cloneFeedback(f))
		}
	}
	return matched
}

func (r *feedbackRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return int64(len(r.chronological(&projectID, func(*models.Feedback) bool { return true }))), nil
}

func (r *feedbackRepository) CountByType(_ context.Context, projectID uuid.UUID) ([]models.TypeCount, error) {
	return analytics.FeedbackByType(r.chronological(&projectID, func(*models.Feedback) bool { return true })), nil
}

func (r *feedbackRepository) CountByRating(_ context.Context, projectID uuid.UUID) ([]models.RatingCount, error) {
	counts := analytics.FeedbackByRating(r.chronological(&projectID, func(*models.Feedback) bool { return true }))
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Rating > counts[j].Rating })
	return counts, nil
}

func (r *feedbackRepository) RatingSummary(_ context.Context, projectID uuid.UUID) (models.RatingSummary, error) {
	return analytics.RatingSummary(r.chronological(&projectID, func(*models.Feedback) bool { return true })), nil
}

type usageMetricRepository struct {
	s *Store
}

var _ repositories.UsageMetricRepository = (*usageMetricRepository)(nil)

func (r *usageMetricRepository) Upsert(_ context.Context, metric *models.UsageMetric) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := metric.Date.UTC()
	if existing, ok := r.s.metrics[key]; ok {
		metric.ID = existing.ID
	} else if metric.ID == uuid.Nil {
		metric.ID = uuid.New()
	}

	stored := cloneMetric(metric)
	stored.Date = key
	r.s.metrics[key] = stored
	return nil
}

func (r *usageMetricRepository) GetByDate(_ context.Context, date time.Time) (*models.UsageMetric, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.metrics[date.UTC()]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneMetric(m), nil
}

func (r *usageMetricRepository) ListRange(_ context.Context, from, to time.Time) ([]*models.UsageMetric, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	metrics := make([]*models.UsageMetric, 0)
	for date, m := range r.s.metrics {
		if date.Before(from) || date.After(to) {
			continue
		}
		metrics = append(metrics, cloneMetric(m))
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Date.Before(metrics[j].Date) })
	return metrics, nil
}

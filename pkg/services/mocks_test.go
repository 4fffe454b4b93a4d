package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/buildyoursite/buildyoursite-engine/pkg/database"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories/memory"
)

var errStorage = errors.New("storage unavailable")

// testStore wraps the in-memory repositories with a controllable clock.
type testStore struct {
	memory.Repositories
	store *memory.Store
	clock time.Time
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	ts := &testStore{
		store: memory.NewStore(),
		clock: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	ts.store.SetClock(func() time.Time { return ts.clock })
	ts.Repositories = ts.store.Repositories()
	return ts
}

func (ts *testStore) advance(d time.Duration) { ts.clock = ts.clock.Add(d) }

func (ts *testStore) project(t *testing.T, name string) *models.Project {
	t.Helper()
	p := &models.Project{Name: name, Status: models.ProjectStatusActive}
	require.NoError(t, ts.Projects.Create(context.Background(), p))
	ts.advance(time.Minute)
	return p
}

func (ts *testStore) generation(t *testing.T, projectID uuid.UUID, genType models.GenerationType) *models.Generation {
	t.Helper()
	g := &models.Generation{ProjectID: projectID, Prompt: "p", Output: "<p>o</p>", GenerationType: genType}
	require.NoError(t, ts.Generations.Create(context.Background(), g))
	ts.advance(time.Minute)
	return g
}

func (ts *testStore) edit(t *testing.T, projectID uuid.UUID, generationID *uuid.UUID) *models.Edit {
	t.Helper()
	e := &models.Edit{
		ProjectID:       projectID,
		GenerationID:    generationID,
		OriginalContent: "a",
		EditedContent:   "b",
		EditType:        models.EditTypeContentChange,
	}
	require.NoError(t, ts.Edits.Create(context.Background(), e))
	ts.advance(time.Minute)
	return e
}

func (ts *testStore) feedback(t *testing.T, projectID uuid.UUID, fbType models.FeedbackType, content string, rating *int) *models.Feedback {
	t.Helper()
	f := &models.Feedback{ProjectID: projectID, Type: fbType, Content: content, Rating: rating}
	require.NoError(t, ts.Feedback.Create(context.Background(), f))
	ts.advance(time.Minute)
	return f
}

func intPtr(i int) *int             { return &i }
func strPtr(s string) *string       { return &s }
func timePtr(t time.Time) *time.Time { return &t }

// failingGenerationRepository fails every count.
type failingGenerationRepository struct {
	repositories.GenerationRepository
}

func (r *failingGenerationRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return 0, errStorage
}

func (r *failingGenerationRepository) CountByType(ctx context.Context, projectID uuid.UUID) ([]models.TypeCount, error) {
	return nil, errStorage
}

// failingFeedbackRepository fails aggregate reads.
type failingFeedbackRepository struct {
	repositories.FeedbackRepository
}

func (r *failingFeedbackRepository) RatingSummary(ctx context.Context, projectID uuid.UUID) (models.RatingSummary, error) {
	return models.RatingSummary{}, errStorage
}

func (r *failingFeedbackRepository) CountByRating(ctx context.Context, projectID uuid.UUID) ([]models.RatingCount, error) {
	return nil, errStorage
}

func (r *failingFeedbackRepository) ListChronological(ctx context.Context, projectID *uuid.UUID) ([]*models.Feedback, error) {
	return nil, errStorage
}

// failingActivityRepository fails the rollup snapshot read.
type failingActivityRepository struct {
	repositories.ProjectRepository
}

func (r *failingActivityRepository) ListActivityAsOf(ctx context.Context, dayStart time.Time) ([]models.ProjectActivity, error) {
	return nil, errStorage
}

// recordingUsageMetricRepository counts upserts and can be told to fail them.
type recordingUsageMetricRepository struct {
	repositories.UsageMetricRepository
	upserts int
	err     error
}

func (r *recordingUsageMetricRepository) Upsert(ctx context.Context, metric *models.UsageMetric) error {
	r.upserts++
	if r.err != nil {
		return r.err
	}
	return r.UsageMetricRepository.Upsert(ctx, metric)
}

// stubDayLocker returns a fixed error from Acquire, or succeeds and counts releases.
type stubDayLocker struct {
	err      error
	days     []time.Time
	released int
}

func (l *stubDayLocker) Acquire(ctx context.Context, day time.Time) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.days = append(l.days, day)
	return func() { l.released++ }, nil
}

var _ database.DayLocker = (*stubDayLocker)(nil)

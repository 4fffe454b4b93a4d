//go:build integration

package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
	"github.com/buildyoursite/buildyoursite-engine/pkg/database"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/testhelpers"
)

// repoTestContext holds test dependencies for repository tests.
type repoTestContext struct {
	t           *testing.T
	engineDB    *testhelpers.EngineDB
	projects    ProjectRepository
	generations GenerationRepository
	edits       EditRepository
	feedback    FeedbackRepository
	metrics     UsageMetricRepository
}

// setupRepoTest initializes the test context with the shared testcontainer and
// empties all tables.
func setupRepoTest(t *testing.T) *repoTestContext {
	engineDB := testhelpers.GetEngineDB(t)
	engineDB.Truncate(t)
	db := engineDB.DB
	return &repoTestContext{
		t:           t,
		engineDB:    engineDB,
		projects:    NewProjectRepository(db),
		generations: NewGenerationRepository(db),
		edits:       NewEditRepository(db),
		feedback:    NewFeedbackRepository(db),
		metrics:     NewUsageMetricRepository(db),
	}
}

// scopedContext returns a context carrying a pinned connection, the way requests run.
func (tc *repoTestContext) scopedContext() (context.Context, func()) {
	tc.t.Helper()
	ctx := context.Background()
	scope, err := tc.engineDB.DB.Acquire(ctx)
	if err != nil {
		tc.t.Fatalf("failed to acquire scope: %v", err)
	}
	return database.SetScope(ctx, scope), scope.Close
}

func (tc *repoTestContext) createProject(ctx context.Context, name string) *models.Project {
	tc.t.Helper()
	project := &models.Project{Name: name}
	if err := tc.projects.Create(ctx, project); err != nil {
		tc.t.Fatalf("failed to create project: %v", err)
	}
	return project
}

// backdateProject rewrites created_at so rollup boundaries can be tested.
func (tc *repoTestContext) backdateProject(ctx context.Context, id uuid.UUID, createdAt time.Time) {
	tc.t.Helper()
	_, err := tc.engineDB.DB.Pool.Exec(ctx, `UPDATE projects SET created_at = $2 WHERE id = $1`, id, createdAt)
	if err != nil {
		tc.t.Fatalf("failed to backdate project: %v", err)
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestProjectRepository_CreateAndGet(t *testing.T) {
	tc := setupRepoTest(t)
	ctx, cleanup := tc.scopedContext()
	defer cleanup()

	project := &models.Project{
		Name:        "Bakery Site",
		ClientName:  strPtr("Crumbs Ltd"),
		Description: strPtr("Landing page and menu"),
	}
	if err := tc.projects.Create(ctx, project); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if project.ID == uuid.Nil {
		t.Fatal("expected ID to be generated")
	}
	if project.Status != models.ProjectStatusActive {
		t.Errorf("expected default status ACTIVE, got %s", project.Status)
	}

	got, err := tc.projects.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Bakery Site" {
		t.Errorf("expected name 'Bakery Site', got %q", got.Name)
	}
	if got.ClientName == nil || *got.ClientName != "Crumbs Ltd" {
		t.Errorf("expected client name Crumbs Ltd, got %v", got.ClientName)
	}
}

func TestProjectRepository_Get_NotFound(t *testing.T) {
	tc := setupRepoTest(t)
	ctx, cleanup := tc.scopedContext()
	defer cleanup()

	_, err := tc.projects.Get(ctx, uuid.New())
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProjectRepository_ListFiltersByStatus(t *testing.T) {
	tc := setupRepoTest(t)
	ctx, cleanup := tc.scopedContext()
	defer cleanup()

	first := tc.createProject(ctx, "first")
	second := tc.createProject(ctx, "second")

	completed := models.ProjectStatusCompleted
	if _, err := tc.projects.Update(ctx, first.ID, models.ProjectUpdate{Status: &completed}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := tc.projects.List(ctx, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(all))
	}
	// Most recently updated first.
	if all[0].ID != first.ID {
		t.Errorf("expected updated project first, got %s", all[0].Name)
	}

	active := models.ProjectStatusActive
	onlyActive, err := tc.projects.List(ctx, &active)
	if err != nil {
		t.Fatalf("List(active) failed: %v", err)
	}
	if len(onlyActive) != 1 || onlyActive[0].ID != second.ID {
		t.Errorf("expected only the second project, got %+v", onlyActive)
	}
}

func TestProjectRepository_UpdatePartial(t *testing.T) {
	tc := setupRepoTest(t)
	ctx, cleanup := tc.scopedContext()
	defer cleanup()

	project := tc.createProject(ctx, "original")

	updated, err := tc.projects.Update(ctx, project.ID, models.ProjectUpdate{Description: strPtr("new description")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "original" {
		t.Errorf("expected name unchanged, got %q", updated.Name)
	}
	if updated.Description == nil || *updated.Description != "new description" {
		t.Errorf("expected description updated, got %v", updated.Description)
	}
	if !updated.UpdatedAt.After(project.UpdatedAt) && !updated.UpdatedAt.Equal(project.UpdatedAt) {
		t.Errorf("expected updated_at to advance")
	}

	_, err = tc.projects.Update(ctx, uuid.New(), models.ProjectUpdate{Name: strPtr("x")})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing project, got %v", err)
	}
}

func TestProjectRepository_ListActivityAsOf(t *testing.T) {
	tc := setupRepoTest(t)
	ctx, cleanup := tc.scopedContext()
	defer cleanup()

	day := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

	old := tc.createProject(ctx, "old")
	tc.backdateProject(ctx, old.ID, day.Add(-72*time.Hour))
	late := tc.createProject(ctx, "late")
	tc.backdateProject(ctx, late.ID, day.Add(time.Hour))

	for i := 0; i < 3; i++ {
		g := &models.Generation{ProjectID: old.ID, Prompt: "p", Output: "<html/>", GenerationType: models.GenerationTypeLayout}
		if err := tc.generations.Create(ctx, g); err != nil {
			t.Fatalf("create generation: %v", err)
		}
	}
	if err := tc.edits.Create(ctx, &models.Edit{ProjectID: old.ID, OriginalContent: "a", EditedContent: "b", EditType: models.EditTypeBugFix}); err != nil {
		t.Fatalf("create edit: %v", err)
	}
	for _, rating := range []*int{intPtr(5), nil, intPtr(3)} {
		f := &models.Feedback{ProjectID: old.ID, Type: models.FeedbackTypeGeneral, Content: "ok", Rating: rating}
		if err := tc.feedback.Create(ctx, f); err != nil {
			t.Fatalf("create feedback: %v", err)
		}
	}

	activity, err := tc.projects.ListActivityAsOf(ctx, day)
	if err != nil {
		t.Fatalf("ListActivityAsOf failed: %v", err)
	}
	if len(activity) != 1 {
		t.Fatalf("expected only the project created before the day, got %d", len(activity))
	}
	a := activity[0]
	if a.ProjectID != old.ID {
		t.Errorf("expected project %s, got %s", old.ID, a.ProjectID)
	}
	if a.GenerationCount != 3 || a.EditCount != 1 {
		t.Errorf("expected 3 generations and 1 edit, got %d/%d", a.GenerationCount, a.EditCount)
	}
	if len(a.Ratings) != 2 || a.Ratings[0] != 5 || a.Ratings[1] != 3 {
		t.Errorf("expected ratings [5 3], got %v", a.Ratings)
	}
}

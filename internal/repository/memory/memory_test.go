package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/models"
	"github.com/monocle-dev/taskhub/internal/repository"
)

func mustProject(t *testing.T, title string, tags ...string) *models.Project {
	t.Helper()

	p, err := models.NewProject(title, "", tags, "owner-1")
	if err != nil {
		t.Fatalf("NewProject(%q) failed: %v", title, err)
	}
	return p
}

func TestProjectRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository()

	for _, p := range []*models.Project{
		mustProject(t, "Alpha service", "go", "api"),
		mustProject(t, "Beta site", "web"),
		mustProject(t, "alphabet soup", "food"),
		mustProject(t, "Gamma", "api"),
	} {
		if err := repo.Save(ctx, p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	for name, testcase := range map[string]struct {
		filter    repository.ProjectFilter
		page      repository.Page
		wantLen   int
		wantTotal int64
	}{
		"no filter": {
			page: repository.Page{Page: 1, Limit: 10}, wantLen: 4, wantTotal: 4,
		},
		"tags are OR-matched": {
			filter: repository.ProjectFilter{Tags: []string{"api", "web"}},
			page:   repository.Page{Page: 1, Limit: 10}, wantLen: 3, wantTotal: 3,
		},
		"search is case-insensitive substring": {
			filter: repository.ProjectFilter{Search: "ALPHA"},
			page:   repository.Page{Page: 1, Limit: 10}, wantLen: 2, wantTotal: 2,
		},
		"total ignores pagination": {
			page: repository.Page{Page: 2, Limit: 3}, wantLen: 1, wantTotal: 4,
		},
		"page past the end": {
			page: repository.Page{Page: 5, Limit: 3}, wantLen: 0, wantTotal: 4,
		},
		"page far past the end": {
			page: repository.Page{Page: math.MaxInt / 2, Limit: 4}, wantLen: 0, wantTotal: 4,
		},
		"non-positive paging is clamped": {
			page: repository.Page{Page: 0, Limit: 0}, wantLen: 4, wantTotal: 4,
		},
	} {
		t.Run(name, func(t *testing.T) {
			got, total, err := repo.FindAll(ctx, testcase.filter, testcase.page)
			if err != nil {
				t.Fatalf("FindAll failed: %v", err)
			}

			if len(got) != testcase.wantLen {
				t.Errorf("len = %d, want %d", len(got), testcase.wantLen)
			}
			if total != testcase.wantTotal {
				t.Errorf("total = %d, want %d", total, testcase.wantTotal)
			}
		})
	}
}

func TestProjectRepository_UpdateMissing(t *testing.T) {
	repo := NewProjectRepository()

	err := repo.Update(context.Background(), mustProject(t, "Ghost"))

	if !apperrors.IsNotFound(err) {
		t.Errorf("Update error = %v, want NotFound", err)
	}
}

func TestTaskRepository_DeleteByProjectID(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository()

	for _, projectID := range []string{"p1", "p1", "p2"} {
		task, err := models.NewTask("work", "", "", projectID)
		if err != nil {
			t.Fatalf("NewTask failed: %v", err)
		}
		if err := repo.Save(ctx, task); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	deleted, err := repo.DeleteByProjectID(ctx, "p1")
	if err != nil {
		t.Fatalf("DeleteByProjectID failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	rest, _ := repo.FindByProjectID(ctx, "p2")
	if len(rest) != 1 {
		t.Errorf("p2 tasks = %d, want 1", len(rest))
	}
}

func TestUserRepository_EmailIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	email, _ := models.NewEmail("ada@example.com")
	name, _ := models.NewName("Ada")

	if err := repo.Save(ctx, models.NewUser(email, name, "hash")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	err := repo.Save(ctx, models.NewUser(email, name, "hash"))

	var conflict *apperrors.ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("second Save error = %v, want ConflictError", err)
	}

	found, err := repo.FindByEmail(ctx, email)
	if err != nil || found == nil {
		t.Fatalf("FindByEmail = %v, %v", found, err)
	}
}

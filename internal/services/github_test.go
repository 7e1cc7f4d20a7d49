package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/github"
)

type stubFetcher struct {
	repos []github.Repository
	err   error
	calls int
}

func (f *stubFetcher) GetUserRepositories(_ context.Context, _ string) ([]github.Repository, error) {
	f.calls++
	return f.repos, f.err
}

func TestSyncRepositories(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "owner@example.com")
	pid := h.project(t, owner, "Demo")

	fetcher := &stubFetcher{repos: []github.Repository{
		{Name: "hello-world", URL: "https://github.com/octocat/hello-world", Language: "Go", StarCount: 3},
	}}
	fetchedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	svc := NewGitHubService(h.deps, NewOwnershipGuard(h.deps.Projects), fetcher)
	svc.now = func() time.Time { return fetchedAt }

	if _, err := h.projects.Get(ctx, pid); err != nil {
		t.Fatal(err)
	}

	view, err := svc.SyncRepositories(ctx, SyncRepositoriesInput{ProjectID: pid, OwnerID: owner, Username: "octocat"})
	if err != nil {
		t.Fatalf("SyncRepositories failed: %v", err)
	}

	if len(view.GitHubRepos) != 1 {
		t.Fatalf("GitHubRepos = %+v", view.GitHubRepos)
	}
	repo := view.GitHubRepos[0]
	if repo.Name != "hello-world" || repo.StarCount != 3 || !repo.FetchedAt.Equal(fetchedAt) {
		t.Errorf("repo = %+v", repo)
	}

	if h.cached(t, h.keys.Project(pid)) {
		t.Error("project key survived sync")
	}

	detail, err := h.projects.Get(ctx, pid)
	if err != nil {
		t.Fatal(err)
	}
	if len(detail.GitHubRepos) != 1 {
		t.Errorf("stored repos = %+v", detail.GitHubRepos)
	}
}

func TestSyncRepositories_Rejects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "owner@example.com")
	other := h.user(t, "other@example.com")
	pid := h.project(t, owner, "Demo")

	fetcher := &stubFetcher{}
	svc := NewGitHubService(h.deps, NewOwnershipGuard(h.deps.Projects), fetcher)

	var unauth *apperrors.UnauthorizedError
	if _, err := svc.SyncRepositories(ctx, SyncRepositoriesInput{ProjectID: pid, OwnerID: other, Username: "octocat"}); !errors.As(err, &unauth) {
		t.Errorf("non-owner error = %v, want UnauthorizedError", err)
	}
	if fetcher.calls != 0 {
		t.Error("GitHub was called for an unauthorized sync")
	}

	fetcher.err = &apperrors.ExternalServiceError{ServiceName: github.ServiceName, Operation: "getUserRepositories", StatusCode: 502}

	var external *apperrors.ExternalServiceError
	if _, err := svc.SyncRepositories(ctx, SyncRepositoriesInput{ProjectID: pid, OwnerID: owner, Username: "octocat"}); !errors.As(err, &external) {
		t.Errorf("upstream error = %v, want ExternalServiceError", err)
	}

	if _, err := svc.ListRepositories(ctx, "octocat"); !errors.As(err, &external) {
		t.Errorf("ListRepositories error = %v, want ExternalServiceError", err)
	}
}

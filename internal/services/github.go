package services

import (
	"context"
	"time"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/cache"
	"github.com/monocle-dev/taskhub/internal/github"
	"github.com/monocle-dev/taskhub/internal/models"
	"github.com/monocle-dev/taskhub/internal/repository"
	"github.com/monocle-dev/taskhub/internal/types"
)

// RepositoryFetcher lists a GitHub user's public repositories.
type RepositoryFetcher interface {
	GetUserRepositories(ctx context.Context, username string) ([]github.Repository, error)
}

type SyncRepositoriesInput struct {
	ProjectID string
	OwnerID   string
	Username  string
}

type GitHubService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	guard    *OwnershipGuard
	fetcher  RepositoryFetcher
	store    cacheStore
	keys     cache.Keys
	notifier Notifier
	now      func() time.Time
}

func NewGitHubService(deps Deps, guard *OwnershipGuard, fetcher RepositoryFetcher) *GitHubService {
	deps = deps.withDefaults()

	return &GitHubService{
		projects: deps.Projects,
		users:    deps.Users,
		guard:    guard,
		fetcher:  fetcher,
		store:    cacheStore{cache: deps.Cache, ttl: deps.TTL},
		keys:     deps.Keys,
		notifier: deps.Notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *GitHubService) ListRepositories(ctx context.Context, username string) ([]github.Repository, error) {
	repos, err := s.fetcher.GetUserRepositories(ctx, username)
	if err != nil {
		return nil, apperrors.Wrap(err, "ListGitHubRepositoriesService", "failed to list repositories of "+username)
	}
	return repos, nil
}

// SyncRepositories replaces the project's linked repositories with the
// current public repositories of username.
func (s *GitHubService) SyncRepositories(ctx context.Context, in SyncRepositoriesInput) (types.ProjectView, error) {
	fail := func(err error) (types.ProjectView, error) {
		return types.ProjectView{}, apperrors.Wrap(err, "SyncGitHubRepositoriesService", "failed to link repositories to project "+in.ProjectID)
	}

	project, err := loadProject(ctx, s.projects, in.ProjectID)
	if err != nil {
		return fail(err)
	}

	if err := requireUser(ctx, s.users, in.OwnerID); err != nil {
		return fail(err)
	}

	if err := s.guard.Require(ctx, project.ID(), in.OwnerID, "link repositories to", "project"); err != nil {
		return fail(err)
	}

	repos, err := s.fetcher.GetUserRepositories(ctx, in.Username)
	if err != nil {
		return fail(err)
	}

	fetchedAt := s.now()
	linked := make([]models.GitHubRepo, 0, len(repos))
	for _, r := range repos {
		linked = append(linked, models.GitHubRepo{
			Name:        r.Name,
			URL:         r.URL,
			Description: r.Description,
			Language:    r.Language,
			StarCount:   r.StarCount,
			ForkCount:   r.ForkCount,
			FetchedAt:   fetchedAt,
		})
	}

	project.UpdateGitHubRepos(linked)

	if err := s.projects.Update(ctx, project); err != nil {
		return fail(err)
	}

	s.store.invalidate(ctx, invalidation{
		keys:     []string{s.keys.Project(project.ID())},
		patterns: []string{s.keys.ProjectListPattern()},
	})
	s.notifier.ProjectChanged(project.ID())

	return types.NewProjectView(project), nil
}

package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/cache"
	"github.com/monocle-dev/taskhub/internal/models"
	"github.com/monocle-dev/taskhub/internal/repository"
	"github.com/monocle-dev/taskhub/internal/types"
)

type CreateProjectInput struct {
	Title       string
	Description string
	Tags        []string
	OwnerID     string
}

type ListProjectsInput struct {
	Page   int
	Limit  int
	Tags   []string
	Search string
}

// UpdateProjectInput leaves a field untouched when it is nil.
type UpdateProjectInput struct {
	ProjectID   string
	OwnerID     string
	Title       *string
	Description *string
	Tags        []string
}

type DeleteProjectInput struct {
	ProjectID string
	OwnerID   string
	// Force is accepted for API compatibility and currently changes nothing:
	// every delete cascades to the project's tasks.
	Force bool
}

type ProjectService struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	users    repository.UserRepository
	guard    *OwnershipGuard
	store    cacheStore
	keys     cache.Keys
	notifier Notifier
	now      func() time.Time
}

func NewProjectService(deps Deps, guard *OwnershipGuard) *ProjectService {
	deps = deps.withDefaults()

	return &ProjectService{
		projects: deps.Projects,
		tasks:    deps.Tasks,
		users:    deps.Users,
		guard:    guard,
		store:    cacheStore{cache: deps.Cache, ttl: deps.TTL},
		keys:     deps.Keys,
		notifier: deps.Notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (types.ProjectView, error) {
	fail := func(err error) (types.ProjectView, error) {
		return types.ProjectView{}, apperrors.Wrap(err, "CreateProjectService", "failed to create project")
	}

	if strings.TrimSpace(in.Title) == "" {
		return fail(apperrors.NewValidation("title", "title is required"))
	}

	if err := requireUser(ctx, s.users, in.OwnerID); err != nil {
		return fail(err)
	}

	project, err := models.NewProject(in.Title, in.Description, in.Tags, in.OwnerID)
	if err != nil {
		return fail(err)
	}

	if err := s.projects.Save(ctx, project); err != nil {
		return fail(err)
	}

	s.store.invalidate(ctx, invalidation{patterns: []string{s.keys.ProjectListPattern()}})
	s.notifier.ProjectChanged(project.ID())

	return types.NewProjectView(project), nil
}

// Get returns the project with its tasks resolved. Task ids that no longer
// resolve to a task of this project are dropped from the result and logged.
func (s *ProjectService) Get(ctx context.Context, projectID string) (types.ProjectDetail, error) {
	key := s.keys.Project(projectID)

	var cached types.ProjectDetail
	if s.store.get(ctx, key, &cached) {
		return cached, nil
	}

	fail := func(err error) (types.ProjectDetail, error) {
		return types.ProjectDetail{}, apperrors.Wrap(err, "GetProjectService", "failed to get project "+projectID)
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return fail(err)
	}
	if project == nil {
		return fail(apperrors.NewNotFound("project", projectID))
	}

	tasks, err := resolveTasks(ctx, s.tasks, project)
	if err != nil {
		return fail(err)
	}

	detail := types.ProjectDetail{
		ProjectView: types.NewProjectView(project),
		Tasks:       tasks,
	}

	s.store.set(ctx, key, detail)

	return detail, nil
}

func (s *ProjectService) GetAll(ctx context.Context, in ListProjectsInput) (types.ProjectList, error) {
	page := repository.Page{Page: in.Page, Limit: in.Limit}.Normalize()
	filter := repository.ProjectFilter{Tags: in.Tags, Search: strings.TrimSpace(in.Search)}

	key := s.keys.ProjectList(page.Page, page.Limit, cache.FilterHash(filter))

	var cached types.ProjectList
	if s.store.get(ctx, key, &cached) {
		return cached, nil
	}

	projects, total, err := s.projects.FindAll(ctx, filter, page)
	if err != nil {
		return types.ProjectList{}, apperrors.Wrap(err, "GetAllProjectsService", "failed to list projects")
	}

	views := make([]types.ProjectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, types.NewProjectView(p))
	}

	list := types.ProjectList{Projects: views, Total: total, Page: page.Page, Limit: page.Limit}
	s.store.set(ctx, key, list)

	return list, nil
}

func (s *ProjectService) Update(ctx context.Context, in UpdateProjectInput) (types.ProjectView, error) {
	fail := func(err error) (types.ProjectView, error) {
		return types.ProjectView{}, apperrors.Wrap(err, "UpdateProjectService", "failed to update project "+in.ProjectID)
	}

	project, err := loadProject(ctx, s.projects, in.ProjectID)
	if err != nil {
		return fail(err)
	}

	if err := requireUser(ctx, s.users, in.OwnerID); err != nil {
		return fail(err)
	}

	if err := s.guard.Require(ctx, in.ProjectID, in.OwnerID, "update", "project"); err != nil {
		return fail(err)
	}

	if in.Title != nil {
		if err := project.UpdateTitle(*in.Title); err != nil {
			return fail(err)
		}
	}
	if in.Description != nil {
		project.UpdateDescription(*in.Description)
	}
	if in.Tags != nil {
		project.UpdateTags(in.Tags)
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return fail(err)
	}

	s.store.invalidate(ctx, invalidation{
		keys: []string{s.keys.Project(project.ID())},
		patterns: []string{
			s.keys.ProjectListPattern(),
			s.keys.TasksByProjectPattern(),
		},
	})
	s.notifier.ProjectChanged(project.ID())

	return types.NewProjectView(project), nil
}

// Delete removes the project and every task that belongs to it.
func (s *ProjectService) Delete(ctx context.Context, in DeleteProjectInput) (types.DeleteResult, error) {
	fail := func(err error) (types.DeleteResult, error) {
		return types.DeleteResult{}, apperrors.Wrap(err, "DeleteProjectService", "failed to delete project "+in.ProjectID)
	}

	project, err := loadProject(ctx, s.projects, in.ProjectID)
	if err != nil {
		return fail(err)
	}

	if err := requireUser(ctx, s.users, in.OwnerID); err != nil {
		return fail(err)
	}

	if err := s.guard.Require(ctx, in.ProjectID, in.OwnerID, "delete", "project"); err != nil {
		return fail(err)
	}

	deleted, err := s.tasks.DeleteByProjectID(ctx, project.ID())
	if err != nil {
		return fail(err)
	}

	if err := s.projects.Delete(ctx, project.ID()); err != nil {
		return fail(err)
	}

	s.store.invalidate(ctx, invalidation{
		keys: []string{
			s.keys.Project(project.ID()),
			s.keys.TasksByProject(project.ID()),
		},
		patterns: []string{
			s.keys.ProjectListPattern(),
			s.keys.TaskListPattern(),
			s.keys.TaskPattern(),
		},
	})
	s.notifier.ProjectChanged(project.ID())

	log.Printf("Deleted project %s with %d tasks (force=%t)", project.ID(), deleted, in.Force)

	return types.DeleteResult{
		ID:        project.ID(),
		Message:   "Project deleted successfully",
		DeletedAt: s.now(),
	}, nil
}

func loadProject(ctx context.Context, projects repository.ProjectRepository, id string) (*models.Project, error) {
	project, err := projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.NewNotFound("project", id)
	}
	return project, nil
}

func requireUser(ctx context.Context, users repository.UserRepository, id string) error {
	if id == "" {
		return apperrors.NewNotFound("user", id)
	}

	user, err := users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NewNotFound("user", id)
	}
	return nil
}

func resolveTasks(ctx context.Context, tasks repository.TaskRepository, project *models.Project) ([]types.TaskView, error) {
	ids := project.TaskIDs()
	if len(ids) == 0 {
		return []types.TaskView{}, nil
	}

	found, err := tasks.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Task, len(found))
	for _, t := range found {
		byID[t.ID()] = t
	}

	views := make([]types.TaskView, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok || t.ProjectID() != project.ID() {
			log.Printf("Project %s references task %s which does not belong to it; skipping", project.ID(), id)
			continue
		}
		views = append(views, types.NewTaskView(t))
	}

	return views, nil
}

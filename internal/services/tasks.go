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

type CreateTaskInput struct {
	ProjectID   string
	OwnerID     string
	Title       string
	Description string
	// Status defaults to TODO when empty.
	Status string
}

// UpdateTaskInput leaves a field untouched when it is nil.
type UpdateTaskInput struct {
	TaskID      string
	OwnerID     string
	Title       *string
	Description *string
	Status      *string
}

type DeleteTaskInput struct {
	TaskID  string
	OwnerID string
}

type ListTasksInput struct {
	Page      int
	Limit     int
	ProjectID string
	Status    string
	Search    string
}

type TaskService struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	users    repository.UserRepository
	guard    *OwnershipGuard
	store    cacheStore
	keys     cache.Keys
	notifier Notifier
	now      func() time.Time
}

func NewTaskService(deps Deps, guard *OwnershipGuard) *TaskService {
	deps = deps.withDefaults()

	return &TaskService{
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

// Create adds a task to a project the caller owns and appends its id to the
// project's task list. If the project cannot be updated the task is removed
// again so that no task exists outside its project's list.
func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (types.TaskView, error) {
	fail := func(err error) (types.TaskView, error) {
		return types.TaskView{}, apperrors.Wrap(err, "CreateTaskService", "failed to create task in project "+in.ProjectID)
	}

	if err := requireUser(ctx, s.users, in.OwnerID); err != nil {
		return fail(err)
	}

	project, err := loadProject(ctx, s.projects, in.ProjectID)
	if err != nil {
		return fail(err)
	}

	if err := s.guard.Require(ctx, project.ID(), in.OwnerID, "create task in", "project"); err != nil {
		return fail(err)
	}

	var status models.TaskStatus
	if strings.TrimSpace(in.Status) != "" {
		if status, err = models.ParseTaskStatus(in.Status); err != nil {
			return fail(err)
		}
	}

	task, err := models.NewTask(in.Title, in.Description, status, project.ID())
	if err != nil {
		return fail(err)
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return fail(err)
	}

	if err := project.AddTaskID(task.ID()); err != nil {
		s.discard(ctx, task)
		return fail(err)
	}

	if err := s.projects.Update(ctx, project); err != nil {
		s.discard(ctx, task)
		return fail(err)
	}

	s.invalidateTask(ctx, task.ID(), project.ID())
	s.notifier.ProjectChanged(project.ID())

	return types.NewTaskView(task), nil
}

func (s *TaskService) Get(ctx context.Context, taskID string) (types.TaskView, error) {
	key := s.keys.Task(taskID)

	var cached types.TaskView
	if s.store.get(ctx, key, &cached) {
		return cached, nil
	}

	task, err := loadTask(ctx, s.tasks, taskID)
	if err != nil {
		return types.TaskView{}, apperrors.Wrap(err, "GetTaskService", "failed to get task "+taskID)
	}

	view := types.NewTaskView(task)
	s.store.set(ctx, key, view)

	return view, nil
}

// GetByProject lists the tasks of an existing project in creation order.
func (s *TaskService) GetByProject(ctx context.Context, projectID string) ([]types.TaskView, error) {
	key := s.keys.TasksByProject(projectID)

	var cached []types.TaskView
	if s.store.get(ctx, key, &cached) {
		return cached, nil
	}

	fail := func(err error) ([]types.TaskView, error) {
		return nil, apperrors.Wrap(err, "GetTasksByProjectService", "failed to list tasks of project "+projectID)
	}

	if _, err := loadProject(ctx, s.projects, projectID); err != nil {
		return fail(err)
	}

	tasks, err := s.tasks.FindByProjectID(ctx, projectID)
	if err != nil {
		return fail(err)
	}

	views := make([]types.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, types.NewTaskView(t))
	}

	s.store.set(ctx, key, views)

	return views, nil
}

func (s *TaskService) GetAll(ctx context.Context, in ListTasksInput) (types.TaskList, error) {
	fail := func(err error) (types.TaskList, error) {
		return types.TaskList{}, apperrors.Wrap(err, "GetAllTasksService", "failed to list tasks")
	}

	page := repository.Page{Page: in.Page, Limit: in.Limit}.Normalize()
	filter := repository.TaskFilter{ProjectID: in.ProjectID, Search: strings.TrimSpace(in.Search)}

	if strings.TrimSpace(in.Status) != "" {
		status, err := models.ParseTaskStatus(in.Status)
		if err != nil {
			return fail(err)
		}
		filter.Status = status
	}

	key := s.keys.TaskList(page.Page, page.Limit, cache.FilterHash(filter))

	var cached types.TaskList
	if s.store.get(ctx, key, &cached) {
		return cached, nil
	}

	tasks, total, err := s.tasks.FindAll(ctx, filter, page)
	if err != nil {
		return fail(err)
	}

	views := make([]types.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, types.NewTaskView(t))
	}

	list := types.TaskList{Tasks: views, Total: total, Page: page.Page, Limit: page.Limit}
	s.store.set(ctx, key, list)

	return list, nil
}

func (s *TaskService) Update(ctx context.Context, in UpdateTaskInput) (types.TaskView, error) {
	fail := func(err error) (types.TaskView, error) {
		return types.TaskView{}, apperrors.Wrap(err, "UpdateTaskService", "failed to update task "+in.TaskID)
	}

	if err := requireUser(ctx, s.users, in.OwnerID); err != nil {
		return fail(err)
	}

	task, err := loadTask(ctx, s.tasks, in.TaskID)
	if err != nil {
		return fail(err)
	}

	if err := s.guard.Require(ctx, task.ProjectID(), in.OwnerID, "update", "task"); err != nil {
		return fail(err)
	}

	if in.Title != nil {
		if err := task.UpdateTitle(*in.Title); err != nil {
			return fail(err)
		}
	}
	if in.Description != nil {
		task.UpdateDescription(*in.Description)
	}
	if in.Status != nil {
		status, err := models.ParseTaskStatus(*in.Status)
		if err != nil {
			return fail(err)
		}
		if err := task.UpdateStatus(status); err != nil {
			return fail(err)
		}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return fail(err)
	}

	s.invalidateTask(ctx, task.ID(), task.ProjectID())
	s.notifier.ProjectChanged(task.ProjectID())

	return types.NewTaskView(task), nil
}

// Delete removes the task id from its project before deleting the task row.
func (s *TaskService) Delete(ctx context.Context, in DeleteTaskInput) (types.DeleteResult, error) {
	fail := func(err error) (types.DeleteResult, error) {
		return types.DeleteResult{}, apperrors.Wrap(err, "DeleteTaskService", "failed to delete task "+in.TaskID)
	}

	if err := requireUser(ctx, s.users, in.OwnerID); err != nil {
		return fail(err)
	}

	task, err := loadTask(ctx, s.tasks, in.TaskID)
	if err != nil {
		return fail(err)
	}

	if err := s.guard.Require(ctx, task.ProjectID(), in.OwnerID, "delete", "task"); err != nil {
		return fail(err)
	}

	project, err := loadProject(ctx, s.projects, task.ProjectID())
	if err != nil {
		return fail(err)
	}

	if project.RemoveTaskID(task.ID()) {
		if err := s.projects.Update(ctx, project); err != nil {
			return fail(err)
		}
	} else {
		log.Printf("Task %s was missing from project %s task list", task.ID(), project.ID())
	}

	if err := s.tasks.Delete(ctx, task.ID()); err != nil {
		return fail(err)
	}

	s.invalidateTask(ctx, task.ID(), task.ProjectID())
	s.notifier.ProjectChanged(task.ProjectID())

	return types.DeleteResult{
		ID:        task.ID(),
		Message:   "Task deleted successfully",
		DeletedAt: s.now(),
	}, nil
}

func (s *TaskService) invalidateTask(ctx context.Context, taskID, projectID string) {
	s.store.invalidate(ctx, invalidation{
		keys: []string{
			s.keys.Task(taskID),
			s.keys.TasksByProject(projectID),
			s.keys.Project(projectID),
		},
		patterns: []string{
			s.keys.TaskListPattern(),
			s.keys.ProjectListPattern(),
		},
	})
}

func (s *TaskService) discard(ctx context.Context, task *models.Task) {
	if err := s.tasks.Delete(ctx, task.ID()); err != nil {
		log.Printf("Failed to remove orphaned task %s of project %s: %v", task.ID(), task.ProjectID(), err)
		return
	}
	log.Printf("Removed task %s after its project %s could not be updated", task.ID(), task.ProjectID())
}

func loadTask(ctx context.Context, tasks repository.TaskRepository, id string) (*models.Task, error) {
	task, err := tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.NewNotFound("task", id)
	}
	return task, nil
}

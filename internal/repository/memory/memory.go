// Package memory keeps repositories in process memory. It backs tests and
// DB_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/models"
	"github.com/monocle-dev/taskhub/internal/repository"
)

type ProjectRepository struct {
	mu   sync.RWMutex
	rows map[string]models.ProjectState
}

func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{rows: make(map[string]models.ProjectState)}
}

func (r *ProjectRepository) Save(_ context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows[project.ID()] = project.State()
	return nil
}

func (r *ProjectRepository) FindByID(_ context.Context, id string) (*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.rows[id]
	if !ok {
		return nil, nil
	}

	return models.RestoreProject(state), nil
}

func (r *ProjectRepository) FindAll(_ context.Context, filter repository.ProjectFilter, page repository.Page) ([]*models.Project, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page = page.Normalize()

	matched := make([]*models.Project, 0, len(r.rows))
	for _, state := range r.rows {
		project := models.RestoreProject(state)
		if filter.Matches(project) {
			matched = append(matched, project)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt().Equal(matched[j].CreatedAt()) {
			return matched[i].CreatedAt().After(matched[j].CreatedAt())
		}
		return matched[i].ID() < matched[j].ID()
	})

	return paginate(matched, page), int64(len(matched)), nil
}

func (r *ProjectRepository) Update(_ context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[project.ID()]; !ok {
		return apperrors.NewNotFound("project", project.ID())
	}

	r.rows[project.ID()] = project.State()
	return nil
}

func (r *ProjectRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rows, id)
	return nil
}

type TaskRepository struct {
	mu   sync.RWMutex
	rows map[string]models.TaskState
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{rows: make(map[string]models.TaskState)}
}

func (r *TaskRepository) Save(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows[task.ID()] = task.State()
	return nil
}

func (r *TaskRepository) FindByID(_ context.Context, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.rows[id]
	if !ok {
		return nil, nil
	}

	return models.RestoreTask(state), nil
}

func (r *TaskRepository) FindByIDs(_ context.Context, ids []string) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*models.Task, 0, len(ids))
	for _, id := range ids {
		if state, ok := r.rows[id]; ok {
			tasks = append(tasks, models.RestoreTask(state))
		}
	}

	return tasks, nil
}

func (r *TaskRepository) FindByProjectID(ctx context.Context, projectID string) ([]*models.Task, error) {
	r.mu.RLock()
	limit := len(r.rows) + 1
	r.mu.RUnlock()

	tasks, _, err := r.FindAll(ctx, repository.TaskFilter{ProjectID: projectID}, repository.Page{Page: 1, Limit: limit})
	return tasks, err
}

func (r *TaskRepository) FindAll(_ context.Context, filter repository.TaskFilter, page repository.Page) ([]*models.Task, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page = page.Normalize()

	matched := make([]*models.Task, 0, len(r.rows))
	for _, state := range r.rows {
		task := models.RestoreTask(state)
		if filter.Matches(task) {
			matched = append(matched, task)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt().Equal(matched[j].CreatedAt()) {
			return matched[i].CreatedAt().Before(matched[j].CreatedAt())
		}
		return matched[i].ID() < matched[j].ID()
	})

	return paginate(matched, page), int64(len(matched)), nil
}

func (r *TaskRepository) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[task.ID()]; !ok {
		return apperrors.NewNotFound("task", task.ID())
	}

	r.rows[task.ID()] = task.State()
	return nil
}

func (r *TaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rows, id)
	return nil
}

func (r *TaskRepository) DeleteByProjectID(_ context.Context, projectID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, state := range r.rows {
		if state.ProjectID == projectID {
			delete(r.rows, id)
			deleted++
		}
	}

	return deleted, nil
}

type UserRepository struct {
	mu   sync.RWMutex
	rows map[string]models.UserState
}

func NewUserRepository() *UserRepository {
	return &UserRepository{rows: make(map[string]models.UserState)}
}

func (r *UserRepository) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, state := range r.rows {
		if id != user.ID && state.Email == user.Email().String() {
			return &apperrors.ConflictError{Resource: "user", Field: "email", Value: state.Email}
		}
	}

	r.rows[user.ID] = user.State()
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.rows[id]
	if !ok {
		return nil, nil
	}

	return models.RestoreUser(state), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email models.Email) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, state := range r.rows {
		if state.Email == email.String() {
			return models.RestoreUser(state), nil
		}
	}

	return nil, nil
}

func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[user.ID]; !ok {
		return apperrors.NewNotFound("user", user.ID)
	}

	for id, state := range r.rows {
		if id != user.ID && state.Email == user.Email().String() {
			return &apperrors.ConflictError{Resource: "user", Field: "email", Value: state.Email}
		}
	}

	r.rows[user.ID] = user.State()
	return nil
}

func paginate[T any](items []T, page repository.Page) []T {
	offset := page.Offset()
	if offset < 0 || offset >= len(items) {
		return []T{}
	}

	end := len(items)
	if page.Limit > 0 && page.Limit < end-offset {
		end = offset + page.Limit
	}

	return items[offset:end]
}

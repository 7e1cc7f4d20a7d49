package types

import (
	"time"

	"github.com/monocle-dev/taskhub/internal/models"
)

const ContextUserKey = "user"

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type GitHubRepoView struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	StarCount   int       `json:"star_count"`
	ForkCount   int       `json:"fork_count"`
	FetchedAt   time.Time `json:"fetched_at"`
}

type ProjectView struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags"`
	TaskIDs     []string         `json:"task_ids"`
	OwnerID     string           `json:"owner_id"`
	GitHubRepos []GitHubRepoView `json:"github_repos"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ProjectDetail is a project with its tasks resolved, in TaskIDs order.
type ProjectDetail struct {
	ProjectView

	Tasks []TaskView `json:"tasks"`
}

type ProjectList struct {
	Projects []ProjectView `json:"projects"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	Limit    int           `json:"limit"`
}

type TaskView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	ProjectID   string    `json:"project_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TaskList struct {
	Tasks []TaskView `json:"tasks"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

type DeleteResult struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	DeletedAt time.Time `json:"deleted_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name().String(),
		Email:     u.Email().String(),
		CreatedAt: u.CreatedAt,
	}
}

func NewProjectView(p *models.Project) ProjectView {
	repos := p.GitHubRepos()
	views := make([]GitHubRepoView, 0, len(repos))
	for _, r := range repos {
		views = append(views, GitHubRepoView(r))
	}

	return ProjectView{
		ID:          p.ID(),
		Title:       p.Title(),
		Description: p.Description(),
		Tags:        p.Tags(),
		TaskIDs:     p.TaskIDs(),
		OwnerID:     p.OwnerID(),
		GitHubRepos: views,
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

func NewTaskView(t *models.Task) TaskView {
	return TaskView{
		ID:          t.ID(),
		Title:       t.Title(),
		Description: t.Description(),
		Status:      string(t.Status()),
		ProjectID:   t.ProjectID(),
		CreatedAt:   t.CreatedAt(),
		UpdatedAt:   t.UpdatedAt(),
	}
}

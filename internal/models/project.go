package models

import (
	"slices"
	"strings"
	"time"

	"github.com/monocle-dev/taskhub/internal/apperrors"
)

// GitHubRepo is a cached summary of a public repository linked to a project.
type GitHubRepo struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	StarCount   int       `json:"star_count"`
	ForkCount   int       `json:"fork_count"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// ProjectState is the plain field set of a Project, used to persist and
// rehydrate it.
type ProjectState struct {
	Entity

	Title       string
	Description string
	Tags        []string
	TaskIDs     []string
	OwnerID     string
	GitHubRepos []GitHubRepo
}

// Project owns an ordered list of tasks. TaskIDs is a denormalized index that
// must mirror the tasks whose ProjectID points here.
type Project struct {
	state ProjectState
}

func NewProject(title, description string, tags []string, ownerID string) (*Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidation("title", "title is required")
	}

	if ownerID == "" {
		return nil, apperrors.NewValidation("owner_id", "owner is required")
	}

	if tags == nil {
		tags = []string{}
	}

	return &Project{state: ProjectState{
		Entity:      newEntity(),
		Title:       title,
		Description: description,
		Tags:        slices.Clone(tags),
		TaskIDs:     []string{},
		OwnerID:     ownerID,
		GitHubRepos: []GitHubRepo{},
	}}, nil
}

func RestoreProject(state ProjectState) *Project {
	p := &Project{state: state}
	p.state.Tags = cloneOrEmpty(state.Tags)
	p.state.TaskIDs = cloneOrEmpty(state.TaskIDs)
	p.state.GitHubRepos = cloneOrEmpty(state.GitHubRepos)
	return p
}

// State returns a copy of the project's fields.
func (p *Project) State() ProjectState {
	s := p.state
	s.Tags = cloneOrEmpty(p.state.Tags)
	s.TaskIDs = cloneOrEmpty(p.state.TaskIDs)
	s.GitHubRepos = cloneOrEmpty(p.state.GitHubRepos)
	return s
}

func (p *Project) ID() string                { return p.state.ID }
func (p *Project) Title() string             { return p.state.Title }
func (p *Project) Description() string       { return p.state.Description }
func (p *Project) OwnerID() string           { return p.state.OwnerID }
func (p *Project) Tags() []string            { return cloneOrEmpty(p.state.Tags) }
func (p *Project) TaskIDs() []string         { return cloneOrEmpty(p.state.TaskIDs) }
func (p *Project) GitHubRepos() []GitHubRepo { return cloneOrEmpty(p.state.GitHubRepos) }
func (p *Project) CreatedAt() time.Time      { return p.state.CreatedAt }
func (p *Project) UpdatedAt() time.Time      { return p.state.UpdatedAt }

func (p *Project) IsOwnedBy(userID string) bool {
	return p.state.OwnerID == userID
}

func (p *Project) UpdateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperrors.NewValidation("title", "title is required")
	}

	p.state.Title = title
	p.state.touch()
	return nil
}

func (p *Project) UpdateDescription(description string) {
	p.state.Description = description
	p.state.touch()
}

// UpdateTags replaces the tag list as given.
func (p *Project) UpdateTags(tags []string) {
	p.state.Tags = cloneOrEmpty(tags)
	p.state.touch()
}

func (p *Project) AddTag(tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return apperrors.NewValidation("tag", "tag must not be empty")
	}

	if slices.Contains(p.state.Tags, tag) {
		return apperrors.NewBusinessRule("duplicate_tag", "tag "+tag+" is already present")
	}

	p.state.Tags = append(p.state.Tags, tag)
	p.state.touch()
	return nil
}

func (p *Project) RemoveTag(tag string) bool {
	i := slices.Index(p.state.Tags, tag)
	if i < 0 {
		return false
	}

	p.state.Tags = slices.Delete(p.state.Tags, i, i+1)
	p.state.touch()
	return true
}

func (p *Project) AddTaskID(taskID string) error {
	if taskID == "" {
		return apperrors.NewValidation("task_id", "task id must not be empty")
	}

	if slices.Contains(p.state.TaskIDs, taskID) {
		return apperrors.NewBusinessRule("duplicate_task", "task "+taskID+" already belongs to project "+p.state.ID)
	}

	p.state.TaskIDs = append(p.state.TaskIDs, taskID)
	p.state.touch()
	return nil
}

// RemoveTaskID removes exactly taskID and reports whether it was present.
func (p *Project) RemoveTaskID(taskID string) bool {
	i := slices.Index(p.state.TaskIDs, taskID)
	if i < 0 {
		return false
	}

	p.state.TaskIDs = slices.Delete(p.state.TaskIDs, i, i+1)
	p.state.touch()
	return true
}

func (p *Project) UpdateGitHubRepos(repos []GitHubRepo) {
	p.state.GitHubRepos = cloneOrEmpty(repos)
	p.state.touch()
}

func cloneOrEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}

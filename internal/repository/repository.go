// Package repository declares the storage-agnostic persistence contracts for
// projects, tasks and users.
//
// FindByID returns (nil, nil) when the entity does not exist; absence is never
// reported as an error. Update returns a NotFoundError when the row is gone.
// Delete is idempotent.
package repository

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/monocle-dev/taskhub/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type Page struct {
	Page  int
	Limit int
}

// Normalize clamps Page to 1 and Limit to DefaultLimit when they are below 1,
// and caps Page so that Offset()+Limit fits in an int.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if maxPage := math.MaxInt / p.Limit; p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

// Offset saturates at math.MaxInt instead of overflowing.
func (p Page) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// ProjectFilter selects projects carrying at least one of Tags and whose title
// contains Search, case-insensitively. Empty fields do not filter.
type ProjectFilter struct {
	Tags   []string `json:"tags,omitempty"`
	Search string   `json:"search,omitempty"`
}

func (f ProjectFilter) IsEmpty() bool {
	return len(f.Tags) == 0 && strings.TrimSpace(f.Search) == ""
}

func (f ProjectFilter) Matches(p *models.Project) bool {
	if len(f.Tags) > 0 {
		tags := p.Tags()
		if !slices.ContainsFunc(f.Tags, func(tag string) bool { return slices.Contains(tags, tag) }) {
			return false
		}
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		if !strings.Contains(strings.ToLower(p.Title()), strings.ToLower(search)) {
			return false
		}
	}

	return true
}

type TaskFilter struct {
	ProjectID string            `json:"project_id,omitempty"`
	Status    models.TaskStatus `json:"status,omitempty"`
	Search    string            `json:"search,omitempty"`
}

func (f TaskFilter) IsEmpty() bool {
	return f.ProjectID == "" && f.Status == "" && strings.TrimSpace(f.Search) == ""
}

func (f TaskFilter) Matches(t *models.Task) bool {
	if f.ProjectID != "" && t.ProjectID() != f.ProjectID {
		return false
	}

	if f.Status != "" && t.Status() != f.Status {
		return false
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		if !strings.Contains(strings.ToLower(t.Title()), strings.ToLower(search)) {
			return false
		}
	}

	return true
}

type ProjectRepository interface {
	Save(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	// FindAll filters first and paginates second; total counts filtered rows.
	FindAll(ctx context.Context, filter ProjectFilter, page Page) (projects []*models.Project, total int64, err error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
}

type TaskRepository interface {
	Save(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	// FindByIDs returns the tasks that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]*models.Task, error)
	FindByProjectID(ctx context.Context, projectID string) ([]*models.Task, error)
	FindAll(ctx context.Context, filter TaskFilter, page Page) (tasks []*models.Task, total int64, err error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
	DeleteByProjectID(ctx context.Context, projectID string) (int64, error)
}

type UserRepository interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email models.Email) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

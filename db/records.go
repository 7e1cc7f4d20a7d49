package db

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/monocle-dev/taskhub/internal/models"
)

type userRecord struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (userRecord) TableName() string { return "users" }

// projectRecord keeps TaskIDs in order as a JSON array. Tags live in
// project_tags so that tag filters can run in SQL.
type projectRecord struct {
	ID          string         `gorm:"primaryKey;size:36"`
	Title       string         `gorm:"not null"`
	Description string         `gorm:"type:text"`
	TaskIDs     []string       `gorm:"serializer:json;type:text"`
	OwnerID     string         `gorm:"index;size:36;not null"`
	GitHubRepos datatypes.JSON `gorm:"column:github_repos"`
	CreatedAt   time.Time      `gorm:"index;autoCreateTime:false"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime:false"`
}

func (projectRecord) TableName() string { return "projects" }

type projectTagRecord struct {
	ProjectID string `gorm:"primaryKey;size:36"`
	Position  int    `gorm:"primaryKey;autoIncrement:false"`
	Tag       string `gorm:"index;not null"`
}

func (projectTagRecord) TableName() string { return "project_tags" }

type taskRecord struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"type:text"`
	Status      string    `gorm:"size:16;not null"`
	ProjectID   string    `gorm:"index;size:36;not null"`
	CreatedAt   time.Time `gorm:"index;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (taskRecord) TableName() string { return "tasks" }

func toUserRecord(u *models.User) userRecord {
	s := u.State()
	return userRecord{
		ID:           s.ID,
		Email:        s.Email,
		Name:         s.Name,
		PasswordHash: s.PasswordHash,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func fromUserRecord(r userRecord) *models.User {
	return models.RestoreUser(models.UserState{
		Entity:       models.Entity{ID: r.ID, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()},
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
	})
}

func toProjectRecord(p *models.Project) (projectRecord, []projectTagRecord, error) {
	s := p.State()

	repos, err := json.Marshal(s.GitHubRepos)
	if err != nil {
		return projectRecord{}, nil, err
	}

	tags := make([]projectTagRecord, 0, len(s.Tags))
	for i, tag := range s.Tags {
		tags = append(tags, projectTagRecord{ProjectID: s.ID, Position: i, Tag: tag})
	}

	return projectRecord{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		TaskIDs:     s.TaskIDs,
		OwnerID:     s.OwnerID,
		GitHubRepos: datatypes.JSON(repos),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}, tags, nil
}

// fromProjectRecord expects tags already sorted by position.
func fromProjectRecord(r projectRecord, tags []string) (*models.Project, error) {
	var repos []models.GitHubRepo
	if len(r.GitHubRepos) > 0 {
		if err := json.Unmarshal(r.GitHubRepos, &repos); err != nil {
			return nil, err
		}
	}

	return models.RestoreProject(models.ProjectState{
		Entity:      models.Entity{ID: r.ID, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()},
		Title:       r.Title,
		Description: r.Description,
		Tags:        tags,
		TaskIDs:     r.TaskIDs,
		OwnerID:     r.OwnerID,
		GitHubRepos: repos,
	}), nil
}

func toTaskRecord(t *models.Task) taskRecord {
	s := t.State()
	return taskRecord{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Status:      string(s.Status),
		ProjectID:   s.ProjectID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func fromTaskRecord(r taskRecord) *models.Task {
	return models.RestoreTask(models.TaskState{
		Entity:      models.Entity{ID: r.ID, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()},
		Title:       r.Title,
		Description: r.Description,
		Status:      models.TaskStatus(r.Status),
		ProjectID:   r.ProjectID,
	})
}

package models

import (
	"strings"
	"time"

	"github.com/monocle-dev/taskhub/internal/apperrors"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

func ParseTaskStatus(s string) (TaskStatus, error) {
	switch status := TaskStatus(strings.ToUpper(strings.TrimSpace(s))); status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return status, nil
	default:
		return "", apperrors.NewValidation("status", "status must be one of TODO, IN_PROGRESS, DONE")
	}
}

type TaskState struct {
	Entity

	Title       string
	Description string
	Status      TaskStatus
	ProjectID   string
}

// Task belongs to exactly one project for its whole life.
type Task struct {
	state TaskState
}

func NewTask(title, description string, status TaskStatus, projectID string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidation("title", "title is required")
	}

	if projectID == "" {
		return nil, apperrors.NewValidation("project_id", "project is required")
	}

	if status == "" {
		status = TaskStatusTodo
	}

	if _, err := ParseTaskStatus(string(status)); err != nil {
		return nil, err
	}

	return &Task{state: TaskState{
		Entity:      newEntity(),
		Title:       title,
		Description: description,
		Status:      status,
		ProjectID:   projectID,
	}}, nil
}

func RestoreTask(state TaskState) *Task {
	return &Task{state: state}
}

func (t *Task) State() TaskState     { return t.state }
func (t *Task) ID() string           { return t.state.ID }
func (t *Task) Title() string        { return t.state.Title }
func (t *Task) Description() string  { return t.state.Description }
func (t *Task) Status() TaskStatus   { return t.state.Status }
func (t *Task) ProjectID() string    { return t.state.ProjectID }
func (t *Task) CreatedAt() time.Time { return t.state.CreatedAt }
func (t *Task) UpdatedAt() time.Time { return t.state.UpdatedAt }

func (t *Task) UpdateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperrors.NewValidation("title", "title is required")
	}

	t.state.Title = title
	t.state.touch()
	return nil
}

func (t *Task) UpdateDescription(description string) {
	t.state.Description = description
	t.state.touch()
}

func (t *Task) UpdateStatus(status TaskStatus) error {
	if _, err := ParseTaskStatus(string(status)); err != nil {
		return err
	}

	t.state.Status = status
	t.state.touch()
	return nil
}

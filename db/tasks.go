package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/models"
	"github.com/monocle-dev/taskhub/internal/repository"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(gdb *gorm.DB) *TaskRepository {
	return &TaskRepository{db: gdb}
}

func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	rec := toTaskRecord(task)
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var rec taskRecord

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return fromTaskRecord(rec), nil
}

func (r *TaskRepository) FindByIDs(ctx context.Context, ids []string) ([]*models.Task, error) {
	if len(ids) == 0 {
		return []*models.Task{}, nil
	}

	var recs []taskRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&recs).Error; err != nil {
		return nil, err
	}

	return fromTaskRecords(recs), nil
}

func (r *TaskRepository) FindByProjectID(ctx context.Context, projectID string) ([]*models.Task, error) {
	var recs []taskRecord

	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	return fromTaskRecords(recs), nil
}

func (r *TaskRepository) FindAll(ctx context.Context, filter repository.TaskFilter, page repository.Page) ([]*models.Task, int64, error) {
	page = page.Normalize()

	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []taskRecord
	err := r.filtered(ctx, filter).
		Order("created_at ASC").
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recs).Error
	if err != nil {
		return nil, 0, err
	}

	return fromTaskRecords(recs), total, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	rec := toTaskRecord(task)

	result := r.db.WithContext(ctx).
		Model(&taskRecord{}).
		Where("id = ?", rec.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&rec)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("task", rec.ID)
	}

	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&taskRecord{}).Error
}

func (r *TaskRepository) DeleteByProjectID(ctx context.Context, projectID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&taskRecord{})
	return result.RowsAffected, result.Error
}

func (r *TaskRepository) filtered(ctx context.Context, filter repository.TaskFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&taskRecord{})

	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(title) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(search))+"%")
	}

	return query
}

func fromTaskRecords(recs []taskRecord) []*models.Task {
	tasks := make([]*models.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, fromTaskRecord(rec))
	}
	return tasks
}

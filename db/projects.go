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

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(gdb *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: gdb}
}

func (r *ProjectRepository) Save(ctx context.Context, project *models.Project) error {
	rec, tags, err := toProjectRecord(project)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return insertTags(tx, tags)
	})
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var rec projectRecord

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	projects, err := r.hydrate(ctx, []projectRecord{rec})
	if err != nil {
		return nil, err
	}

	return projects[0], nil
}

func (r *ProjectRepository) FindAll(ctx context.Context, filter repository.ProjectFilter, page repository.Page) ([]*models.Project, int64, error) {
	page = page.Normalize()

	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []projectRecord
	err := r.filtered(ctx, filter).
		Order("created_at DESC").
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recs).Error
	if err != nil {
		return nil, 0, err
	}

	projects, err := r.hydrate(ctx, recs)
	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	rec, tags, err := toProjectRecord(project)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&projectRecord{}).Where("id = ?", rec.ID).Select("*").Omit("id", "created_at").Updates(&rec)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.NewNotFound("project", rec.ID)
		}

		if err := tx.Where("project_id = ?", rec.ID).Delete(&projectTagRecord{}).Error; err != nil {
			return err
		}
		return insertTags(tx, tags)
	})
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&projectTagRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&projectRecord{}).Error
	})
}

func (r *ProjectRepository) filtered(ctx context.Context, filter repository.ProjectFilter) *gorm.DB {
	session := r.db.WithContext(ctx)
	query := session.Model(&projectRecord{})

	if len(filter.Tags) > 0 {
		tagged := session.Model(&projectTagRecord{}).Select("project_id").Where("tag IN ?", filter.Tags)
		query = query.Where("id IN (?)", tagged)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(title) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(search))+"%")
	}

	return query
}

// hydrate attaches tags to the records, preserving their order.
func (r *ProjectRepository) hydrate(ctx context.Context, recs []projectRecord) ([]*models.Project, error) {
	if len(recs) == 0 {
		return []*models.Project{}, nil
	}

	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}

	var tagRecs []projectTagRecord
	err := r.db.WithContext(ctx).
		Where("project_id IN ?", ids).
		Order("project_id").
		Order("position").
		Find(&tagRecs).Error
	if err != nil {
		return nil, err
	}

	tags := make(map[string][]string, len(recs))
	for _, t := range tagRecs {
		tags[t.ProjectID] = append(tags[t.ProjectID], t.Tag)
	}

	projects := make([]*models.Project, 0, len(recs))
	for _, rec := range recs {
		p, err := fromProjectRecord(rec, tags[rec.ID])
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	return projects, nil
}

func insertTags(tx *gorm.DB, tags []projectTagRecord) error {
	if len(tags) == 0 {
		return nil
	}
	return tx.Create(&tags).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(gdb *gorm.DB) *UserRepository {
	return &UserRepository{db: gdb}
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	rec := toUserRecord(user)

	err := r.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return emailTaken(rec.Email)
	}
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email models.Email) (*models.User, error) {
	return r.first(ctx, "email = ?", email.String())
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	rec := toUserRecord(user)

	result := r.db.WithContext(ctx).
		Model(&userRecord{}).
		Where("id = ?", rec.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&rec)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return emailTaken(rec.Email)
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("user", rec.ID)
	}

	return nil
}

func (r *UserRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var rec userRecord

	err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return fromUserRecord(rec), nil
}

func emailTaken(email string) error {
	return &apperrors.ConflictError{Resource: "user", Field: "email", Value: email}
}

package services

import (
	"context"
	"strings"
	"unicode"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/auth"
	"github.com/monocle-dev/taskhub/internal/models"
	"github.com/monocle-dev/taskhub/internal/repository"
)

const minPasswordLength = 8

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// UpdateUserInput changes only the non-empty fields. NewPassword requires
// CurrentPassword.
type UpdateUserInput struct {
	UserID          string
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
}

type UserService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
}

func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	fail := func(err error) (*models.User, error) {
		return nil, apperrors.Wrap(err, "RegisterUserService", "failed to register user")
	}

	email, err := models.NewEmail(in.Email)
	if err != nil {
		return fail(err)
	}

	name, err := models.NewName(in.Name)
	if err != nil {
		return fail(err)
	}

	if err := checkPasswordStrength(in.Password); err != nil {
		return fail(err)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fail(err)
	}
	if existing != nil {
		return fail(&apperrors.ConflictError{Resource: "user", Field: "email", Value: email.String()})
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fail(err)
	}

	user := models.NewUser(email, name, hash)
	if err := s.users.Save(ctx, user); err != nil {
		return fail(err)
	}

	return user, nil
}

// Authenticate does not distinguish an unknown email from a wrong password.
func (s *UserService) Authenticate(ctx context.Context, rawEmail, password string) (*models.User, error) {
	denied := apperrors.NewUnauthorized("log in as", "user", "")

	email, err := models.NewEmail(rawEmail)
	if err != nil {
		return nil, denied
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Wrap(err, "AuthenticateUserService", "failed to look up user")
	}
	if user == nil {
		return nil, denied
	}

	ok, err := s.hasher.Compare(user.PasswordHash(), password)
	if err != nil {
		return nil, apperrors.Wrap(err, "AuthenticateUserService", "failed to verify password")
	}
	if !ok {
		return nil, denied
	}

	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "GetUserService", "failed to get user "+id)
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", id)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	fail := func(err error) (*models.User, error) {
		return nil, apperrors.Wrap(err, "UpdateUserService", "failed to update user "+in.UserID)
	}

	user, err := s.Get(ctx, in.UserID)
	if err != nil {
		return fail(err)
	}

	changed := false

	if strings.TrimSpace(in.Name) != "" {
		name, err := models.NewName(in.Name)
		if err != nil {
			return fail(err)
		}
		user.Rename(name)
		changed = true
	}

	if strings.TrimSpace(in.Email) != "" {
		email, err := models.NewEmail(in.Email)
		if err != nil {
			return fail(err)
		}

		if email != user.Email() {
			existing, err := s.users.FindByEmail(ctx, email)
			if err != nil {
				return fail(err)
			}
			if existing != nil && existing.ID != user.ID {
				return fail(&apperrors.ConflictError{Resource: "user", Field: "email", Value: email.String()})
			}
			user.ChangeEmail(email)
		}
		changed = true
	}

	if in.NewPassword != "" {
		if in.CurrentPassword == "" {
			return fail(apperrors.NewValidation("current_password", "current password is required to change password"))
		}

		ok, err := s.hasher.Compare(user.PasswordHash(), in.CurrentPassword)
		if err != nil {
			return fail(err)
		}
		if !ok {
			return fail(apperrors.NewUnauthorized("change password of", "user", user.ID))
		}

		if err := checkPasswordStrength(in.NewPassword); err != nil {
			return fail(err)
		}

		hash, err := s.hasher.Hash(in.NewPassword)
		if err != nil {
			return fail(err)
		}
		user.ChangePasswordHash(hash)
		changed = true
	}

	if !changed {
		return fail(apperrors.NewValidation("body", "no valid fields to update"))
	}

	if err := s.users.Update(ctx, user); err != nil {
		return fail(err)
	}

	return user, nil
}

func checkPasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.NewBusinessRule("password_strength", "password must be at least 8 characters")
	}

	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	if !letter || !digit {
		return apperrors.NewBusinessRule("password_strength", "password must contain a letter and a digit")
	}

	return nil
}

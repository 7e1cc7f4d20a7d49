package models

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/monocle-dev/taskhub/internal/apperrors"
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Email is a trimmed, lower-cased address that passed format validation.
type Email struct {
	value string
}

func NewEmail(raw string) (Email, error) {
	value := strings.ToLower(strings.TrimSpace(raw))

	if !emailPattern.MatchString(value) {
		return Email{}, apperrors.NewValidation("email", "invalid email format")
	}

	return Email{value: value}, nil
}

func (e Email) String() string { return e.value }

// Name holds letters and single spaces only.
type Name struct {
	value string
}

func NewName(raw string) (Name, error) {
	value := strings.Join(strings.Fields(raw), " ")

	if value == "" {
		return Name{}, apperrors.NewValidation("name", "name is required")
	}

	for _, r := range value {
		if r != ' ' && !unicode.IsLetter(r) {
			return Name{}, apperrors.NewValidation("name", "name may only contain letters and spaces")
		}
	}

	return Name{value: value}, nil
}

func (n Name) String() string { return n.value }

type UserState struct {
	Entity

	Email        string
	Name         string
	PasswordHash string
}

type User struct {
	Entity

	email        Email
	name         Name
	passwordHash string
}

func NewUser(email Email, name Name, passwordHash string) *User {
	return &User{
		Entity:       newEntity(),
		email:        email,
		name:         name,
		passwordHash: passwordHash,
	}
}

// RestoreUser rehydrates a stored user without re-running value validation.
func RestoreUser(state UserState) *User {
	return &User{
		Entity:       state.Entity,
		email:        Email{value: state.Email},
		name:         Name{value: state.Name},
		passwordHash: state.PasswordHash,
	}
}

func (u *User) State() UserState {
	return UserState{
		Entity:       u.Entity,
		Email:        u.email.String(),
		Name:         u.name.String(),
		PasswordHash: u.passwordHash,
	}
}

func (u *User) Email() Email         { return u.email }
func (u *User) Name() Name           { return u.name }
func (u *User) PasswordHash() string { return u.passwordHash }

func (u *User) Rename(name Name) {
	u.name = name
	u.touch()
}

func (u *User) ChangeEmail(email Email) {
	u.email = email
	u.touch()
}

func (u *User) ChangePasswordHash(hash string) {
	u.passwordHash = hash
	u.touch()
}

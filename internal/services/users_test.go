package services

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/auth"
	"github.com/monocle-dev/taskhub/internal/repository/memory"
)

func newUserService() *UserService {
	return NewUserService(memory.NewUserRepository(), auth.BcryptHasher{Cost: bcrypt.MinCost})
}

func TestRegister(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: " Ada@Example.COM ", Name: "Ada  Lovelace", Password: "analytical1"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Email().String() != "ada@example.com" {
		t.Errorf("Email = %q", user.Email())
	}
	if user.Name().String() != "Ada Lovelace" {
		t.Errorf("Name = %q", user.Name())
	}
	if user.PasswordHash() == "analytical1" {
		t.Error("password stored in clear text")
	}

	_, err = svc.Register(ctx, RegisterInput{Email: "ada@example.com", Name: "Other", Password: "analytical2"})
	var conflict *apperrors.ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("duplicate email error = %v, want ConflictError", err)
	}
}

func TestRegister_Rejects(t *testing.T) {
	svc := newUserService()

	tests := []struct {
		name  string
		input RegisterInput
		check func(error) bool
	}{
		{
			name:  "bad email",
			input: RegisterInput{Email: "not-an-email", Name: "Ada", Password: "password1"},
			check: isValidation,
		},
		{
			name:  "bad name",
			input: RegisterInput{Email: "a@example.com", Name: "R2D2", Password: "password1"},
			check: isValidation,
		},
		{
			name:  "short password",
			input: RegisterInput{Email: "a@example.com", Name: "Ada", Password: "abc1"},
			check: isBusinessRule,
		},
		{
			name:  "no digit",
			input: RegisterInput{Email: "a@example.com", Name: "Ada", Password: "password"},
			check: isBusinessRule,
		},
		{
			name:  "no letter",
			input: RegisterInput{Email: "a@example.com", Name: "Ada", Password: "12345678"},
			check: isBusinessRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			if !tt.check(err) {
				t.Errorf("error = %v", err)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Name: "Ada", Password: "analytical1"})
	if err != nil {
		t.Fatal(err)
	}

	user, err := svc.Authenticate(ctx, "ADA@example.com", "analytical1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("ID = %s, want %s", user.ID, registered.ID)
	}

	for _, tc := range []struct{ email, password string }{
		{"ada@example.com", "wrong-password1"},
		{"nobody@example.com", "analytical1"},
		{"garbage", "analytical1"},
	} {
		var unauth *apperrors.UnauthorizedError
		if _, err := svc.Authenticate(ctx, tc.email, tc.password); !errors.As(err, &unauth) {
			t.Errorf("Authenticate(%q) error = %v, want UnauthorizedError", tc.email, err)
		}
	}
}

func TestUpdateUser(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	ada, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Name: "Ada", Password: "analytical1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "grace@example.com", Name: "Grace", Password: "compiler1"}); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, UpdateUserInput{UserID: ada.ID, Name: "Ada King"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name().String() != "Ada King" || updated.Email().String() != "ada@example.com" {
		t.Errorf("updated = %s <%s>", updated.Name(), updated.Email())
	}

	var conflict *apperrors.ConflictError
	if _, err := svc.Update(ctx, UpdateUserInput{UserID: ada.ID, Email: "grace@example.com"}); !errors.As(err, &conflict) {
		t.Errorf("taken email error = %v, want ConflictError", err)
	}

	if _, err := svc.Update(ctx, UpdateUserInput{UserID: ada.ID, NewPassword: "newpassword1"}); !isValidation(err) {
		t.Errorf("missing current password error = %v, want ValidationError", err)
	}

	var unauth *apperrors.UnauthorizedError
	if _, err := svc.Update(ctx, UpdateUserInput{UserID: ada.ID, CurrentPassword: "nope", NewPassword: "newpassword1"}); !errors.As(err, &unauth) {
		t.Errorf("wrong current password error = %v, want UnauthorizedError", err)
	}

	if _, err := svc.Update(ctx, UpdateUserInput{UserID: ada.ID, CurrentPassword: "analytical1", NewPassword: "newpassword1"}); err != nil {
		t.Fatalf("password change failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ada@example.com", "newpassword1"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	if _, err := svc.Update(ctx, UpdateUserInput{UserID: ada.ID}); !isValidation(err) {
		t.Errorf("empty update error = %v, want ValidationError", err)
	}
}

func isValidation(err error) bool {
	var validation *apperrors.ValidationError
	return errors.As(err, &validation)
}

func isBusinessRule(err error) bool {
	var rule *apperrors.BusinessRuleError
	return errors.As(err, &rule)
}

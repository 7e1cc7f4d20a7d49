package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestTokenIssuer(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}

	token, err := issuer.Generate("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "ada@example.com" {
		t.Errorf("claims = %+v", claims)
	}

	other, _ := NewTokenIssuer("another-secret", time.Hour)
	if _, err := other.Verify(token); err == nil {
		t.Error("token verified with the wrong secret")
	}

	if _, err := issuer.Verify("not-a-token"); err == nil {
		t.Error("garbage verified")
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Hour)
	issuer.ttl = -time.Minute

	token, err := issuer.Generate("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := issuer.Verify(token); err == nil {
		t.Error("expired token verified")
	}
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Error("empty secret accepted")
	}
}

func TestBcryptHasher(t *testing.T) {
	hasher := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := hasher.Hash("correct horse 1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if ok, err := hasher.Compare(hash, "correct horse 1"); err != nil || !ok {
		t.Errorf("Compare(right) = %v, %v", ok, err)
	}
	if ok, err := hasher.Compare(hash, "wrong"); err != nil || ok {
		t.Errorf("Compare(wrong) = %v, %v", ok, err)
	}
}

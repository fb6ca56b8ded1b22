package auth

import (
	"errors"
	"testing"
)

func TestHashPasswordAndVerify(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatalf("password must not be stored in the clear")
	}
	if !VerifyPassword(hash, "correct horse battery") {
		t.Fatalf("expected matching password to verify")
	}
	if VerifyPassword(hash, "wrong horse") {
		t.Fatalf("expected mismatched password to fail")
	}
}

func TestHashPasswordRejectsShortPasswords(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestVerifyPasswordRejectsGarbageHash(t *testing.T) {
	if VerifyPassword("not-a-bcrypt-hash", "anything at all") {
		t.Fatalf("garbage hash must not verify")
	}
}

package security

import (
	"testing"

	"chart-registry/internal/domain"
)

func TestBcryptVerifier(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if hash == "password123" {
		t.Fatal("Password must be hashed, not stored in plain text")
	}

	verifier := BcryptVerifier{}
	user := &domain.User{ID: "user-1", PasswordHash: hash}

	if !verifier.Verify(user, "password123") {
		t.Error("Expected correct password to verify")
	}

	if verifier.Verify(user, "wrongpassword") {
		t.Error("Expected wrong password to fail")
	}

	if verifier.Verify(nil, "password123") {
		t.Error("Expected nil user to fail")
	}

	if verifier.Verify(&domain.User{ID: "user-2"}, "password123") {
		t.Error("Expected user without hash to fail")
	}
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	h1, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	h2, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if h1 == h2 {
		t.Error("Expected different hashes for the same password (salt should differ)")
	}
}

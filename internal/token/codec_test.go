package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestCodec_IssueAndVerify(t *testing.T) {
	codec := NewCodec("test-secret-that-is-long-enough-123")

	raw, err := codec.Issue("session-1", "user-42", time.Hour)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if raw == "" {
		t.Fatal("Expected non-empty token")
	}

	claims, err := codec.Verify(raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if claims.SessionID != "session-1" {
		t.Errorf("Expected session ID 'session-1', got %s", claims.SessionID)
	}

	if claims.UserID != "user-42" {
		t.Errorf("Expected user ID 'user-42', got %s", claims.UserID)
	}

	if claims.Issuer != Issuer {
		t.Errorf("Expected issuer %q, got %q", Issuer, claims.Issuer)
	}

	expiry := claims.ExpiresAt.Time
	diff := expiry.Sub(time.Now().Add(time.Hour)).Abs()
	if diff > time.Minute {
		t.Errorf("Expected expiry ~1 hour out, difference is %v", diff)
	}
}

func TestCodec_Verify_Expired(t *testing.T) {
	codec := NewCodec("test-secret-that-is-long-enough-123")

	raw, err := codec.Issue("session-1", "user-42", -time.Minute)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	_, err = codec.Verify(raw)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("Expected ErrExpired, got: %v", err)
	}
}

func TestCodec_Verify_Malformed(t *testing.T) {
	codec := NewCodec("test-secret-that-is-long-enough-123")

	tests := []struct {
		name string
		raw  string
	}{
		{"empty string", ""},
		{"garbage", "not-a-token"},
		{"three garbage segments", "aaa.bbb.ccc"},
		{"truncated token", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.raw)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed, got: %v", err)
			}
		})
	}
}

func TestCodec_Verify_WrongKey(t *testing.T) {
	codec := NewCodec("test-secret-that-is-long-enough-123")
	other := NewCodec("a-completely-different-secret-key-456")

	raw, err := other.Issue("session-1", "user-42", time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	// A token signed with a foreign key is indistinguishable from a forgery.
	_, err = codec.Verify(raw)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got: %v", err)
	}
}

func TestCodec_Verify_IssuerMismatch(t *testing.T) {
	secret := "test-secret-that-is-long-enough-123"
	codec := NewCodec(secret)

	// Sign with the right key but a foreign issuer claim.
	claims := &Claims{
		SessionID: "session-1",
		UserID:    "user-42",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	_, err = codec.Verify(raw)
	if !errors.Is(err, ErrIssuerMismatch) {
		t.Errorf("Expected ErrIssuerMismatch, got: %v", err)
	}
}

func TestCodec_IsExpired(t *testing.T) {
	codec := NewCodec("test-secret-that-is-long-enough-123")

	valid, err := codec.Issue("session-1", "user-42", time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	expired, err := codec.Issue("session-1", "user-42", -time.Minute)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	tests := []struct {
		name     string
		raw      string
		expected bool
	}{
		{"valid token", valid, false},
		{"expired token", expired, true},
		{"empty string", "", true},
		{"garbage", "definitely-not-a-token", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := codec.IsExpired(tt.raw); got != tt.expected {
				t.Errorf("IsExpired(%q) = %v, want %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func BenchmarkVerify(b *testing.B) {
	codec := NewCodec("test-secret-that-is-long-enough-123")
	raw, _ := codec.Issue("session-1", "user-42", time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		codec.Verify(raw)
	}
}

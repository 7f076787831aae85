package security

import (
	"chart-registry/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// BcryptVerifier is the default credential verification strategy: it checks a
// presented password against the bcrypt hash stored on the user record.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(user *domain.User, candidate string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(candidate)) == nil
}

// HashPassword produces a bcrypt hash suitable for storage on a user record
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

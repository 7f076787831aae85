package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the fixed issuer claim stamped into every token. A token carrying
// any other issuer is treated as foreign, even when the signature checks out.
const Issuer = "chart-registry"

var (
	ErrMalformed      = errors.New("token malformed")
	ErrExpired        = errors.New("token expired")
	ErrIssuerMismatch = errors.New("token issuer mismatch")
)

// Claims is the decoded payload of an access or refresh token. Both token
// kinds carry the same claim set; only their lifetimes differ.
type Claims struct {
	SessionID string `json:"sid"`
	UserID    string `json:"uid"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a single symmetric secret.
// Verification is pure: it never touches the store, so the lifecycle manager
// must still confirm the session exists before trusting a token.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue signs a token binding sessionID and userID, expiring after ttl.
func (c *Codec) Issue(sessionID, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		SessionID: sessionID,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify decodes and validates a token. It fails with ErrMalformed on any
// structural or signature problem, ErrExpired when the expiration claim has
// passed, and ErrIssuerMismatch when the issuer claim is not ours.
func (c *Codec) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	// The issuer is checked after signature validation so a forged issuer on a
	// correctly signed token is reported as a mismatch, not as malformed.
	if claims.Issuer != Issuer {
		return nil, ErrIssuerMismatch
	}

	return claims, nil
}

// IsExpired reports whether a token should be treated as expired. Any decode
// failure counts as expired (fail closed); only a structurally valid,
// correctly signed, not-yet-expired token returns false.
func (c *Codec) IsExpired(raw string) bool {
	_, err := c.Verify(raw)
	return err != nil
}

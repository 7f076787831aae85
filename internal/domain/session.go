package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// NoTTL is returned by SessionStore.TTLRemaining when the expiry marker is
// missing or no longer carries a countdown. A session whose marker reports
// NoTTL has already outlived its authoritative lifetime.
const NoTTL = time.Duration(-1)

// Session binds a user to a pair of signed tokens. Sessions are immutable:
// refresh revokes the old session and mints a new one, it never updates
// fields in place.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionStore defines durable session persistence. Each session kind gets
// its own hash table keyed by session ID, plus an independent TTL-bearing
// marker key per session whose existence is the expiry signal.
type SessionStore interface {
	Put(ctx context.Context, kind string, session *Session) error
	Get(ctx context.Context, kind, sessionID string) (*Session, error)
	All(ctx context.Context, kind string) ([]*Session, error)
	Remove(ctx context.Context, kind, sessionID string) error
	SetExpiry(ctx context.Context, sessionID string, ttl time.Duration) error
	RemoveExpiry(ctx context.Context, sessionID string) error
	TTLRemaining(ctx context.Context, sessionID string) (time.Duration, error)
}

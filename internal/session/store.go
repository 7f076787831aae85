package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chart-registry/internal/domain"
	"chart-registry/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	hashKeyPrefix   = "sessions:"
	expiryKeyPrefix = "session-expiry:"
)

// RedisStore implements domain.SessionStore on Redis. Sessions of one kind
// live in a single hash keyed by session ID; each session additionally owns a
// marker key whose TTL is the authoritative session lifetime. The marker's
// value is irrelevant, only its countdown matters.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a session store backed by the given Redis client
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func hashKey(kind string) string {
	return hashKeyPrefix + kind
}

func expiryKey(sessionID string) string {
	return expiryKeyPrefix + sessionID
}

// Put upserts a session into the hash table for its kind
func (s *RedisStore) Put(ctx context.Context, kind string, session *domain.Session) error {
	defer observeStoreOp("put")()

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.HSet(ctx, hashKey(kind), session.ID, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Get retrieves a single session by ID
func (s *RedisStore) Get(ctx context.Context, kind, sessionID string) (*domain.Session, error) {
	defer observeStoreOp("get")()

	raw, err := s.client.HGet(ctx, hashKey(kind), sessionID).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	session := &domain.Session{}
	if err := json.Unmarshal(raw, session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return session, nil
}

// All returns every session of the given kind. Callers filter by user ID
// client-side; a corrupt hash entry is logged and skipped rather than
// blocking enumeration of the healthy ones.
func (s *RedisStore) All(ctx context.Context, kind string) ([]*domain.Session, error) {
	defer observeStoreOp("all")()

	entries, err := s.client.HGetAll(ctx, hashKey(kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	sessions := make([]*domain.Session, 0, len(entries))
	for id, raw := range entries {
		session := &domain.Session{}
		if err := json.Unmarshal([]byte(raw), session); err != nil {
			observability.Warn("skipping corrupt session entry",
				"session_id", id, "error", err.Error())
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Remove deletes a session from its kind's hash table. Deleting an absent
// session is a no-op, not an error.
func (s *RedisStore) Remove(ctx context.Context, kind, sessionID string) error {
	defer observeStoreOp("remove")()

	if err := s.client.HDel(ctx, hashKey(kind), sessionID).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// SetExpiry sets the TTL-bearing marker key for a session
func (s *RedisStore) SetExpiry(ctx context.Context, sessionID string, ttl time.Duration) error {
	defer observeStoreOp("set_expiry")()

	if err := s.client.Set(ctx, expiryKey(sessionID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// RemoveExpiry deletes the marker key. Like Remove, absent keys are a no-op.
func (s *RedisStore) RemoveExpiry(ctx context.Context, sessionID string) error {
	defer observeStoreOp("remove_expiry")()

	if err := s.client.Del(ctx, expiryKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// TTLRemaining reports how long the session's marker key has left. It returns
// domain.NoTTL when the marker is gone or carries no countdown, which the
// scheduler treats as "already lapsed".
func (s *RedisStore) TTLRemaining(ctx context.Context, sessionID string) (time.Duration, error) {
	defer observeStoreOp("ttl_remaining")()

	ttl, err := s.client.TTL(ctx, expiryKey(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	// Redis reports -2 for a missing key and -1 for a key without expiry;
	// both mean the marker no longer counts down.
	if ttl < 0 {
		return domain.NoTTL, nil
	}
	return ttl, nil
}

func observeStoreOp(op string) func() {
	start := time.Now()
	return func() {
		observability.StoreOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chart-registry/internal/domain"
	"chart-registry/internal/observability"
	"chart-registry/internal/token"

	"github.com/google/uuid"
)

const (
	DefaultKind            = "web"
	DefaultAccessTokenTTL  = 12 * time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// How long a timer-triggered revoke may spend talking to the store.
	expireTimeout = 10 * time.Second
)

// CredentialVerifier is the pluggable authentication strategy. The manager
// never inspects credentials itself; it only asks whether a candidate matches
// the user's stored record.
type CredentialVerifier interface {
	Verify(user *domain.User, candidate string) bool
}

// EventPublisher receives session lifecycle events for auditing. A nil
// publisher disables events.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, eventType, sessionID, userID string) error
}

// ManagerOptions tunes a Manager. Zero values fall back to the defaults above.
type ManagerOptions struct {
	Kind            string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Events          EventPublisher
}

// Manager orchestrates the session lifecycle: it is the only component that
// mutates the store, and it keeps the store, the token codec, and the
// expiration scheduler in agreement about which sessions are alive.
type Manager struct {
	store      domain.SessionStore
	codec      *token.Codec
	sched      *Scheduler
	verifier   CredentialVerifier
	events     EventPublisher
	kind       string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager creates a Manager and rehydrates expiration tasks from the
// store, so a process restart does not lose track of sessions that should
// already be expiring. Sessions whose marker already lapsed are removed
// before this returns.
func NewManager(ctx context.Context, store domain.SessionStore, codec *token.Codec, verifier CredentialVerifier, opts ManagerOptions) (*Manager, error) {
	m := &Manager{
		store:      store,
		codec:      codec,
		sched:      NewScheduler(),
		verifier:   verifier,
		events:     opts.Events,
		kind:       opts.Kind,
		accessTTL:  opts.AccessTokenTTL,
		refreshTTL: opts.RefreshTokenTTL,
	}
	if m.kind == "" {
		m.kind = DefaultKind
	}
	if m.accessTTL == 0 {
		m.accessTTL = DefaultAccessTokenTTL
	}
	if m.refreshTTL == 0 {
		m.refreshTTL = DefaultRefreshTokenTTL
	}

	if err := m.rehydrate(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) rehydrate(ctx context.Context) error {
	sessions, err := m.store.All(ctx, m.kind)
	if err != nil {
		return fmt.Errorf("failed to rehydrate sessions: %w", err)
	}

	entries := make([]RehydrateEntry, 0, len(sessions))
	for _, s := range sessions {
		ttl, err := m.store.TTLRemaining(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("failed to read ttl for session %s: %w", s.ID, err)
		}
		entries = append(entries, RehydrateEntry{SessionID: s.ID, TTL: ttl})
	}

	m.sched.Rehydrate(entries,
		m.onExpire,
		func(sessionID string) {
			// Marker lapsed while the process was down: the session is dead,
			// drop the stale hash entry right away.
			if err := m.store.Remove(ctx, m.kind, sessionID); err != nil {
				observability.Error("failed to remove stale session",
					"session_id", sessionID, "error", err.Error())
			}
		})

	observability.Info("session rehydration complete",
		"kind", m.kind, "scheduled", m.sched.Len())
	return nil
}

// Create mints a new session for userID: fresh session ID, signed token pair,
// store write, expiry marker, and a scheduled expiration for the refresh TTL.
func (m *Manager) Create(ctx context.Context, userID string) (*domain.Session, error) {
	id := uuid.New().String()

	access, err := m.codec.Issue(id, userID, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.codec.Issue(id, userID, m.refreshTTL)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:           id,
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: refresh,
		CreatedAt:    time.Now().UTC(),
	}

	if err := m.store.Put(ctx, m.kind, session); err != nil {
		return nil, err
	}

	if err := m.store.SetExpiry(ctx, id, m.refreshTTL); err != nil {
		// Roll back the hash entry so a failed create leaves neither a
		// half-written session nor a dangling timer behind.
		if rerr := m.store.Remove(ctx, m.kind, id); rerr != nil {
			observability.Error("store left inconsistent after failed create",
				"session_id", id, "error", rerr.Error())
		}
		return nil, err
	}

	m.sched.Schedule(id, m.refreshTTL, m.onExpire)

	observability.SessionsCreated.Inc()
	m.publish(ctx, "session.created", session.ID, session.UserID)
	return session, nil
}

// Fetch resolves a presented token to its live session. The token must both
// verify and still have a store entry: a structurally valid, unexpired token
// whose session was revoked resolves to ErrSessionNotFound. Callers can
// distinguish "not authenticated" (ErrSessionNotFound) from "bad request"
// (token.ErrMalformed, token.ErrIssuerMismatch).
func (m *Manager) Fetch(ctx context.Context, raw string) (*domain.Session, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrSessionNotFound
	}

	claims, err := m.codec.Verify(raw)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			// Expected condition, not an anomaly.
			observability.TokenVerificationFailures.WithLabelValues("expired").Inc()
			return nil, domain.ErrSessionNotFound
		case errors.Is(err, token.ErrIssuerMismatch):
			observability.TokenVerificationFailures.WithLabelValues("issuer_mismatch").Inc()
			observability.FromContext(ctx).Warn("token with foreign issuer rejected")
			return nil, err
		default:
			observability.TokenVerificationFailures.WithLabelValues("malformed").Inc()
			return nil, err
		}
	}

	return m.store.Get(ctx, m.kind, claims.SessionID)
}

// All lists every live session belonging to userID
func (m *Manager) All(ctx context.Context, userID string) ([]*domain.Session, error) {
	sessions, err := m.store.All(ctx, m.kind)
	if err != nil {
		return nil, err
	}

	owned := make([]*domain.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.UserID == userID {
			owned = append(owned, s)
		}
	}
	return owned, nil
}

// Refresh revokes the given session and mints a new one for the same user.
// A concurrent refresh of the same session loses the race and gets
// ErrSessionNotFound; clients are expected not to double-submit.
func (m *Manager) Refresh(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if _, err := m.store.Get(ctx, m.kind, session.ID); err != nil {
		return nil, err
	}

	if err := m.revoke(ctx, session.ID, session.UserID, "refresh"); err != nil {
		return nil, err
	}

	next, err := m.Create(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	m.publish(ctx, "session.refreshed", next.ID, next.UserID)
	return next, nil
}

// Revoke removes the session's store entry and expiry marker and cancels its
// scheduled expiration. Revoking an already-revoked session is a no-op.
func (m *Manager) Revoke(ctx context.Context, session *domain.Session) error {
	return m.revoke(ctx, session.ID, session.UserID, "manual")
}

// RevokeAll revokes every session belonging to userID. Individual failures do
// not abort the sweep; the count of successful revocations is returned along
// with the collected errors.
func (m *Manager) RevokeAll(ctx context.Context, userID string) (int, error) {
	sessions, err := m.All(ctx, userID)
	if err != nil {
		return 0, err
	}

	revoked := 0
	var errs []error
	for _, s := range sessions {
		if err := m.revoke(ctx, s.ID, s.UserID, "revoke_all"); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID, err))
			continue
		}
		revoked++
	}
	return revoked, errors.Join(errs...)
}

// IsTokenExpired reports whether a token should be treated as expired,
// failing closed on any decode problem
func (m *Manager) IsTokenExpired(raw string) bool {
	return m.codec.IsExpired(raw)
}

// Authenticate verifies a presented credential against the user record via
// the injected strategy and creates a new session on success.
func (m *Manager) Authenticate(ctx context.Context, user *domain.User, credential string) (*domain.Session, error) {
	if !m.IsPasswordValid(user, credential) {
		return nil, domain.ErrInvalidCredentials
	}
	return m.Create(ctx, user.ID)
}

// IsPasswordValid delegates the credential check to the configured strategy
func (m *Manager) IsPasswordValid(user *domain.User, credential string) bool {
	return user != nil && m.verifier.Verify(user, credential)
}

// Close cancels every outstanding expiration task. Call at shutdown before
// closing the store connection.
func (m *Manager) Close() {
	m.sched.Close()
}

func (m *Manager) revoke(ctx context.Context, sessionID, userID, reason string) error {
	// Cancel first so the timer cannot fire mid-delete; cancelling an
	// already-fired task is a no-op.
	m.sched.Cancel(sessionID)

	removeErr := m.store.Remove(ctx, m.kind, sessionID)
	markerErr := m.store.RemoveExpiry(ctx, sessionID)
	if removeErr != nil || markerErr != nil {
		// A half-deleted session cannot resurrect (the hash entry is checked
		// on every fetch), but the inconsistency must not pass silently.
		observability.Error("session revoke left store inconsistent",
			"session_id", sessionID,
			"hash_removed", removeErr == nil,
			"marker_removed", markerErr == nil)
		return errors.Join(removeErr, markerErr)
	}

	observability.SessionsRevoked.WithLabelValues(reason).Inc()
	m.publish(ctx, "session.revoked", sessionID, userID)
	return nil
}

// onExpire runs on the scheduler goroutine when a session's lifetime lapses
func (m *Manager) onExpire(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()

	// Resolve the owner for the audit event before deleting. The session may
	// already be gone if a manual revoke raced the timer; both paths converge
	// on "ensure absent", so that is fine.
	userID := ""
	if s, err := m.store.Get(ctx, m.kind, sessionID); err == nil {
		userID = s.UserID
	}

	if err := m.store.Remove(ctx, m.kind, sessionID); err != nil {
		observability.Error("failed to remove expired session",
			"session_id", sessionID, "error", err.Error())
		return
	}
	if err := m.store.RemoveExpiry(ctx, sessionID); err != nil {
		observability.Error("failed to remove expiry marker",
			"session_id", sessionID, "error", err.Error())
	}

	observability.SessionsExpired.Inc()
	observability.Info("session expired", "session_id", sessionID, "user_id", userID)
	m.publish(ctx, "session.expired", sessionID, userID)
}

func (m *Manager) publish(ctx context.Context, eventType, sessionID, userID string) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishSessionEvent(ctx, eventType, sessionID, userID); err != nil {
		observability.Warn("failed to publish session event",
			"event", eventType, "session_id", sessionID, "error", err.Error())
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"chart-registry/internal/domain"
	"chart-registry/internal/token"
)

type contextKey string

const (
	UserIDKey  contextKey = "user_id"
	SessionKey contextKey = "session"
)

// SessionFetcher resolves an access token to its live session.
type SessionFetcher interface {
	Fetch(ctx context.Context, accessToken string) (*domain.Session, error)
}

// Auth extracts the Bearer token from the Authorization header, resolves
// the session, and injects the session and user ID into the request context.
func Auth(sessions SessionFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken, ok := bearerToken(r)
			if !ok {
				http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
				return
			}

			session, err := sessions.Fetch(r.Context(), accessToken)
			if err != nil {
				status, msg := authErrorStatus(err)
				http.Error(w, msg, status)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, session.UserID)
			ctx = context.WithValue(ctx, SessionKey, session)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken pulls the credential out of "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, credential, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || credential == "" {
		return "", false
	}
	return credential, true
}

func authErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, `{"error":"Invalid or expired session"}`
	case errors.Is(err, token.ErrMalformed), errors.Is(err, token.ErrIssuerMismatch):
		return http.StatusBadRequest, `{"error":"Invalid token"}`
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, `{"error":"Session store unavailable"}`
	default:
		return http.StatusUnauthorized, `{"error":"Not authenticated"}`
	}
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

func GetSession(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*domain.Session)
	return session, ok
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

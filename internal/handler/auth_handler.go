package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"chart-registry/internal/domain"
	"chart-registry/internal/middleware"
	"chart-registry/internal/security"
	"chart-registry/internal/token"
)

// SessionService is the session lifecycle surface the handler depends on.
type SessionService interface {
	Authenticate(ctx context.Context, user *domain.User, credential string) (*domain.Session, error)
	Fetch(ctx context.Context, raw string) (*domain.Session, error)
	Refresh(ctx context.Context, session *domain.Session) (*domain.Session, error)
	Revoke(ctx context.Context, session *domain.Session) error
	RevokeAll(ctx context.Context, userID string) (int, error)
	All(ctx context.Context, userID string) ([]*domain.Session, error)
}

// AuthHandler handles registration, login, and session management endpoints.
type AuthHandler struct {
	sessions SessionService
	users    domain.UserRepository
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(sessions SessionService, users domain.UserRepository) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		users:    users,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse represents a session with its tokens
type SessionResponse struct {
	SessionID    string    `json:"session_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func sessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		SessionID:    s.ID,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		CreatedAt:    s.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sessionErrorStatus maps session resolution errors onto HTTP statuses.
func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, token.ErrMalformed), errors.Is(err, token.ErrIssuerMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"username, email and password are required"}`, http.StatusBadRequest)
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		http.Error(w, `{"error":"Failed to register"}`, http.StatusInternalServerError)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrUsernameExists), errors.Is(err, domain.ErrEmailExists):
			status = http.StatusConflict
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, status)
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// Login verifies credentials and opens a new session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, `{"error":"Invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		http.Error(w, `{"error":"Failed to login"}`, http.StatusInternalServerError)
		return
	}

	session, err := h.sessions.Authenticate(r.Context(), user, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			http.Error(w, `{"error":"Invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		http.Error(w, `{"error":"Failed to login"}`, sessionErrorStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// Refresh rotates a session: the presented refresh token's session is revoked
// and a replacement with fresh tokens is returned.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	session, err := h.sessions.Fetch(r.Context(), req.RefreshToken)
	if err != nil {
		http.Error(w, `{"error":"Invalid or expired session"}`, sessionErrorStatus(err))
		return
	}

	renewed, err := h.sessions.Refresh(r.Context(), session)
	if err != nil {
		http.Error(w, `{"error":"Failed to refresh session"}`, sessionErrorStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(renewed))
}

// Logout revokes the session attached to the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Session not found"}`, http.StatusUnauthorized)
		return
	}

	if err := h.sessions.Revoke(r.Context(), session); err != nil {
		http.Error(w, `{"error":"Failed to logout"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// LogoutAll revokes every session belonging to the authenticated user.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	revoked, err := h.sessions.RevokeAll(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"Failed to revoke some sessions"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"revoked": revoked})
}

// Sessions lists the authenticated user's active sessions. Tokens are not
// echoed back; only session metadata is returned.
func (h *AuthHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	sessions, err := h.sessions.All(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"Failed to list sessions"}`, sessionErrorStatus(err))
		return
	}

	type sessionInfo struct {
		SessionID string    `json:"session_id"`
		CreatedAt time.Time `json:"created_at"`
	}
	infos := make([]sessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, sessionInfo{SessionID: s.ID, CreatedAt: s.CreatedAt})
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": infos})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, `{"error":"User not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to load user"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

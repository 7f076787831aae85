// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the chart-registry service.
package testutil

import (
	"context"
	"errors"
	"sync"

	"chart-registry/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
)

// MockUserRepository implements domain.UserRepository for testing
type MockUserRepository struct {
	mu sync.RWMutex

	// Function overrides. Set these to customize behavior.
	CreateFunc        func(ctx context.Context, user *domain.User) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*domain.User, error)

	// In-memory storage for simple tests
	Users map[string]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository with initialized maps
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.Users {
		if existing.Username == user.Username {
			return domain.ErrUsernameExists
		}
		if existing.Email == user.Email {
			return domain.ErrEmailExists
		}
	}
	if user.ID == "" {
		user.ID = nextID("user")
	}
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.Users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.Users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.Users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// MockSessionService is a function-field stub of the session lifecycle
// surface consumed by the HTTP handlers.
type MockSessionService struct {
	AuthenticateFunc func(ctx context.Context, user *domain.User, credential string) (*domain.Session, error)
	FetchFunc        func(ctx context.Context, raw string) (*domain.Session, error)
	RefreshFunc      func(ctx context.Context, session *domain.Session) (*domain.Session, error)
	RevokeFunc       func(ctx context.Context, session *domain.Session) error
	RevokeAllFunc    func(ctx context.Context, userID string) (int, error)
	AllFunc          func(ctx context.Context, userID string) ([]*domain.Session, error)
}

func (m *MockSessionService) Authenticate(ctx context.Context, user *domain.User, credential string) (*domain.Session, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, user, credential)
	}
	return nil, ErrMockNotImplemented
}

func (m *MockSessionService) Fetch(ctx context.Context, raw string) (*domain.Session, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, raw)
	}
	return nil, ErrMockNotImplemented
}

func (m *MockSessionService) Refresh(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, session)
	}
	return nil, ErrMockNotImplemented
}

func (m *MockSessionService) Revoke(ctx context.Context, session *domain.Session) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, session)
	}
	return ErrMockNotImplemented
}

func (m *MockSessionService) RevokeAll(ctx context.Context, userID string) (int, error) {
	if m.RevokeAllFunc != nil {
		return m.RevokeAllFunc(ctx, userID)
	}
	return 0, ErrMockNotImplemented
}

func (m *MockSessionService) All(ctx context.Context, userID string) ([]*domain.Session, error) {
	if m.AllFunc != nil {
		return m.AllFunc(ctx, userID)
	}
	return nil, ErrMockNotImplemented
}

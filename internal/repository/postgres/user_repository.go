package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"chart-registry/internal/domain"
)

// UserRepository implements domain.UserRepository for PostgreSQL. The session
// subsystem only consumes account lookups; account management proper lives in
// the wider registry service.
type UserRepository struct {
	db                *sql.DB
	createStmt        *sql.Stmt
	getByIDStmt       *sql.Stmt
	getByUsernameStmt *sql.Stmt
	getByEmailStmt    *sql.Stmt
}

// NewUserRepository creates a new UserRepository with prepared statements.
// Returns an error if statement preparation fails.
func NewUserRepository(db *sql.DB) (*UserRepository, error) {
	repo := &UserRepository{db: db}

	var err error
	repo.createStmt, err = db.Prepare(`
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare create statement: %w", err)
	}

	repo.getByIDStmt, err = db.Prepare(`
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getByID statement: %w", err)
	}

	repo.getByUsernameStmt, err = db.Prepare(`
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getByUsername statement: %w", err)
	}

	repo.getByEmailStmt, err = db.Prepare(`
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getByEmail statement: %w", err)
	}

	return repo, nil
}

// Create inserts a new user into the database
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.createStmt.QueryRowContext(ctx,
		user.Username,
		user.Email,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if IsUniqueViolation(err, "users_username_key") {
			return domain.ErrUsernameExists
		}
		if IsUniqueViolation(err, "users_email_key") {
			return domain.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(r.getByIDStmt.QueryRowContext(ctx, id))
}

// GetByUsername retrieves a user by username, the credential lookup key
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(r.getByUsernameStmt.QueryRowContext(ctx, username))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(r.getByEmailStmt.QueryRowContext(ctx, email))
}

func (r *UserRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// Package users stores the identity data the ledger needs about account holders.
// Authentication happens upstream; this package never sees credentials.
package users

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
)

// Repository handles user database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new user repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "users").Logger(),
	}
}

// Create inserts a user. Duplicate username or email is reported as a conflict.
func (r *Repository) Create(ctx context.Context, u *domain.User) error {
	u.CreatedAt = time.Now().UTC().Truncate(time.Second)
	u.IsActive = true
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)
	`, u.Username, strings.ToLower(u.Email), u.FirstName, u.LastName, u.CreatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.Conflict("username or email already registered")
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	u.Email = strings.ToLower(u.Email)
	return nil
}

// GetByID returns nil when the user does not exist
func (r *Repository) GetByID(ctx context.Context, q database.Querier, id int64) (*domain.User, error) {
	if q == nil {
		q = r.db
	}
	var u domain.User
	var active int
	var created int64
	err := q.QueryRowContext(ctx, `
		SELECT id, username, email, first_name, last_name, is_active, created_at
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &active, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	u.IsActive = active == 1
	u.CreatedAt = time.Unix(created, 0).UTC()
	return &u, nil
}

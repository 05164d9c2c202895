package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comusielak/exercise-status-api/internal/models"
)

// UserRepository manages tutor account persistence.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByLogin returns the tutor account with the given login.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	const query = `SELECT id, login, full_name, password_hash, active, created_at FROM tutors WHERE login = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, login); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns the tutor account with the given ID.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `SELECT id, login, full_name, password_hash, active, created_at FROM tutors WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin records the time of a successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	const query = `UPDATE tutors SET last_login_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

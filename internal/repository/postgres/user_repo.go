package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/authgate/internal/errs"
	"github.com/and161185/authgate/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, name, password, access_token, refresh_token, is_admin, is_active, created_at, updated_at`

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.Identity) error {
	const q = `
INSERT INTO users (email, name, password, access_token, refresh_token, is_admin, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, u.Email, u.Name, u.PasswordHash, u.AccessToken, u.RefreshToken, u.IsAdmin, u.IsActive).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.Identity, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.Identity, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, email))
}

// Save updates the mutable columns of a user in a single statement.
func (r *UserRepo) Save(ctx context.Context, u *model.Identity) error {
	const q = `
UPDATE users
SET name = $2, password = $3, access_token = $4, refresh_token = $5,
    is_admin = $6, is_active = $7, updated_at = now()
WHERE id = $1
RETURNING updated_at`
	err := r.db.Pool.QueryRow(ctx, q, u.ID, u.Name, u.PasswordHash, u.AccessToken, u.RefreshToken, u.IsAdmin, u.IsActive).
		Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

func (r *UserRepo) scanOne(row pgx.Row) (*model.Identity, error) {
	var u model.Identity
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.AccessToken, &u.RefreshToken,
		&u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizdeck/backend/internal/models"
)

// Repository handles organizer account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByUsername returns an organizer by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.Organizer, error) {
	const q = `SELECT id, username, password_hash, created_at, updated_at FROM organizers WHERE username = $1`
	var o models.Organizer
	err := r.pool.QueryRow(ctx, q, username).Scan(&o.ID, &o.Username, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	return &o, nil
}

// Create inserts a new organizer.
func (r *Repository) Create(ctx context.Context, username, passwordHash string) (*models.Organizer, error) {
	const q = `INSERT INTO organizers (username, password_hash) VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at, updated_at`
	var o models.Organizer
	err := r.pool.QueryRow(ctx, q, username, passwordHash).
		Scan(&o.ID, &o.Username, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// EnsureAccount creates the organizer account if it does not exist. Used to
// seed the default admin from configuration at startup.
func (r *Repository) EnsureAccount(ctx context.Context, username, passwordHash string) error {
	const q = `INSERT INTO organizers (username, password_hash) VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, username, passwordHash)
	return err
}

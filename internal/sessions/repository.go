package sessions

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizdeck/backend/internal/models"
)

// Repository handles session persistence. The unique constraint on code is
// the correctness guarantee for join-code uniqueness; CodeExists only serves
// the generator's pre-check.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a sessions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new session.
func (r *Repository) Create(ctx context.Context, s *models.Session) error {
	const q = `INSERT INTO sessions (code, template_id, status, unlock_time, time_limit_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, s.Code, s.TemplateID, s.Status, s.UnlockTime, s.TimeLimitMinutes).
		Scan(&s.ID, &s.CreatedAt)
}

// CodeExists reports whether a session already claims the given code.
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM sessions WHERE code = $1)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, strings.ToUpper(code)).Scan(&exists)
	return exists, err
}

// GetByID returns a session by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	const q = `SELECT id, code, template_id, status, unlock_time, time_limit_minutes, created_at
		FROM sessions WHERE id = $1`
	var s models.Session
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&s.ID, &s.Code, &s.TemplateID, &s.Status, &s.UnlockTime, &s.TimeLimitMinutes, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByCode returns a session by join code. Comparison is case-insensitive;
// codes are stored uppercase.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Session, error) {
	const q = `SELECT id, code, template_id, status, unlock_time, time_limit_minutes, created_at
		FROM sessions WHERE code = $1`
	var s models.Session
	err := r.pool.QueryRow(ctx, q, strings.ToUpper(code)).
		Scan(&s.ID, &s.Code, &s.TemplateID, &s.Status, &s.UnlockTime, &s.TimeLimitMinutes, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns all sessions with template names and response counts, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Session, error) {
	const q = `SELECT s.id, s.code, s.template_id, s.status, s.unlock_time, s.time_limit_minutes, s.created_at,
		t.name, (SELECT COUNT(*) FROM responses resp WHERE resp.session_id = s.id)
		FROM sessions s JOIN templates t ON t.id = s.template_id
		ORDER BY s.created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.Code, &s.TemplateID, &s.Status, &s.UnlockTime, &s.TimeLimitMinutes, &s.CreatedAt, &s.TemplateName, &s.ResponseCount); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Update persists session state after a patch has been applied.
func (r *Repository) Update(ctx context.Context, s *models.Session) error {
	const q = `UPDATE sessions SET status = $1, unlock_time = $2, time_limit_minutes = $3 WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, s.Status, s.UnlockTime, s.TimeLimitMinutes, s.ID)
	return err
}

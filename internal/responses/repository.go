package responses

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizdeck/backend/internal/models"
)

// Repository handles response persistence. Responses are insert-only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a responses repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a response with a server-assigned id and timestamp.
func (r *Repository) Create(ctx context.Context, resp *models.Response) error {
	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return err
	}
	const q = `INSERT INTO responses (session_id, participant_name, participant_email, participant_phone, answers, time_spent_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, submitted_at`
	return r.pool.QueryRow(ctx, q, resp.SessionID, resp.ParticipantName, resp.ParticipantEmail, resp.ParticipantPhone, answers, resp.TimeSpentSeconds).
		Scan(&resp.ID, &resp.SubmittedAt)
}

// ListBySession returns all responses for a session, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Response, error) {
	const q = `SELECT id, session_id, participant_name, participant_email, participant_phone, answers, time_spent_seconds, submitted_at
		FROM responses WHERE session_id = $1 ORDER BY submitted_at DESC`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Response
	for rows.Next() {
		var resp models.Response
		var answers []byte
		if err := rows.Scan(&resp.ID, &resp.SessionID, &resp.ParticipantName, &resp.ParticipantEmail, &resp.ParticipantPhone, &answers, &resp.TimeSpentSeconds, &resp.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &resp.Answers); err != nil {
			return nil, err
		}
		list = append(list, resp)
	}
	return list, rows.Err()
}

// CountBySession returns the number of responses for a session.
func (r *Repository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM responses WHERE session_id = $1`
	var count int
	err := r.pool.QueryRow(ctx, q, sessionID).Scan(&count)
	return count, err
}

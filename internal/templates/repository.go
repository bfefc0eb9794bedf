package templates

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizdeck/backend/internal/models"
)

// Repository handles template and question persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a templates repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a template and its questions in one transaction. Question
// positions are assigned from slice order, zero-based.
func (r *Repository) Create(ctx context.Context, t *models.Template) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertTemplate = `INSERT INTO templates (name, description) VALUES ($1, $2)
		RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertTemplate, t.Name, t.Description).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return err
	}

	const insertQuestion = `INSERT INTO questions (template_id, text, type, options, required, position)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	for i := range t.Questions {
		q := &t.Questions[i]
		q.TemplateID = t.ID
		q.Position = i
		opts, err := marshalOptions(q.Options)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, insertQuestion, t.ID, q.Text, q.Type, opts, q.Required, q.Position).
			Scan(&q.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetByID returns a template with its questions in position order.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	const q = `SELECT id, name, description, created_at, updated_at FROM templates WHERE id = $1`
	var t models.Template
	err := r.pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTemplateNotFound
		}
		return nil, err
	}
	t.Questions, err = r.ListQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListQuestions returns a template's questions in position order.
func (r *Repository) ListQuestions(ctx context.Context, templateID uuid.UUID) ([]models.Question, error) {
	const q = `SELECT id, template_id, text, type, options, required, position
		FROM questions WHERE template_id = $1 ORDER BY position`
	rows, err := r.pool.Query(ctx, q, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Question
	for rows.Next() {
		var question models.Question
		var opts []byte
		if err := rows.Scan(&question.ID, &question.TemplateID, &question.Text, &question.Type, &opts, &question.Required, &question.Position); err != nil {
			return nil, err
		}
		if question.Options, err = unmarshalOptions(opts); err != nil {
			return nil, err
		}
		list = append(list, question)
	}
	return list, rows.Err()
}

// List returns all templates with their questions and session counts, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Template, error) {
	const q = `SELECT t.id, t.name, t.description, t.created_at, t.updated_at,
		(SELECT COUNT(*) FROM sessions s WHERE s.template_id = t.id)
		FROM templates t ORDER BY t.created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Template
	for rows.Next() {
		var t models.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt, &t.SessionCount); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Questions, err = r.ListQuestions(ctx, list[i].ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func marshalOptions(options []string) ([]byte, error) {
	if len(options) == 0 {
		return nil, nil
	}
	return json.Marshal(options)
}

func unmarshalOptions(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, err
	}
	return options, nil
}

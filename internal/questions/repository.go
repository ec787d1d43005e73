package questions

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsedeck/backend/internal/models"
)

// Repository handles question persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a questions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new question at the end of the presentation's ordering.
func (r *Repository) Create(ctx context.Context, q *models.Question) error {
	const query = `INSERT INTO questions (id, presentation_id, text, type, configuration, position)
		VALUES (gen_random_uuid(), $1, $2, $3, $4,
			COALESCE((SELECT MAX(position) + 1 FROM questions WHERE presentation_id = $1), 0))
		RETURNING id, position, created_at`
	return r.pool.QueryRow(ctx, query, q.PresentationID, q.Text, q.Type, q.Configuration).
		Scan(&q.ID, &q.Position, &q.CreatedAt)
}

// GetByID returns a question by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	const query = `SELECT id, presentation_id, text, type, configuration, position, created_at
		FROM questions WHERE id = $1`
	var q models.Question
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&q.ID, &q.PresentationID, &q.Text, &q.Type, &q.Configuration, &q.Position, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListByPresentation returns a presentation's questions in position order.
func (r *Repository) ListByPresentation(ctx context.Context, presentationID uuid.UUID) ([]models.Question, error) {
	const query = `SELECT id, presentation_id, text, type, configuration, position, created_at
		FROM questions WHERE presentation_id = $1 ORDER BY position, created_at`
	rows, err := r.pool.Query(ctx, query, presentationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.PresentationID, &q.Text, &q.Type, &q.Configuration, &q.Position, &q.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

// Delete removes a question and, via cascade, its responses.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM questions WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

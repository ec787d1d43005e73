package responses

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsedeck/backend/internal/models"
)

// Repository handles response persistence. The (question_id, session_id)
// unique constraint is the authoritative double-voting guard; the Exists
// check is a fast path in front of it.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a responses repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists a response. A duplicate (question_id, session_id) pair
// surfaces as the constraint violation from the driver.
func (r *Repository) Insert(ctx context.Context, resp *models.Response) error {
	const q = `INSERT INTO responses (id, question_id, session_id, value)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, resp.QuestionID, resp.SessionID, resp.Value).
		Scan(&resp.ID, &resp.CreatedAt)
}

// Exists reports whether a response exists for the (questionID, sessionID) pair.
func (r *Repository) Exists(ctx context.Context, questionID uuid.UUID, sessionID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM responses WHERE question_id = $1 AND session_id = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, questionID, sessionID).Scan(&exists)
	return exists, err
}

// GetByID returns a response by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error) {
	const q = `SELECT id, question_id, session_id, value, sentiment, created_at
		FROM responses WHERE id = $1`
	var resp models.Response
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&resp.ID, &resp.QuestionID, &resp.SessionID, &resp.Value, &resp.Sentiment, &resp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListByQuestion returns all responses for a question, oldest first.
func (r *Repository) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]models.Response, error) {
	const q = `SELECT id, question_id, session_id, value, sentiment, created_at
		FROM responses WHERE question_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Response
	for rows.Next() {
		var resp models.Response
		if err := rows.Scan(&resp.ID, &resp.QuestionID, &resp.SessionID, &resp.Value, &resp.Sentiment, &resp.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, resp)
	}
	return list, rows.Err()
}

// CountDistinctSessions returns how many distinct audience devices responded
// to any question of a presentation.
func (r *Repository) CountDistinctSessions(ctx context.Context, presentationID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(DISTINCT r.session_id) FROM responses r
		JOIN questions qs ON qs.id = r.question_id
		WHERE qs.presentation_id = $1`
	var n int
	err := r.pool.QueryRow(ctx, q, presentationID).Scan(&n)
	return n, err
}

// UpdateSentiment stores the enrichment worker's sentiment label.
func (r *Repository) UpdateSentiment(ctx context.Context, id uuid.UUID, sentiment string) error {
	const q = `UPDATE responses SET sentiment = $1 WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, sentiment, id)
	return err
}

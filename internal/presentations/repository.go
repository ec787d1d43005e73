package presentations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsedeck/backend/internal/models"
)

// Repository handles presentation persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a presentations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new presentation.
func (r *Repository) Create(ctx context.Context, p *models.Presentation) error {
	const q = `INSERT INTO presentations (id, owner_id, title, description)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.OwnerID, p.Title, p.Description).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns a presentation by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Presentation, error) {
	const q = `SELECT id, owner_id, title, description, created_at, updated_at
		FROM presentations WHERE id = $1`
	var p models.Presentation
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns all presentations owned by a user, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Presentation, error) {
	const q = `SELECT id, owner_id, title, description, created_at, updated_at
		FROM presentations WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Presentation
	for rows.Next() {
		var p models.Presentation
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Update updates title and description.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, description string) error {
	const q = `UPDATE presentations SET title = $1, description = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.pool.Exec(ctx, q, title, description, id)
	return err
}

// Delete removes a presentation and, via cascade, its questions and responses.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM presentations WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

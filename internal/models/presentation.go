package models

import (
	"time"

	"github.com/google/uuid"
)

// Presentation is a deck of questions owned by a single presenter.
type Presentation struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

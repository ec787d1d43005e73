package models

import (
	"time"

	"github.com/google/uuid"
)

// Response is a persisted audience answer. SessionID is the client-generated
// device identifier used only for de-duplication, never for identity.
// (question_id, session_id) is unique.
type Response struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	SessionID  string    `json:"session_id"`
	Value      string    `json:"value"`
	Sentiment  *string   `json:"sentiment,omitempty"` // filled in by the enrichment worker
	CreatedAt  time.Time `json:"created_at"`
}

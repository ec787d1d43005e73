package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Question types understood by the frontend renderers.
const (
	QuestionTypeSingleChoice = "single_choice"
	QuestionTypeMultiChoice  = "multi_choice"
	QuestionTypeOpenText     = "open_text"
	QuestionTypeWordCloud    = "word_cloud"
	QuestionTypeRating       = "rating"
)

// Question belongs to a presentation. Configuration is a type-specific JSON
// blob (choice options, rating scale, etc.) the core passes through opaquely.
type Question struct {
	ID             uuid.UUID       `json:"id"`
	PresentationID uuid.UUID       `json:"presentation_id"`
	Text           string          `json:"text"`
	Type           string          `json:"type"`
	Configuration  json.RawMessage `json:"configuration,omitempty"`
	Position       int             `json:"position"`
	CreatedAt      time.Time       `json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// LiveSession is the in-memory live state of one presentation. It exists only
// for the lifetime of the process; stopping a session resets it rather than
// deleting history (liveEndedAt keeps the last end time).
//
// Invariants: at most one ActiveQuestionID per presentation; ActiveQuestionID
// always references a question of PresentationID; IsLive == false implies
// ActiveQuestionID == nil.
type LiveSession struct {
	PresentationID   uuid.UUID  `json:"presentation_id"`
	IsLive           bool       `json:"is_live"`
	LiveStartedAt    *time.Time `json:"live_started_at,omitempty"`
	LiveEndedAt      *time.Time `json:"live_ended_at,omitempty"`
	ActiveQuestionID *uuid.UUID `json:"active_question_id,omitempty"`
}

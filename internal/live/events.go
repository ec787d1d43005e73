package live

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pulsedeck/backend/internal/models"
)

// Server-to-client event names. These are the wire contract; clients switch
// on them verbatim.
const (
	EventJoinedPresentation   = "JoinedPresentation"
	EventLeftPresentation     = "LeftPresentation"
	EventQuestionActivated    = "QuestionActivated"
	EventQuestionDeactivated  = "QuestionDeactivated"
	EventLiveSessionStarted   = "LiveSessionStarted"
	EventLiveSessionEnded     = "LiveSessionEnded"
	EventResponseSubmitted    = "ResponseSubmitted"
	EventResponseReceived     = "ResponseReceived"
	EventAudienceCountUpdated = "AudienceCountUpdated"
	EventError                = "Error"
)

// PresentationGroup names the broadcast group for a presentation's audience.
func PresentationGroup(presentationID uuid.UUID) string {
	return "presentation:" + presentationID.String()
}

// PresenterGroup names the broadcast group for the presentation's owner.
func PresenterGroup(presentationID uuid.UUID) string {
	return "presenter:" + presentationID.String()
}

// QuestionActivatedPayload announces the newly active question with enough
// detail for a client to render it without a follow-up fetch.
type QuestionActivatedPayload struct {
	QuestionID    uuid.UUID       `json:"question_id"`
	Text          string          `json:"text"`
	Type          string          `json:"type"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
}

// QuestionDeactivatedPayload announces that a question stopped accepting
// responses, either explicitly or as a side effect of activating another
// question or ending the session.
type QuestionDeactivatedPayload struct {
	QuestionID uuid.UUID `json:"question_id"`
	EndedAt    time.Time `json:"ended_at"`
}

type LiveSessionStartedPayload struct {
	PresentationID uuid.UUID `json:"presentation_id"`
	StartedAt      time.Time `json:"started_at"`
}

type LiveSessionEndedPayload struct {
	PresentationID uuid.UUID `json:"presentation_id"`
	EndedAt        time.Time `json:"ended_at"`
}

// ResponseReceivedPayload is broadcast to the presenter group only.
type ResponseReceivedPayload struct {
	QuestionID uuid.UUID `json:"question_id"`
	Value      string    `json:"value"`
	SessionID  string    `json:"session_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// ResponseSubmittedPayload acknowledges a submission to the submitter.
type ResponseSubmittedPayload struct {
	ResponseID uuid.UUID `json:"response_id"`
	QuestionID uuid.UUID `json:"question_id"`
	Timestamp  time.Time `json:"timestamp"`
}

type AudienceCountPayload struct {
	Count int `json:"count"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// JoinedPresentationPayload carries the current live snapshot so a
// late-joining client can render an already-active question without waiting
// for the next broadcast.
type JoinedPresentationPayload struct {
	PresentationID uuid.UUID                 `json:"presentation_id"`
	Session        models.LiveSession        `json:"session"`
	ActiveQuestion *QuestionActivatedPayload `json:"active_question,omitempty"`
}

type LeftPresentationPayload struct {
	PresentationID uuid.UUID `json:"presentation_id"`
}

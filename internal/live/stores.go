package live

import (
	"context"

	"github.com/google/uuid"

	"github.com/pulsedeck/backend/internal/models"
)

// Collaborator boundaries. The core consumes storage, broadcast and
// enrichment through these interfaces; concrete implementations live in the
// repository packages, the realtime hub and the job queue.

// PresentationStore looks up presentations for existence and ownership checks.
type PresentationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Presentation, error)
}

// QuestionStore looks up questions for activation and response validation.
type QuestionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error)
}

// ResponseStore persists audience responses. Insert must fail on a duplicate
// (question_id, session_id) pair; the application-level Exists check is only
// a fast path in front of that constraint.
type ResponseStore interface {
	Insert(ctx context.Context, r *models.Response) error
	Exists(ctx context.Context, questionID uuid.UUID, sessionID string) (bool, error)
}

// Broadcaster fans an event out to every current member of a group. It owns
// no state and must not block the caller on slow members.
type Broadcaster interface {
	Broadcast(group, event string, payload interface{})
}

// Enricher accepts fire-and-forget enrichment requests for persisted
// responses. The core never waits for or depends on the result.
type Enricher interface {
	EnqueueEnrichment(ctx context.Context, responseID uuid.UUID, text string) error
}

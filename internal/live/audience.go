package live

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsedeck/backend/internal/models"
)

// Audience handles the unauthenticated entry points: join a presentation's
// group, submit a response, leave. Group membership itself is managed by the
// transport after these checks pass.
type Audience struct {
	registry      *Registry
	presentations PresentationStore
	questions     QuestionStore
	intake        *Intake
	broadcaster   Broadcaster
	enricher      Enricher // optional
	logger        *zap.Logger
}

// NewAudience creates an audience command handler. enricher may be nil.
func NewAudience(registry *Registry, presentations PresentationStore, questions QuestionStore, intake *Intake, broadcaster Broadcaster, enricher Enricher, logger *zap.Logger) *Audience {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Audience{
		registry:      registry,
		presentations: presentations,
		questions:     questions,
		intake:        intake,
		broadcaster:   broadcaster,
		enricher:      enricher,
		logger:        logger,
	}
}

// Join validates that the presentation exists and returns the join payload
// with the current live snapshot, including the already-active question so a
// late joiner can render it without waiting for the next broadcast.
func (a *Audience) Join(ctx context.Context, presentationID uuid.UUID) (JoinedPresentationPayload, error) {
	if _, err := a.presentations.GetByID(ctx, presentationID); err != nil {
		return JoinedPresentationPayload{}, Classify(err)
	}
	payload := JoinedPresentationPayload{
		PresentationID: presentationID,
		Session:        a.registry.Status(presentationID),
	}
	if qid, activatedAt, ok := a.registry.ActiveQuestion(presentationID); ok {
		if q, err := a.questions.GetByID(ctx, qid); err == nil {
			payload.ActiveQuestion = &QuestionActivatedPayload{
				QuestionID:    q.ID,
				Text:          q.Text,
				Type:          q.Type,
				Configuration: q.Configuration,
				StartedAt:     activatedAt,
			}
		}
	}
	return payload, nil
}

// SubmitResponse runs the intake, broadcasts ResponseReceived to the
// presenter group and queues enrichment. The returned response feeds the
// submitter's point-to-point acknowledgment.
func (a *Audience) SubmitResponse(ctx context.Context, questionID uuid.UUID, sessionID, value string) (*models.Response, error) {
	res, err := a.intake.Submit(ctx, questionID, sessionID, value)
	if err != nil {
		return nil, err
	}
	a.broadcaster.Broadcast(PresenterGroup(res.Question.PresentationID), EventResponseReceived, ResponseReceivedPayload{
		QuestionID: res.Response.QuestionID,
		Value:      res.Response.Value,
		SessionID:  res.Response.SessionID,
		Timestamp:  res.Response.CreatedAt,
	})
	if a.enricher != nil {
		if err := a.enricher.EnqueueEnrichment(ctx, res.Response.ID, res.Response.Value); err != nil {
			// Enrichment is fire-and-forget; the response is already durable.
			a.logger.Warn("enqueue enrichment failed", zap.Error(err),
				zap.String("response_id", res.Response.ID.String()))
		}
	}
	return res.Response, nil
}

// Status is the public read-only live snapshot for a presentation. It never
// errors for unknown presentations, so polling cannot leak existence.
func (a *Audience) Status(presentationID uuid.UUID) models.LiveSession {
	return a.registry.Status(presentationID)
}

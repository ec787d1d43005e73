package live

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsedeck/backend/internal/models"
)

// Presenter executes presenter commands: ownership is checked before every
// transition, the registry performs the state change, and exactly the
// broadcasts implied by the registry's side effects are fanned out, in order.
type Presenter struct {
	registry    *Registry
	questions   QuestionStore
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewPresenter creates a presenter command handler.
func NewPresenter(registry *Registry, questions QuestionStore, broadcaster Broadcaster, logger *zap.Logger) *Presenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Presenter{registry: registry, questions: questions, broadcaster: broadcaster, logger: logger}
}

// State-change events go to both the audience and the presenter group so a
// presenter dashboard stays in sync without joining the audience group.
func (p *Presenter) broadcast(presentationID uuid.UUID, event string, payload interface{}) {
	p.broadcaster.Broadcast(PresentationGroup(presentationID), event, payload)
	p.broadcaster.Broadcast(PresenterGroup(presentationID), event, payload)
}

// JoinSession authorizes the presenter for a presentation and returns the
// current live snapshot for the presenter dashboard.
func (p *Presenter) JoinSession(ctx context.Context, presentationID, ownerID uuid.UUID) (models.LiveSession, error) {
	if err := p.registry.authorize(ctx, presentationID, ownerID); err != nil {
		return models.LiveSession{}, err
	}
	return p.registry.Status(presentationID), nil
}

// StartLive starts the live session and broadcasts LiveSessionStarted.
func (p *Presenter) StartLive(ctx context.Context, presentationID, ownerID uuid.UUID) (models.LiveSession, error) {
	session, err := p.registry.StartLive(ctx, presentationID, ownerID)
	if err != nil {
		return models.LiveSession{}, err
	}
	p.broadcast(presentationID, EventLiveSessionStarted, LiveSessionStartedPayload{
		PresentationID: presentationID,
		StartedAt:      *session.LiveStartedAt,
	})
	p.logger.Info("live session started", zap.String("presentation_id", presentationID.String()))
	return session, nil
}

// EndLive stops the live session. If a question was still active its implicit
// QuestionDeactivated is broadcast before LiveSessionEnded.
func (p *Presenter) EndLive(ctx context.Context, presentationID, ownerID uuid.UUID) (models.LiveSession, error) {
	res, err := p.registry.StopLive(ctx, presentationID, ownerID)
	if err != nil {
		return models.LiveSession{}, err
	}
	if res.Deactivated != nil {
		p.broadcast(presentationID, EventQuestionDeactivated, *res.Deactivated)
	}
	p.broadcast(presentationID, EventLiveSessionEnded, LiveSessionEndedPayload{
		PresentationID: presentationID,
		EndedAt:        *res.Session.LiveEndedAt,
	})
	p.logger.Info("live session ended", zap.String("presentation_id", presentationID.String()))
	return res.Session, nil
}

// ActivateQuestion makes questionID the active question of its presentation.
// When it replaces another question the deactivation broadcast precedes the
// activation, never the other way around.
func (p *Presenter) ActivateQuestion(ctx context.Context, questionID, ownerID uuid.UUID) (models.LiveSession, error) {
	q, err := p.questions.GetByID(ctx, questionID)
	if err != nil {
		return models.LiveSession{}, Classify(err)
	}
	res, err := p.registry.ActivateQuestion(ctx, q.PresentationID, questionID, ownerID)
	if err != nil {
		return models.LiveSession{}, err
	}
	if res.Deactivated != nil {
		p.broadcast(q.PresentationID, EventQuestionDeactivated, *res.Deactivated)
	}
	p.broadcast(q.PresentationID, EventQuestionActivated, res.Activated)
	p.logger.Info("question activated",
		zap.String("presentation_id", q.PresentationID.String()),
		zap.String("question_id", questionID.String()))
	return res.Session, nil
}

// DeactivateQuestion closes the active question explicitly.
func (p *Presenter) DeactivateQuestion(ctx context.Context, questionID, ownerID uuid.UUID) (models.LiveSession, error) {
	q, err := p.questions.GetByID(ctx, questionID)
	if err != nil {
		return models.LiveSession{}, Classify(err)
	}
	res, err := p.registry.DeactivateQuestion(ctx, q.PresentationID, questionID, ownerID)
	if err != nil {
		return models.LiveSession{}, err
	}
	p.broadcast(q.PresentationID, EventQuestionDeactivated, res.Deactivated)
	p.logger.Info("question deactivated",
		zap.String("presentation_id", q.PresentationID.String()),
		zap.String("question_id", questionID.String()))
	return res.Session, nil
}

package live

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsedeck/backend/internal/models"
)

// Registry is the in-memory source of truth for which presentations are live
// and which question is active within each. Every mutation of one
// presentation's state runs under that presentation's own lock; request
// handlers never touch the state directly.
type Registry struct {
	presentations PresentationStore
	questions     QuestionStore
	now           func() time.Time

	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

type entry struct {
	mu          sync.Mutex
	session     models.LiveSession
	activatedAt time.Time // when the current active question was activated
}

// NewRegistry creates an empty registry backed by the given lookups.
func NewRegistry(presentations PresentationStore, questions QuestionStore) *Registry {
	return &Registry{
		presentations: presentations,
		questions:     questions,
		now:           time.Now,
		entries:       make(map[uuid.UUID]*entry),
	}
}

func (r *Registry) entryFor(presentationID uuid.UUID) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[presentationID]
	if !ok {
		e = &entry{session: models.LiveSession{PresentationID: presentationID}}
		r.entries[presentationID] = e
	}
	return e
}

// authorize resolves the presentation and verifies ownership. Ownership
// failures report as ErrNotFound so callers cannot probe for presentations
// they do not own.
func (r *Registry) authorize(ctx context.Context, presentationID, ownerID uuid.UUID) error {
	p, err := r.presentations.GetByID(ctx, presentationID)
	if err != nil {
		return Classify(err)
	}
	if p.OwnerID != ownerID {
		return ErrNotFound
	}
	return nil
}

func snapshot(s models.LiveSession) models.LiveSession {
	out := s
	if s.LiveStartedAt != nil {
		t := *s.LiveStartedAt
		out.LiveStartedAt = &t
	}
	if s.LiveEndedAt != nil {
		t := *s.LiveEndedAt
		out.LiveEndedAt = &t
	}
	if s.ActiveQuestionID != nil {
		id := *s.ActiveQuestionID
		out.ActiveQuestionID = &id
	}
	return out
}

// StartLive transitions a presentation to live. Fails with ErrNotFound if the
// presentation is unknown or not owned by ownerID, ErrAlreadyLive if a
// session is already running.
func (r *Registry) StartLive(ctx context.Context, presentationID, ownerID uuid.UUID) (models.LiveSession, error) {
	if err := r.authorize(ctx, presentationID, ownerID); err != nil {
		return models.LiveSession{}, err
	}
	e := r.entryFor(presentationID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.IsLive {
		return models.LiveSession{}, ErrAlreadyLive
	}
	now := r.now()
	e.session = models.LiveSession{
		PresentationID: presentationID,
		IsLive:         true,
		LiveStartedAt:  &now,
	}
	return snapshot(e.session), nil
}

// StopResult carries the implicit deactivation (if a question was active) so
// the caller broadcasts it before LiveSessionEnded.
type StopResult struct {
	Session     models.LiveSession
	Deactivated *QuestionDeactivatedPayload
}

// StopLive ends a presentation's live session, clearing any active question
// first. Fails with ErrNotFound or ErrNotLive.
func (r *Registry) StopLive(ctx context.Context, presentationID, ownerID uuid.UUID) (StopResult, error) {
	if err := r.authorize(ctx, presentationID, ownerID); err != nil {
		return StopResult{}, err
	}
	e := r.entryFor(presentationID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.IsLive {
		return StopResult{}, ErrNotLive
	}
	now := r.now()
	var res StopResult
	if e.session.ActiveQuestionID != nil {
		res.Deactivated = &QuestionDeactivatedPayload{QuestionID: *e.session.ActiveQuestionID, EndedAt: now}
	}
	e.session.IsLive = false
	e.session.LiveEndedAt = &now
	e.session.ActiveQuestionID = nil
	res.Session = snapshot(e.session)
	return res, nil
}

// ActivationResult carries the new activation and, when another question was
// active, its implicit deactivation. Callers broadcast Deactivated first so
// the event stream mirrors the accepted transition exactly.
type ActivationResult struct {
	Session     models.LiveSession
	Deactivated *QuestionDeactivatedPayload
	Activated   QuestionActivatedPayload
}

// ActivateQuestion makes questionID the single active question of a live
// presentation. Fails with ErrNotLive, ErrNotFound (question unknown or
// belonging to another presentation) or ErrAlreadyActive.
func (r *Registry) ActivateQuestion(ctx context.Context, presentationID, questionID, ownerID uuid.UUID) (ActivationResult, error) {
	if err := r.authorize(ctx, presentationID, ownerID); err != nil {
		return ActivationResult{}, err
	}
	q, err := r.questions.GetByID(ctx, questionID)
	if err != nil {
		return ActivationResult{}, Classify(err)
	}
	if q.PresentationID != presentationID {
		return ActivationResult{}, ErrNotFound
	}

	e := r.entryFor(presentationID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.IsLive {
		return ActivationResult{}, ErrNotLive
	}
	if e.session.ActiveQuestionID != nil && *e.session.ActiveQuestionID == questionID {
		return ActivationResult{}, ErrAlreadyActive
	}
	now := r.now()
	var res ActivationResult
	if e.session.ActiveQuestionID != nil {
		res.Deactivated = &QuestionDeactivatedPayload{QuestionID: *e.session.ActiveQuestionID, EndedAt: now}
	}
	id := questionID
	e.session.ActiveQuestionID = &id
	e.activatedAt = now
	res.Activated = QuestionActivatedPayload{
		QuestionID:    q.ID,
		Text:          q.Text,
		Type:          q.Type,
		Configuration: q.Configuration,
		StartedAt:     now,
	}
	res.Session = snapshot(e.session)
	return res, nil
}

// DeactivationResult is the outcome of an explicit deactivation.
type DeactivationResult struct {
	Session     models.LiveSession
	Deactivated QuestionDeactivatedPayload
}

// DeactivateQuestion closes the currently active question. Fails with
// ErrNotFound, ErrNotLive or ErrNotActive (questionID is not the active one).
func (r *Registry) DeactivateQuestion(ctx context.Context, presentationID, questionID, ownerID uuid.UUID) (DeactivationResult, error) {
	if err := r.authorize(ctx, presentationID, ownerID); err != nil {
		return DeactivationResult{}, err
	}
	e := r.entryFor(presentationID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.IsLive {
		return DeactivationResult{}, ErrNotLive
	}
	if e.session.ActiveQuestionID == nil || *e.session.ActiveQuestionID != questionID {
		return DeactivationResult{}, ErrNotActive
	}
	now := r.now()
	e.session.ActiveQuestionID = nil
	res := DeactivationResult{
		Session:     snapshot(e.session),
		Deactivated: QuestionDeactivatedPayload{QuestionID: questionID, EndedAt: now},
	}
	return res, nil
}

// Status returns a consistent read-only snapshot. Unknown presentations get a
// default not-live snapshot rather than an error, so audience polling cannot
// distinguish absent from never-live.
func (r *Registry) Status(presentationID uuid.UUID) models.LiveSession {
	r.mu.Lock()
	e, ok := r.entries[presentationID]
	r.mu.Unlock()
	if !ok {
		return models.LiveSession{PresentationID: presentationID}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.session)
}

// ActiveQuestion reports the active question of a live presentation and when
// it was activated.
func (r *Registry) ActiveQuestion(presentationID uuid.UUID) (questionID uuid.UUID, activatedAt time.Time, ok bool) {
	r.mu.Lock()
	e, found := r.entries[presentationID]
	r.mu.Unlock()
	if !found {
		return uuid.Nil, time.Time{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.session.IsLive || e.session.ActiveQuestionID == nil {
		return uuid.Nil, time.Time{}, false
	}
	return *e.session.ActiveQuestionID, e.activatedAt, true
}

// RunIfActive executes fn while the presentation's lock is held, provided
// questionID is the active question of a live presentation. A response insert
// run through here can never land after the question's deactivation: the
// deactivating command waits for the same lock.
func (r *Registry) RunIfActive(ctx context.Context, presentationID, questionID uuid.UUID, fn func(context.Context) error) error {
	e := r.entryFor(presentationID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.IsLive || e.session.ActiveQuestionID == nil || *e.session.ActiveQuestionID != questionID {
		return ErrQuestionNotActive
	}
	return fn(ctx)
}

package live

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsedeck/backend/internal/models"
)

type fakePresentations struct {
	m map[uuid.UUID]*models.Presentation
}

func (f *fakePresentations) GetByID(_ context.Context, id uuid.UUID) (*models.Presentation, error) {
	if p, ok := f.m[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

type fakeQuestions struct {
	m map[uuid.UUID]*models.Question
}

func (f *fakeQuestions) GetByID(_ context.Context, id uuid.UUID) (*models.Question, error) {
	if q, ok := f.m[id]; ok {
		return q, nil
	}
	return nil, ErrNotFound
}

type fakeResponses struct {
	mu        sync.Mutex
	byKey     map[string]*models.Response
	insertErr error
}

func newFakeResponses() *fakeResponses {
	return &fakeResponses{byKey: make(map[string]*models.Response)}
}

func respKey(questionID uuid.UUID, sessionID string) string {
	return questionID.String() + "|" + sessionID
}

func (f *fakeResponses) Insert(_ context.Context, r *models.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	key := respKey(r.QuestionID, r.SessionID)
	if _, ok := f.byKey[key]; ok {
		return ErrDuplicateResponse
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	stored := *r
	f.byKey[key] = &stored
	return nil
}

func (f *fakeResponses) Exists(_ context.Context, questionID uuid.UUID, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byKey[respKey(questionID, sessionID)]
	return ok, nil
}

func (f *fakeResponses) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byKey)
}

type broadcastCall struct {
	Group   string
	Event   string
	Payload interface{}
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (f *fakeBroadcaster) Broadcast(group, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, broadcastCall{Group: group, Event: event, Payload: payload})
}

// eventsFor returns the event names broadcast to one group, in order.
func (f *fakeBroadcaster) eventsFor(group string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.Group == group {
			out = append(out, c.Event)
		}
	}
	return out
}

// callsFor returns the full broadcast calls for one group, in order.
func (f *fakeBroadcaster) callsFor(group string) []broadcastCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []broadcastCall
	for _, c := range f.calls {
		if c.Group == group {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBroadcaster) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type enrichCall struct {
	ResponseID uuid.UUID
	Text       string
}

type fakeEnricher struct {
	mu    sync.Mutex
	calls []enrichCall
}

func (f *fakeEnricher) EnqueueEnrichment(_ context.Context, responseID uuid.UUID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, enrichCall{ResponseID: responseID, Text: text})
	return nil
}

func (f *fakeEnricher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// testEnv wires a registry with one presentation (two questions) owned by
// ownerID, and a second presentation owned by someone else.
type testEnv struct {
	ownerID        uuid.UUID
	otherOwnerID   uuid.UUID
	presentationID uuid.UUID
	otherPresID    uuid.UUID
	q1, q2, q3     uuid.UUID

	presentations *fakePresentations
	questions     *fakeQuestions
	registry      *Registry
}

func newTestEnv() *testEnv {
	env := &testEnv{
		ownerID:        uuid.New(),
		otherOwnerID:   uuid.New(),
		presentationID: uuid.New(),
		otherPresID:    uuid.New(),
		q1:             uuid.New(),
		q2:             uuid.New(),
		q3:             uuid.New(),
	}
	env.presentations = &fakePresentations{m: map[uuid.UUID]*models.Presentation{
		env.presentationID: {ID: env.presentationID, OwnerID: env.ownerID, Title: "All hands"},
		env.otherPresID:    {ID: env.otherPresID, OwnerID: env.otherOwnerID, Title: "Someone else's"},
	}}
	env.questions = &fakeQuestions{m: map[uuid.UUID]*models.Question{
		env.q1: {ID: env.q1, PresentationID: env.presentationID, Text: "How was it?", Type: models.QuestionTypeOpenText},
		env.q2: {ID: env.q2, PresentationID: env.presentationID, Text: "Rate the talk", Type: models.QuestionTypeRating},
		env.q3: {ID: env.q3, PresentationID: env.otherPresID, Text: "Not yours", Type: models.QuestionTypeOpenText},
	}}
	env.registry = NewRegistry(env.presentations, env.questions)
	return env
}

package live

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/pulsedeck/backend/internal/models"
)

// Intake validates and de-duplicates incoming audience responses before
// handing them to the response store.
type Intake struct {
	registry  *Registry
	questions QuestionStore
	responses ResponseStore
}

// NewIntake creates a response intake in front of the given store.
func NewIntake(registry *Registry, questions QuestionStore, responses ResponseStore) *Intake {
	return &Intake{registry: registry, questions: questions, responses: responses}
}

// SubmissionResult is a successfully persisted response together with its
// question, so callers can target the presenter group without re-fetching.
type SubmissionResult struct {
	Response *models.Response
	Question *models.Question
}

// Submit persists one audience response. The insert runs under the
// presentation's lock so it is atomic with respect to a concurrent
// deactivation; the (question_id, session_id) unique constraint backs the
// Exists fast path.
func (i *Intake) Submit(ctx context.Context, questionID uuid.UUID, sessionID, value string) (*SubmissionResult, error) {
	if strings.TrimSpace(value) == "" {
		return nil, ErrEmptyValue
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrEmptySessionID
	}

	q, err := i.questions.GetByID(ctx, questionID)
	if err != nil {
		err = Classify(err)
		if errors.Is(err, ErrNotFound) {
			// An unknown question is indistinguishable from a closed one.
			return nil, ErrQuestionNotActive
		}
		return nil, err
	}

	exists, err := i.responses.Exists(ctx, questionID, sessionID)
	if err != nil {
		return nil, Classify(err)
	}
	if exists {
		return nil, ErrDuplicateResponse
	}

	resp := &models.Response{QuestionID: questionID, SessionID: sessionID, Value: value}
	err = i.registry.RunIfActive(ctx, q.PresentationID, questionID, func(ctx context.Context) error {
		return i.responses.Insert(ctx, resp)
	})
	if err != nil {
		return nil, Classify(err)
	}
	return &SubmissionResult{Response: resp, Question: q}, nil
}

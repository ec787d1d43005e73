package live

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestStartLive(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	session, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID)
	if err != nil {
		t.Fatalf("StartLive: %v", err)
	}
	if !session.IsLive {
		t.Error("session should be live")
	}
	if session.LiveStartedAt == nil {
		t.Error("LiveStartedAt should be set")
	}
	if session.ActiveQuestionID != nil {
		t.Error("a fresh session should have no active question")
	}

	if _, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID); !errors.Is(err, ErrAlreadyLive) {
		t.Errorf("second StartLive: got %v, want ErrAlreadyLive", err)
	}
}

func TestStartLiveNotOwner(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.registry.StartLive(ctx, env.presentationID, env.otherOwnerID); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong owner: got %v, want ErrNotFound", err)
	}
	if _, err := env.registry.StartLive(ctx, uuid.New(), env.ownerID); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown presentation: got %v, want ErrNotFound", err)
	}
	if env.registry.Status(env.presentationID).IsLive {
		t.Error("failed commands must not mutate state")
	}
}

func TestStopLive(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.registry.StopLive(ctx, env.presentationID, env.ownerID); !errors.Is(err, ErrNotLive) {
		t.Fatalf("stop before start: got %v, want ErrNotLive", err)
	}

	if _, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID); err != nil {
		t.Fatalf("StartLive: %v", err)
	}
	res, err := env.registry.StopLive(ctx, env.presentationID, env.ownerID)
	if err != nil {
		t.Fatalf("StopLive: %v", err)
	}
	if res.Session.IsLive {
		t.Error("session should no longer be live")
	}
	if res.Session.LiveEndedAt == nil {
		t.Error("LiveEndedAt should be set")
	}
	if res.Deactivated != nil {
		t.Error("no active question, so no implicit deactivation")
	}
}

func TestStopLiveDeactivatesActiveQuestion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID); err != nil {
		t.Fatalf("StartLive: %v", err)
	}
	if _, err := env.registry.ActivateQuestion(ctx, env.presentationID, env.q1, env.ownerID); err != nil {
		t.Fatalf("ActivateQuestion: %v", err)
	}

	res, err := env.registry.StopLive(ctx, env.presentationID, env.ownerID)
	if err != nil {
		t.Fatalf("StopLive: %v", err)
	}
	if res.Deactivated == nil {
		t.Fatal("expected the implicit deactivation of the active question")
	}
	if res.Deactivated.QuestionID != env.q1 {
		t.Errorf("deactivated %s, want %s", res.Deactivated.QuestionID, env.q1)
	}
	if res.Session.ActiveQuestionID != nil {
		t.Error("active question must be cleared when the session ends")
	}
}

func TestActivateQuestion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.registry.ActivateQuestion(ctx, env.presentationID, env.q1, env.ownerID); !errors.Is(err, ErrNotLive) {
		t.Fatalf("activate before live: got %v, want ErrNotLive", err)
	}

	if _, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID); err != nil {
		t.Fatalf("StartLive: %v", err)
	}

	res, err := env.registry.ActivateQuestion(ctx, env.presentationID, env.q1, env.ownerID)
	if err != nil {
		t.Fatalf("ActivateQuestion: %v", err)
	}
	if res.Deactivated != nil {
		t.Error("first activation has nothing to deactivate")
	}
	if res.Activated.QuestionID != env.q1 {
		t.Errorf("activated %s, want %s", res.Activated.QuestionID, env.q1)
	}
	if res.Activated.Text == "" || res.Activated.Type == "" {
		t.Error("activation payload should carry the question text and type")
	}
	if res.Session.ActiveQuestionID == nil || *res.Session.ActiveQuestionID != env.q1 {
		t.Error("session snapshot should carry the active question")
	}

	if _, err := env.registry.ActivateQuestion(ctx, env.presentationID, env.q1, env.ownerID); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("re-activation: got %v, want ErrAlreadyActive", err)
	}
}

func TestActivateQuestionSwitch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID); err != nil {
		t.Fatalf("StartLive: %v", err)
	}
	if _, err := env.registry.ActivateQuestion(ctx, env.presentationID, env.q1, env.ownerID); err != nil {
		t.Fatalf("activate q1: %v", err)
	}

	res, err := env.registry.ActivateQuestion(ctx, env.presentationID, env.q2, env.ownerID)
	if err != nil {
		t.Fatalf("activate q2: %v", err)
	}
	if res.Deactivated == nil || res.Deactivated.QuestionID != env.q1 {
		t.Fatalf("switching must deactivate q1, got %+v", res.Deactivated)
	}
	if res.Activated.QuestionID != env.q2 {
		t.Errorf("activated %s, want %s", res.Activated.QuestionID, env.q2)
	}
	if res.Session.ActiveQuestionID == nil || *res.Session.ActiveQuestionID != env.q2 {
		t.Error("q2 should be the single active question")
	}
}

func TestActivateForeignQuestion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID); err != nil {
		t.Fatalf("StartLive: %v", err)
	}
	// q3 belongs to another presentation.
	if _, err := env.registry.ActivateQuestion(ctx, env.presentationID, env.q3, env.ownerID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign question: got %v, want ErrNotFound", err)
	}
	if _, err := env.registry.ActivateQuestion(ctx, env.presentationID, uuid.New(), env.ownerID); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown question: got %v, want ErrNotFound", err)
	}
}

func TestDeactivateQuestion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID); err != nil {
		t.Fatalf("StartLive: %v", err)
	}
	if _, err := env.registry.DeactivateQuestion(ctx, env.presentationID, env.q1, env.ownerID); !errors.Is(err, ErrNotActive) {
		t.Fatalf("deactivate with nothing active: got %v, want ErrNotActive", err)
	}

	if _, err := env.registry.ActivateQuestion(ctx, env.presentationID, env.q1, env.ownerID); err != nil {
		t.Fatalf("ActivateQuestion: %v", err)
	}
	if _, err := env.registry.DeactivateQuestion(ctx, env.presentationID, env.q2, env.ownerID); !errors.Is(err, ErrNotActive) {
		t.Fatalf("deactivate the wrong question: got %v, want ErrNotActive", err)
	}

	res, err := env.registry.DeactivateQuestion(ctx, env.presentationID, env.q1, env.ownerID)
	if err != nil {
		t.Fatalf("DeactivateQuestion: %v", err)
	}
	if res.Deactivated.QuestionID != env.q1 {
		t.Errorf("deactivated %s, want %s", res.Deactivated.QuestionID, env.q1)
	}
	if res.Session.ActiveQuestionID != nil {
		t.Error("no question should remain active")
	}
	if !res.Session.IsLive {
		t.Error("deactivating a question must not end the session")
	}
}

func TestStatusUnknownPresentation(t *testing.T) {
	env := newTestEnv()
	id := uuid.New()

	s := env.registry.Status(id)
	if s.PresentationID != id {
		t.Errorf("PresentationID = %s, want %s", s.PresentationID, id)
	}
	if s.IsLive || s.ActiveQuestionID != nil || s.LiveStartedAt != nil {
		t.Error("unknown presentation should report a default not-live snapshot")
	}
}

func TestActiveQuestion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, _, ok := env.registry.ActiveQuestion(env.presentationID); ok {
		t.Fatal("no question should be active before the session starts")
	}

	if _, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID); err != nil {
		t.Fatalf("StartLive: %v", err)
	}
	if _, err := env.registry.ActivateQuestion(ctx, env.presentationID, env.q1, env.ownerID); err != nil {
		t.Fatalf("ActivateQuestion: %v", err)
	}

	qid, activatedAt, ok := env.registry.ActiveQuestion(env.presentationID)
	if !ok {
		t.Fatal("q1 should be reported active")
	}
	if qid != env.q1 {
		t.Errorf("active question = %s, want %s", qid, env.q1)
	}
	if activatedAt.IsZero() {
		t.Error("activatedAt should be set")
	}
}

func TestRunIfActive(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	err := env.registry.RunIfActive(ctx, env.presentationID, env.q1, func(context.Context) error {
		t.Fatal("fn must not run while the question is inactive")
		return nil
	})
	if !errors.Is(err, ErrQuestionNotActive) {
		t.Fatalf("got %v, want ErrQuestionNotActive", err)
	}

	if _, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID); err != nil {
		t.Fatalf("StartLive: %v", err)
	}
	if _, err := env.registry.ActivateQuestion(ctx, env.presentationID, env.q1, env.ownerID); err != nil {
		t.Fatalf("ActivateQuestion: %v", err)
	}

	ran := false
	if err := env.registry.RunIfActive(ctx, env.presentationID, env.q1, func(context.Context) error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("RunIfActive: %v", err)
	}
	if !ran {
		t.Error("fn should have run")
	}

	if _, err := env.registry.DeactivateQuestion(ctx, env.presentationID, env.q1, env.ownerID); err != nil {
		t.Fatalf("DeactivateQuestion: %v", err)
	}
	err = env.registry.RunIfActive(ctx, env.presentationID, env.q1, func(context.Context) error { return nil })
	if !errors.Is(err, ErrQuestionNotActive) {
		t.Fatalf("after deactivation: got %v, want ErrQuestionNotActive", err)
	}
}

// Concurrent activations of two questions must converge on exactly one active
// question, with every command either succeeding or failing cleanly.
func TestActivateQuestionConcurrent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID); err != nil {
		t.Fatalf("StartLive: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		qid := env.q1
		if i%2 == 1 {
			qid = env.q2
		}
		wg.Add(1)
		go func(qid uuid.UUID) {
			defer wg.Done()
			_, err := env.registry.ActivateQuestion(ctx, env.presentationID, qid, env.ownerID)
			if err != nil && !errors.Is(err, ErrAlreadyActive) {
				t.Errorf("unexpected error: %v", err)
			}
		}(qid)
	}
	wg.Wait()

	s := env.registry.Status(env.presentationID)
	if s.ActiveQuestionID == nil {
		t.Fatal("one question should be active")
	}
	if *s.ActiveQuestionID != env.q1 && *s.ActiveQuestionID != env.q2 {
		t.Errorf("active question is %s, want q1 or q2", *s.ActiveQuestionID)
	}
}

package live

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func startWithActiveQuestion(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	if _, err := env.registry.StartLive(ctx, env.presentationID, env.ownerID); err != nil {
		t.Fatalf("StartLive: %v", err)
	}
	if _, err := env.registry.ActivateQuestion(ctx, env.presentationID, env.q1, env.ownerID); err != nil {
		t.Fatalf("ActivateQuestion: %v", err)
	}
}

func TestSubmit(t *testing.T) {
	env := newTestEnv()
	startWithActiveQuestion(t, env)
	store := newFakeResponses()
	intake := NewIntake(env.registry, env.questions, store)

	res, err := intake.Submit(context.Background(), env.q1, "device-1", "great talk")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Response.ID == uuid.Nil {
		t.Error("response should have an id after insert")
	}
	if res.Response.Value != "great talk" {
		t.Errorf("value = %q", res.Response.Value)
	}
	if res.Question == nil || res.Question.ID != env.q1 {
		t.Error("result should carry the question")
	}
	if store.count() != 1 {
		t.Errorf("store has %d responses, want 1", store.count())
	}
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv()
	startWithActiveQuestion(t, env)
	intake := NewIntake(env.registry, env.questions, newFakeResponses())
	ctx := context.Background()

	if _, err := intake.Submit(ctx, env.q1, "device-1", "   "); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("blank value: got %v, want ErrEmptyValue", err)
	}
	if _, err := intake.Submit(ctx, env.q1, "", "fine"); !errors.Is(err, ErrEmptySessionID) {
		t.Errorf("blank session: got %v, want ErrEmptySessionID", err)
	}
}

func TestSubmitQuestionNotActive(t *testing.T) {
	env := newTestEnv()
	startWithActiveQuestion(t, env)
	store := newFakeResponses()
	intake := NewIntake(env.registry, env.questions, store)
	ctx := context.Background()

	// q2 exists but is not the active question.
	if _, err := intake.Submit(ctx, env.q2, "device-1", "fine"); !errors.Is(err, ErrQuestionNotActive) {
		t.Errorf("inactive question: got %v, want ErrQuestionNotActive", err)
	}
	// An unknown question reads the same as a closed one.
	if _, err := intake.Submit(ctx, uuid.New(), "device-1", "fine"); !errors.Is(err, ErrQuestionNotActive) {
		t.Errorf("unknown question: got %v, want ErrQuestionNotActive", err)
	}
	if store.count() != 0 {
		t.Errorf("store has %d responses, want 0", store.count())
	}
}

func TestSubmitAfterDeactivation(t *testing.T) {
	env := newTestEnv()
	startWithActiveQuestion(t, env)
	store := newFakeResponses()
	intake := NewIntake(env.registry, env.questions, store)
	ctx := context.Background()

	if _, err := env.registry.DeactivateQuestion(ctx, env.presentationID, env.q1, env.ownerID); err != nil {
		t.Fatalf("DeactivateQuestion: %v", err)
	}
	if _, err := intake.Submit(ctx, env.q1, "device-1", "too late"); !errors.Is(err, ErrQuestionNotActive) {
		t.Errorf("got %v, want ErrQuestionNotActive", err)
	}
	if store.count() != 0 {
		t.Error("nothing should be stored after deactivation")
	}
}

func TestSubmitDuplicate(t *testing.T) {
	env := newTestEnv()
	startWithActiveQuestion(t, env)
	store := newFakeResponses()
	intake := NewIntake(env.registry, env.questions, store)
	ctx := context.Background()

	if _, err := intake.Submit(ctx, env.q1, "device-1", "first"); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := intake.Submit(ctx, env.q1, "device-1", "second"); !errors.Is(err, ErrDuplicateResponse) {
		t.Errorf("duplicate: got %v, want ErrDuplicateResponse", err)
	}
	if store.count() != 1 {
		t.Errorf("store has %d responses, want 1", store.count())
	}

	// A different device still gets through.
	if _, err := intake.Submit(ctx, env.q1, "device-2", "also first"); err != nil {
		t.Fatalf("second device: %v", err)
	}
	if store.count() != 2 {
		t.Errorf("store has %d responses, want 2", store.count())
	}
}

func TestSubmitStoreFailure(t *testing.T) {
	env := newTestEnv()
	startWithActiveQuestion(t, env)
	store := newFakeResponses()
	store.insertErr = errors.New("connection reset")
	intake := NewIntake(env.registry, env.questions, store)

	_, err := intake.Submit(context.Background(), env.q1, "device-1", "fine")
	if !errors.Is(err, ErrTransient) {
		t.Errorf("got %v, want ErrTransient", err)
	}
	if IsExpected(err) {
		t.Error("a storage failure is not an expected rejection")
	}
}

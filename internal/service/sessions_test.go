package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/certready/backend/internal/domain/session"
	"github.com/certready/backend/internal/service"
	"github.com/certready/backend/internal/store"
)

func TestOpen_FreshSessionIsNotStarted(t *testing.T) {
	memory := store.NewMemory()
	def := seedAssessment(t, memory, 70, 600)
	sessions, _ := newServices(memory, newRecordingReporter(nil))

	state, err := sessions.Open(context.Background(), def.ID, "user-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if state.Phase != session.PhaseNotStarted {
		t.Errorf("expected NotStarted, got %s", state.Phase)
	}
	if state.TotalQuestions != 2 || state.AnsweredCount != 0 {
		t.Errorf("unexpected state: %+v", state)
	}
	if state.RemainingSeconds != nil {
		t.Error("expected no remaining time before start")
	}
}

func TestOpen_ResumesPersistedSnapshot(t *testing.T) {
	memory := store.NewMemory()
	def := seedAssessment(t, memory, 70, 600)
	sessions, _ := newServices(memory, newRecordingReporter(nil))
	ctx := context.Background()

	startedAt := time.Now().Add(-2 * time.Minute)
	snap := session.Snapshot{
		Answers:      map[string]string{def.Questions[0].ID: "b"},
		CurrentIndex: 1,
		Timing:       &session.Timing{StartedAt: startedAt},
	}
	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}
	key := session.Key(def.ID, "user-1")
	if err := memory.SetSnapshot(ctx, key, data); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	state, err := sessions.Open(ctx, def.ID, "user-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if state.Phase != session.PhaseInProgress {
		t.Errorf("expected resumed session InProgress, got %s", state.Phase)
	}
	if state.Answers[def.Questions[0].ID] != "b" {
		t.Errorf("expected restored answer, got %v", state.Answers)
	}
	if state.CurrentIndex != 1 {
		t.Errorf("expected restored index 1, got %d", state.CurrentIndex)
	}
	if state.RemainingSeconds == nil {
		t.Fatal("expected remaining time for a resumed timed session")
	}
	// 600s budget, ~120s elapsed: remaining in (470, 480].
	if *state.RemainingSeconds > 480 || *state.RemainingSeconds <= 470 {
		t.Errorf("unexpected remaining time %d", *state.RemainingSeconds)
	}

	sessions.Teardown(def.ID, "user-1")
}

func TestOpen_DiscardsCorruptSnapshot(t *testing.T) {
	memory := store.NewMemory()
	def := seedAssessment(t, memory, 70, 0)
	sessions, _ := newServices(memory, newRecordingReporter(nil))
	ctx := context.Background()

	key := session.Key(def.ID, "user-1")
	memory.SetSnapshot(ctx, key, "{not json")

	state, err := sessions.Open(ctx, def.ID, "user-1")
	if err != nil {
		t.Fatalf("open with corrupt snapshot: %v", err)
	}
	if state.Phase != session.PhaseNotStarted {
		t.Errorf("expected fresh session after corrupt snapshot, got %s", state.Phase)
	}
	if _, err := memory.GetSnapshot(ctx, key); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected corrupt snapshot to be deleted, got %v", err)
	}
}

func TestOpen_UnknownAssessment(t *testing.T) {
	sessions, _ := newServices(store.NewMemory(), newRecordingReporter(nil))

	_, err := sessions.Open(context.Background(), "missing", "user-1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActions_RequireIdentity(t *testing.T) {
	memory := store.NewMemory()
	def := seedAssessment(t, memory, 70, 0)
	sessions, _ := newServices(memory, newRecordingReporter(nil))
	ctx := context.Background()

	if _, err := sessions.Open(ctx, def.ID, ""); !errors.Is(err, session.ErrIdentityUnavailable) {
		t.Errorf("open without identity: expected ErrIdentityUnavailable, got %v", err)
	}
	if _, err := sessions.SelectAnswer(ctx, def.ID, "", def.Questions[0].ID, "a"); !errors.Is(err, session.ErrIdentityUnavailable) {
		t.Errorf("select without identity: expected ErrIdentityUnavailable, got %v", err)
	}
	if _, err := sessions.Submit(ctx, def.ID, "", false); !errors.Is(err, session.ErrIdentityUnavailable) {
		t.Errorf("submit without identity: expected ErrIdentityUnavailable, got %v", err)
	}
}

func TestActions_RequireOpenSession(t *testing.T) {
	memory := store.NewMemory()
	def := seedAssessment(t, memory, 70, 0)
	sessions, _ := newServices(memory, newRecordingReporter(nil))

	_, err := sessions.Start(context.Background(), def.ID, "user-1")
	if !errors.Is(err, service.ErrSessionNotOpen) {
		t.Fatalf("expected ErrSessionNotOpen, got %v", err)
	}
}

func TestSelectAnswer_PersistsSnapshot(t *testing.T) {
	memory := store.NewMemory()
	def := seedAssessment(t, memory, 70, 0)
	sessions, _ := newServices(memory, newRecordingReporter(nil))
	ctx := context.Background()

	sessions.Open(ctx, def.ID, "user-1")
	sessions.Start(ctx, def.ID, "user-1")
	sessions.SelectAnswer(ctx, def.ID, "user-1", def.Questions[0].ID, "b")

	data, err := memory.GetSnapshot(ctx, session.Key(def.ID, "user-1"))
	if err != nil {
		t.Fatalf("expected snapshot after answer selection: %v", err)
	}
	snap, err := session.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode persisted snapshot: %v", err)
	}
	if snap.Answers[def.Questions[0].ID] != "b" {
		t.Errorf("expected persisted answer, got %v", snap.Answers)
	}
	if snap.Timing == nil {
		t.Error("expected persisted timing")
	}
}

func TestSubmit_UnansweredNeedsConfirmation(t *testing.T) {
	memory := store.NewMemory()
	def := seedAssessment(t, memory, 70, 0)
	sessions, _ := newServices(memory, newRecordingReporter(nil))
	ctx := context.Background()

	sessions.Open(ctx, def.ID, "user-1")
	sessions.Start(ctx, def.ID, "user-1")
	sessions.SelectAnswer(ctx, def.ID, "user-1", def.Questions[0].ID, "a")

	if _, err := sessions.Submit(ctx, def.ID, "user-1", false); !errors.Is(err, session.ErrUnansweredQuestions) {
		t.Fatalf("expected ErrUnansweredQuestions, got %v", err)
	}

	state, err := sessions.Submit(ctx, def.ID, "user-1", true)
	if err != nil {
		t.Fatalf("confirmed submit: %v", err)
	}
	if state.Phase != session.PhaseCompleted {
		t.Errorf("expected Completed, got %s", state.Phase)
	}
}

func TestRetry_BeginsFreshAttempt(t *testing.T) {
	memory := store.NewMemory()
	def := seedAssessment(t, memory, 70, 0)
	sessions, _ := newServices(memory, newRecordingReporter(nil))
	ctx := context.Background()

	sessions.Open(ctx, def.ID, "user-1")
	sessions.Start(ctx, def.ID, "user-1")
	answerAll(t, sessions, def, "user-1")
	if _, err := sessions.Submit(ctx, def.ID, "user-1", false); err != nil {
		t.Fatalf("submit: %v", err)
	}

	state, err := sessions.Retry(ctx, def.ID, "user-1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if state.Phase != session.PhaseNotStarted {
		t.Errorf("expected NotStarted after retry, got %s", state.Phase)
	}
	if state.AnsweredCount != 0 || state.Result != nil {
		t.Errorf("expected a clean slate after retry, got %+v", state)
	}
}

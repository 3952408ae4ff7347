package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/certready/backend/internal/domain/assessment"
	"github.com/certready/backend/internal/domain/session"
	"github.com/certready/backend/internal/progress"
	"github.com/certready/backend/internal/service"
	"github.com/certready/backend/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flakyStore wraps the in-memory store so tests can make SaveResult fail
// or block on demand.
type flakyStore struct {
	*store.Memory
	mu      sync.Mutex
	saveErr error
	entered chan struct{} // receives once per SaveResult call, when set
	block   chan struct{} // when set, SaveResult waits for it to close
}

func (f *flakyStore) SaveResult(ctx context.Context, record *store.ResultRecord) (store.SaveOutcome, error) {
	f.mu.Lock()
	saveErr, entered, block := f.saveErr, f.entered, f.block
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if saveErr != nil {
		return store.SaveOutcome{}, saveErr
	}
	return f.Memory.SaveResult(ctx, record)
}

// recordingReporter captures progress events and optionally fails.
type recordingReporter struct {
	err    error
	events chan progress.Event
}

func newRecordingReporter(err error) *recordingReporter {
	return &recordingReporter{err: err, events: make(chan progress.Event, 4)}
}

func (r *recordingReporter) ResourceCompleted(_ context.Context, ev progress.Event) error {
	r.events <- ev
	return r.err
}

func seedAssessment(t *testing.T, st store.Store, threshold int, durationSeconds int) *assessment.Definition {
	t.Helper()
	var duration *int
	if durationSeconds > 0 {
		duration = &durationSeconds
	}
	def := assessment.New("Practice Exam", duration, threshold)
	def.Provider = "aws"
	def.Path = "certs/practitioner"
	options := []assessment.AnswerOption{
		{Key: "a", Text: "First"},
		{Key: "b", Text: "Second"},
	}
	for i := 0; i < 2; i++ {
		if err := def.AddQuestion("Question", options, "a", nil); err != nil {
			t.Fatalf("add question: %v", err)
		}
	}
	if err := st.SaveAssessment(context.Background(), def); err != nil {
		t.Fatalf("save assessment: %v", err)
	}
	return def
}

func newServices(st store.Store, reporter progress.Reporter) (*service.SessionService, *service.SubmissionService) {
	logger := discardLogger()
	submitter := service.NewSubmissionService(st, reporter, logger, 10*time.Second, 10*time.Second)
	return service.NewSessionService(st, submitter, logger), submitter
}

func answerAll(t *testing.T, sessions *service.SessionService, def *assessment.Definition, userID string) {
	t.Helper()
	ctx := context.Background()
	for _, q := range def.Questions {
		if _, err := sessions.SelectAnswer(ctx, def.ID, userID, q.ID, "a"); err != nil {
			t.Fatalf("select answer: %v", err)
		}
	}
}

func TestSubmit_SaveFailureLeavesSessionRecoverable(t *testing.T) {
	flaky := &flakyStore{Memory: store.NewMemory(), saveErr: errors.New("backend down")}
	def := seedAssessment(t, flaky, 70, 0)
	sessions, _ := newServices(flaky, newRecordingReporter(nil))
	ctx := context.Background()

	if _, err := sessions.Open(ctx, def.ID, "user-1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := sessions.Start(ctx, def.ID, "user-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	answerAll(t, sessions, def, "user-1")

	_, err := sessions.Submit(ctx, def.ID, "user-1", false)
	var saveErr *service.SaveError
	if !errors.As(err, &saveErr) {
		t.Fatalf("expected SaveError, got %v", err)
	}

	// Phase reverted, snapshot intact: nothing was lost.
	state, err := sessions.Open(ctx, def.ID, "user-1")
	if err != nil {
		t.Fatalf("state after failed submit: %v", err)
	}
	if state.Phase != session.PhaseInProgress {
		t.Errorf("expected InProgress after failed save, got %s", state.Phase)
	}
	key := session.Key(def.ID, "user-1")
	if _, err := flaky.GetSnapshot(ctx, key); err != nil {
		t.Errorf("expected pre-submit snapshot to survive a failed save: %v", err)
	}

	// Clearing the fault makes the retry succeed.
	flaky.mu.Lock()
	flaky.saveErr = nil
	flaky.mu.Unlock()

	state, err = sessions.Submit(ctx, def.ID, "user-1", false)
	if err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if state.Phase != session.PhaseCompleted {
		t.Errorf("expected Completed after retry, got %s", state.Phase)
	}
	if _, err := flaky.GetSnapshot(ctx, key); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected snapshot deleted after successful submit, got %v", err)
	}
}

func TestSubmit_ProgressFailureDoesNotBlockCompletion(t *testing.T) {
	memory := store.NewMemory()
	def := seedAssessment(t, memory, 70, 0)
	reporter := newRecordingReporter(&progress.ReportError{Reason: "rollup unavailable"})
	sessions, _ := newServices(memory, reporter)
	ctx := context.Background()

	sessions.Open(ctx, def.ID, "user-1")
	sessions.Start(ctx, def.ID, "user-1")
	answerAll(t, sessions, def, "user-1")

	state, err := sessions.Submit(ctx, def.ID, "user-1", false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if state.Phase != session.PhaseCompleted {
		t.Errorf("expected Completed despite progress failure, got %s", state.Phase)
	}
	if state.Result == nil || !state.Result.Passed {
		t.Fatalf("expected passing result returned to caller, got %+v", state.Result)
	}

	// The rollup was attempted (and its failure swallowed).
	select {
	case ev := <-reporter.events:
		if ev.ResourceID != def.ID || ev.ResourceType != "quiz" {
			t.Errorf("unexpected rollup event %+v", ev)
		}
		if ev.Provider != "aws" || ev.Path != "certs/practitioner" {
			t.Errorf("expected catalogue context on event, got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a progress event to be dispatched")
	}
}

func TestSubmit_NoProgressEventOnFailedAttempt(t *testing.T) {
	memory := store.NewMemory()
	def := seedAssessment(t, memory, 70, 0)
	reporter := newRecordingReporter(nil)
	sessions, _ := newServices(memory, reporter)
	ctx := context.Background()

	sessions.Open(ctx, def.ID, "user-1")
	sessions.Start(ctx, def.ID, "user-1")
	// Answer only one of two questions correctly → 50% < 70%.
	sessions.SelectAnswer(ctx, def.ID, "user-1", def.Questions[0].ID, "a")
	sessions.SelectAnswer(ctx, def.ID, "user-1", def.Questions[1].ID, "b")

	state, err := sessions.Submit(ctx, def.ID, "user-1", false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if state.Result.Passed {
		t.Fatal("expected failing result")
	}

	select {
	case ev := <-reporter.events:
		t.Errorf("expected no progress event for a failed attempt, got %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSubmit_ReconcilesServerVerdict(t *testing.T) {
	// Threshold 30 stored server-side: 50% is a pass even though the
	// client-facing definition in the session was scored the same way —
	// the authoritative verdict comes from the store.
	memory := store.NewMemory()
	def := seedAssessment(t, memory, 30, 0)
	sessions, _ := newServices(memory, newRecordingReporter(nil))
	ctx := context.Background()

	sessions.Open(ctx, def.ID, "user-1")
	sessions.Start(ctx, def.ID, "user-1")
	sessions.SelectAnswer(ctx, def.ID, "user-1", def.Questions[0].ID, "a")
	sessions.SelectAnswer(ctx, def.ID, "user-1", def.Questions[1].ID, "b")

	state, err := sessions.Submit(ctx, def.ID, "user-1", false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !state.Result.Passed {
		t.Error("expected the server verdict (pass at threshold 30) to be reconciled into the result")
	}
}

func TestSubmit_InFlightFlagDebouncesConcurrentSubmits(t *testing.T) {
	flaky := &flakyStore{
		Memory:  store.NewMemory(),
		entered: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	def := seedAssessment(t, flaky, 70, 0)
	_, submitter := newServices(flaky, newRecordingReporter(nil))

	sess, err := session.New(def, "user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	sess.Start()
	for _, q := range def.Questions {
		sess.SelectAnswer(q.ID, "a")
	}
	if err := sess.BeginSubmit(false); err != nil {
		t.Fatalf("begin submit: %v", err)
	}

	firstDone := make(chan error, 1)
	go func() {
		_, err := submitter.Submit(context.Background(), sess, progress.Event{ResourceID: def.ID})
		firstDone <- err
	}()

	// Wait until the first submission is parked inside SaveResult, then
	// fire the double-tap.
	select {
	case <-flaky.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first submit never reached SaveResult")
	}

	if _, err := submitter.Submit(context.Background(), sess, progress.Event{ResourceID: def.ID}); !errors.Is(err, service.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight for the double-tap, got %v", err)
	}

	close(flaky.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
}

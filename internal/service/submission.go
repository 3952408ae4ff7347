package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/certready/backend/internal/domain/scoring"
	"github.com/certready/backend/internal/domain/session"
	"github.com/certready/backend/internal/progress"
	"github.com/certready/backend/internal/store"
	"github.com/certready/backend/internal/worker"
)

// ErrSubmitInFlight means a submission for the same attempt is already
// outstanding. This flag debounces rapid double-taps of a submit control,
// independently of the session's own phase guard.
var ErrSubmitInFlight = errors.New("submission already in flight")

// SaveError wraps a failed result save. It is retryable: the session
// reverts to InProgress and the local snapshot stays intact, so nothing
// is lost.
type SaveError struct {
	Wrapped error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving result failed: %v", e.Wrapped)
}

func (e *SaveError) Unwrap() error {
	return e.Wrapped
}

// SubmissionService runs the two-phase submission pipeline: a hard-fail
// save of the full result, then a best-effort progress rollup. The two
// phases fail asymmetrically on purpose — the detailed result is the
// record of truth, the rollup a denormalization that can be repaired.
type SubmissionService struct {
	results  store.ResultStore
	reporter progress.Reporter
	pool     *worker.Pool[error]
	logger   *slog.Logger

	saveTimeout     time.Duration
	progressTimeout time.Duration

	mu       sync.Mutex
	inFlight map[string]bool // session key → submission outstanding
}

// NewSubmissionService creates the coordinator. Progress events run on a
// small worker pool so a slow rollup endpoint never blocks the submit
// path; a drain goroutine logs their outcomes.
func NewSubmissionService(results store.ResultStore, reporter progress.Reporter, logger *slog.Logger, saveTimeout, progressTimeout time.Duration) *SubmissionService {
	s := &SubmissionService{
		results:         results,
		reporter:        reporter,
		pool:            worker.NewPool[error](2, 16),
		logger:          logger,
		saveTimeout:     saveTimeout,
		progressTimeout: progressTimeout,
		inFlight:        make(map[string]bool),
	}
	go s.drain()
	return s
}

// Submit scores the session and runs the pipeline. The session must
// already be in the Submitting phase; the caller owns the phase
// transition out of Submitting based on the returned error.
//
// On success the returned result carries the server's authoritative
// pass/fail verdict, which may differ from the locally computed one.
func (s *SubmissionService) Submit(ctx context.Context, sess *session.Session, ev progress.Event) (*scoring.Result, error) {
	key := session.Key(sess.Definition.ID, sess.UserID)

	s.mu.Lock()
	if s.inFlight[key] {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	s.inFlight[key] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}()

	def := sess.Definition
	result := scoring.Score(def.Questions, sess.Answers(), def.Threshold())
	result.CompletedAt = time.Now().UTC()
	result.TimeSpentSeconds = sess.TimeSpentSeconds()

	record := &store.ResultRecord{
		AssessmentID:     def.ID,
		UserID:           sess.UserID,
		CorrectCount:     result.CorrectCount,
		TotalQuestions:   result.TotalQuestions,
		Percentage:       result.Percentage,
		Passed:           result.Passed,
		Answers:          sess.Answers(),
		Review:           result.Review,
		CompletedAt:      result.CompletedAt,
		TimeSpentSeconds: result.TimeSpentSeconds,
	}
	if timing := sess.Timing(); timing != nil {
		record.StartedAt = timing.StartedAt
	}

	saveCtx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()

	outcome, err := s.results.SaveResult(saveCtx, record)
	if err != nil {
		return nil, &SaveError{Wrapped: err}
	}

	// Reconcile with the server's verdict before the session completes.
	result.Passed = outcome.Passed

	if outcome.Passed {
		ev.UserID = sess.UserID
		s.dispatchProgress(ev)
	}

	s.logger.Info("result saved",
		"result_id", outcome.ResultID,
		"assessment_id", def.ID,
		"user_id", sess.UserID,
		"percentage", result.Percentage,
		"passed", outcome.Passed,
	)

	return &result, nil
}

// dispatchProgress hands the rollup event to the pool. It runs on a
// background context so an ending HTTP request cannot cancel it.
func (s *SubmissionService) dispatchProgress(ev progress.Event) {
	s.pool.Submit(ev.ResourceID, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), s.progressTimeout)
		defer cancel()
		return s.reporter.ResourceCompleted(ctx, ev)
	})
}

// drain logs progress outcomes. Failures are swallowed here — they never
// propagate to the user, whose result is already durably saved.
func (s *SubmissionService) drain() {
	for res := range s.pool.Results() {
		if res.Output != nil {
			s.logger.Error("progress update failed",
				"resource_id", res.JobID,
				"error", res.Output,
			)
		}
	}
}

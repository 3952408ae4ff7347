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
)

// ErrSessionNotOpen means an action arrived for a session that has not
// been opened (or was torn down). The client must open the session first.
var ErrSessionNotOpen = errors.New("session not open")

// LoadError wraps a failed assessment fetch or snapshot read. Retryable;
// nothing was mutated.
type LoadError struct {
	Wrapped error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading session failed: %v", e.Wrapped)
}

func (e *LoadError) Unwrap() error {
	return e.Wrapped
}

// State is the read-only view of a session exposed to the presentation
// layer. Everything the app renders is derived from this plus the action
// endpoints.
type State struct {
	AssessmentID     string
	Title            string
	Phase            session.Phase
	CurrentIndex     int
	AnsweredCount    int
	TotalQuestions   int
	Answers          map[string]string
	RemainingSeconds *int
	Result           *scoring.Result
}

type liveSession struct {
	sess      *session.Session
	countdown *session.Countdown
}

// SessionService owns the live sessions: one per (assessment, user),
// created on open, resumed from the snapshot store when one exists, torn
// down on completion of the process. All access is serialized through a
// single mutex — the session model is a single cooperative actor, and
// two restores or two submits for the same attempt must never interleave.
type SessionService struct {
	store     store.Store
	submitter *SubmissionService
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	live map[string]*liveSession
}

func NewSessionService(st store.Store, submitter *SubmissionService, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:     st,
		submitter: submitter,
		logger:    logger,
		now:       time.Now,
		live:      make(map[string]*liveSession),
	}
}

// SetClock overrides the time source for the service and every session
// it creates. Used by tests.
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

// Open fetches the assessment and either resumes the persisted
// in-progress snapshot or creates a fresh NotStarted session. Opening an
// already-open session returns its current state unchanged.
func (s *SessionService) Open(ctx context.Context, assessmentID, userID string) (State, error) {
	if userID == "" {
		return State{}, session.ErrIdentityUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := session.Key(assessmentID, userID)
	if ls, ok := s.live[key]; ok {
		return s.state(ls.sess), nil
	}

	def, err := s.store.GetAssessment(ctx, assessmentID)
	if errors.Is(err, store.ErrNotFound) {
		return State{}, err
	}
	if err != nil {
		return State{}, &LoadError{Wrapped: err}
	}

	sess, err := session.New(def, userID)
	if err != nil {
		return State{}, err
	}
	sess.SetClock(s.now)

	data, err := s.store.GetSnapshot(ctx, key)
	switch {
	case err == nil:
		snap, decodeErr := session.DecodeSnapshot(data)
		if decodeErr != nil {
			// A corrupt snapshot must not brick the assessment; start fresh.
			s.logger.Error("discarding unreadable session snapshot", "key", key, "error", decodeErr)
			if delErr := s.store.DeleteSnapshot(ctx, key); delErr != nil {
				s.logger.Error("failed to delete unreadable snapshot", "key", key, "error", delErr)
			}
		} else {
			sess.Restore(snap)
		}
	case errors.Is(err, store.ErrNotFound):
		// fresh attempt
	default:
		return State{}, &LoadError{Wrapped: err}
	}

	ls := &liveSession{sess: sess}
	s.live[key] = ls

	if sess.Phase() == session.PhaseInProgress {
		s.scheduleCountdown(key, ls)
	}

	return s.state(sess), nil
}

// Start begins the timed window for a fresh session.
func (s *SessionService) Start(ctx context.Context, assessmentID, userID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, key, err := s.lookup(assessmentID, userID)
	if err != nil {
		return State{}, err
	}
	if err := ls.sess.Start(); err != nil {
		return State{}, err
	}
	s.persist(ctx, key, ls.sess)
	s.scheduleCountdown(key, ls)
	return s.state(ls.sess), nil
}

// SelectAnswer records an answer and persists the snapshot.
func (s *SessionService) SelectAnswer(ctx context.Context, assessmentID, userID, questionID, answerKey string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, key, err := s.lookup(assessmentID, userID)
	if err != nil {
		return State{}, err
	}
	if err := ls.sess.SelectAnswer(questionID, answerKey); err != nil {
		return State{}, err
	}
	s.persist(ctx, key, ls.sess)
	return s.state(ls.sess), nil
}

// Navigate moves the question pointer and persists the snapshot.
func (s *SessionService) Navigate(ctx context.Context, assessmentID, userID string, index int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, key, err := s.lookup(assessmentID, userID)
	if err != nil {
		return State{}, err
	}
	if err := ls.sess.Navigate(index); err != nil {
		return State{}, err
	}
	s.persist(ctx, key, ls.sess)
	return s.state(ls.sess), nil
}

// Submit runs the submission pipeline. confirmed bypasses the unanswered
// guard (the UI asks the user first; timer expiry confirms implicitly).
func (s *SessionService) Submit(ctx context.Context, assessmentID, userID string, confirmed bool) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitLocked(ctx, assessmentID, userID, confirmed)
}

func (s *SessionService) submitLocked(ctx context.Context, assessmentID, userID string, confirmed bool) (State, error) {
	ls, key, err := s.lookup(assessmentID, userID)
	if err != nil {
		return State{}, err
	}
	sess := ls.sess

	if err := sess.BeginSubmit(confirmed); err != nil {
		return State{}, err
	}
	if ls.countdown != nil {
		ls.countdown.Cancel()
		ls.countdown = nil
	}

	result, err := s.submitter.Submit(ctx, sess, s.rollupEvent(sess))
	if err != nil {
		// The save failed or is outstanding: revert so the user can retry.
		// The snapshot is deliberately NOT deleted on this path.
		if revertErr := sess.Revert(); revertErr != nil {
			s.logger.Error("failed to revert session after save failure", "key", key, "error", revertErr)
		}
		if remaining := sess.RemainingSeconds(); remaining == nil || *remaining > 0 {
			s.scheduleCountdown(key, ls)
		}
		return State{}, err
	}

	if err := sess.Complete(*result); err != nil {
		return State{}, err
	}
	// The attempt is durably recorded; drop the resumable snapshot.
	if err := s.store.DeleteSnapshot(ctx, key); err != nil {
		s.logger.Error("failed to delete session snapshot", "key", key, "error", err)
	}
	return s.state(sess), nil
}

// Retry starts a fresh attempt after a completed one.
func (s *SessionService) Retry(ctx context.Context, assessmentID, userID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, _, err := s.lookup(assessmentID, userID)
	if err != nil {
		return State{}, err
	}
	if err := ls.sess.Reset(); err != nil {
		return State{}, err
	}
	return s.state(ls.sess), nil
}

// Teardown cancels the countdown and forgets the live session. The
// snapshot, if any, stays in the store for a later resume.
func (s *SessionService) Teardown(assessmentID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := session.Key(assessmentID, userID)
	if ls, ok := s.live[key]; ok {
		if ls.countdown != nil {
			ls.countdown.Cancel()
		}
		delete(s.live, key)
	}
}

// Close cancels every running countdown. Called on shutdown.
func (s *SessionService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ls := range s.live {
		if ls.countdown != nil {
			ls.countdown.Cancel()
		}
	}
	s.live = make(map[string]*liveSession)
}

func (s *SessionService) lookup(assessmentID, userID string) (*liveSession, string, error) {
	if userID == "" {
		return nil, "", session.ErrIdentityUnavailable
	}
	key := session.Key(assessmentID, userID)
	ls, ok := s.live[key]
	if !ok {
		return nil, "", ErrSessionNotOpen
	}
	return ls, key, nil
}

// persist writes the snapshot after a mutation. A failed write is logged
// but does not undo the mutation: the in-memory session stays
// authoritative for the life of the process, and the next mutation
// retries the write.
func (s *SessionService) persist(ctx context.Context, key string, sess *session.Session) {
	if sess.Phase() != session.PhaseInProgress {
		return
	}
	data, err := sess.Snapshot().Encode()
	if err != nil {
		s.logger.Error("failed to encode session snapshot", "key", key, "error", err)
		return
	}
	if err := s.store.SetSnapshot(ctx, key, data); err != nil {
		s.logger.Error("failed to persist session snapshot", "key", key, "error", err)
	}
}

// scheduleCountdown arms a fresh countdown for a timed in-progress
// session. Expiry submits the session unconditionally, exactly once.
func (s *SessionService) scheduleCountdown(key string, ls *liveSession) {
	sess := ls.sess
	if !sess.Definition.Timed() || sess.Phase() != session.PhaseInProgress {
		return
	}
	timing := sess.Timing()
	if timing == nil {
		return
	}

	assessmentID, userID := sess.Definition.ID, sess.UserID
	countdown := session.NewCountdown(*sess.Definition.DurationSeconds, *timing, s.now, func() {
		s.autoSubmit(assessmentID, userID)
	})
	ls.countdown = countdown
	countdown.Schedule()
}

// autoSubmit is the timer-expiry path. It runs outside any request, so
// it gets its own context; failures are logged and the session stays
// InProgress for a manual retry.
func (s *SessionService) autoSubmit(assessmentID, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.submitLocked(ctx, assessmentID, userID, true); err != nil {
		s.logger.Error("auto-submit on timer expiry failed",
			"assessment_id", assessmentID,
			"user_id", userID,
			"error", err,
		)
		return
	}
	s.logger.Info("session auto-submitted on timer expiry",
		"assessment_id", assessmentID,
		"user_id", userID,
	)
}

func (s *SessionService) rollupEvent(sess *session.Session) progress.Event {
	resourceType := "quiz"
	if sess.Definition.Timed() {
		resourceType = "exam"
	}
	return progress.Event{
		ResourceType: resourceType,
		ResourceID:   sess.Definition.ID,
		Provider:     sess.Definition.Provider,
		Path:         sess.Definition.Path,
	}
}

func (s *SessionService) state(sess *session.Session) State {
	return State{
		AssessmentID:     sess.Definition.ID,
		Title:            sess.Definition.Title,
		Phase:            sess.Phase(),
		CurrentIndex:     sess.CurrentIndex(),
		AnsweredCount:    sess.AnsweredCount(),
		TotalQuestions:   len(sess.Definition.Questions),
		Answers:          sess.Answers(),
		RemainingSeconds: sess.RemainingSeconds(),
		Result:           sess.Result(),
	}
}

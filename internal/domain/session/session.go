package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/certready/backend/internal/domain/assessment"
	"github.com/certready/backend/internal/domain/scoring"
)

// Phase is the lifecycle state of one attempt.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseSubmitting Phase = "submitting"
	PhaseCompleted  Phase = "completed"
)

var (
	// ErrIdentityUnavailable means the attempt has no authenticated user
	// attached. Mutating actions refuse to proceed rather than silently
	// no-op, since a missing identity is a broken precondition.
	ErrIdentityUnavailable = errors.New("session identity unavailable")

	// ErrUnansweredQuestions is returned by BeginSubmit when questions
	// remain unanswered and the caller has not confirmed. The caller may
	// retry with confirmed=true.
	ErrUnansweredQuestions = errors.New("session has unanswered questions")

	ErrNotInProgress  = errors.New("session is not in progress")
	ErrNotSubmitting  = errors.New("session is not submitting")
	ErrNotCompleted   = errors.New("session is not completed")
	ErrAlreadyStarted = errors.New("session already started")
)

// Timing records when the timed portion of an attempt began. Accumulated
// seconds carry time spent before a suspend/resume cycle.
type Timing struct {
	StartedAt               time.Time `json:"started_at"`
	AccumulatedSpentSeconds int       `json:"accumulated_spent_seconds"`
}

// Session is the state machine for a single attempt at one assessment by
// one user. It is a cooperative, single-actor structure: callers serialize
// access, and phase flags (not locks) guard against re-entrant transitions.
type Session struct {
	Definition *assessment.Definition
	UserID     string

	phase        Phase
	answers      map[string]string
	currentIndex int
	timing       *Timing
	result       *scoring.Result
	now          func() time.Time
}

// New creates an empty NotStarted session for the given user.
func New(def *assessment.Definition, userID string) (*Session, error) {
	if userID == "" {
		return nil, ErrIdentityUnavailable
	}
	return &Session{
		Definition: def,
		UserID:     userID,
		phase:      PhaseNotStarted,
		answers:    make(map[string]string),
		now:        time.Now,
	}, nil
}

// SetClock overrides the time source. Used by tests to advance virtual time.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Session) Phase() Phase      { return s.phase }
func (s *Session) CurrentIndex() int { return s.currentIndex }

// Answers returns a copy of the answer map.
func (s *Session) Answers() map[string]string {
	answers := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	return answers
}

// Timing returns a copy of the timing record, or nil before Start.
func (s *Session) Timing() *Timing {
	if s.timing == nil {
		return nil
	}
	t := *s.timing
	return &t
}

// Result returns the final result, or nil before completion.
func (s *Session) Result() *scoring.Result { return s.result }

// AnsweredCount reports how many questions carry an answer.
func (s *Session) AnsweredCount() int { return len(s.answers) }

// RemainingSeconds returns the clamped remaining time for a timed
// definition, or nil when untimed or not yet started.
func (s *Session) RemainingSeconds() *int {
	if !s.Definition.Timed() || s.timing == nil {
		return nil
	}
	remaining := Remaining(*s.Definition.DurationSeconds, *s.timing, s.now())
	return &remaining
}

// TimeSpentSeconds reports the wall-clock seconds spent so far, including
// time accumulated before a resume.
func (s *Session) TimeSpentSeconds() int {
	if s.timing == nil {
		return 0
	}
	return s.timing.AccumulatedSpentSeconds + int(s.now().Sub(s.timing.StartedAt).Seconds())
}

// Start transitions NotStarted → InProgress and records the start of the
// timed window. Resumed sessions never pass through here: Restore lands
// directly in InProgress with the persisted timing.
func (s *Session) Start() error {
	if s.phase != PhaseNotStarted {
		return ErrAlreadyStarted
	}
	s.timing = &Timing{StartedAt: s.now()}
	s.phase = PhaseInProgress
	return nil
}

// SelectAnswer records (or overwrites) the answer for a question.
func (s *Session) SelectAnswer(questionID, answerKey string) error {
	if s.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	if _, ok := s.Definition.Question(questionID); !ok {
		return fmt.Errorf("question %q not in assessment %q", questionID, s.Definition.ID)
	}
	s.answers[questionID] = answerKey
	return nil
}

// Navigate moves the current question pointer. Out-of-range targets are
// ignored.
func (s *Session) Navigate(index int) error {
	if s.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= len(s.Definition.Questions) {
		return nil
	}
	s.currentIndex = index
	return nil
}

// BeginSubmit transitions InProgress → Submitting. When questions remain
// unanswered the transition is refused with ErrUnansweredQuestions unless
// confirmed is true; timer expiry submits with confirmed=true.
func (s *Session) BeginSubmit(confirmed bool) error {
	if s.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	if !confirmed && len(s.answers) < len(s.Definition.Questions) {
		return ErrUnansweredQuestions
	}
	s.phase = PhaseSubmitting
	return nil
}

// Complete transitions Submitting → Completed and pins the final result.
// Completed is terminal for the attempt.
func (s *Session) Complete(result scoring.Result) error {
	if s.phase != PhaseSubmitting {
		return ErrNotSubmitting
	}
	s.result = &result
	s.phase = PhaseCompleted
	return nil
}

// Revert transitions Submitting → InProgress after a failed save so the
// user can retry without losing answers.
func (s *Session) Revert() error {
	if s.phase != PhaseSubmitting {
		return ErrNotSubmitting
	}
	s.phase = PhaseInProgress
	return nil
}

// Reset begins a fresh attempt after completion: empty answers, no timing,
// NotStarted.
func (s *Session) Reset() error {
	if s.phase != PhaseCompleted {
		return ErrNotCompleted
	}
	s.phase = PhaseNotStarted
	s.answers = make(map[string]string)
	s.currentIndex = 0
	s.timing = nil
	s.result = nil
	return nil
}

// Snapshot captures the resumable state of an in-progress attempt.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Answers:      s.Answers(),
		CurrentIndex: s.currentIndex,
		Timing:       s.Timing(),
	}
}

// Restore rehydrates a session from a persisted snapshot. Snapshots are
// only ever persisted while InProgress, so the restored session lands in
// InProgress directly, with timing carried over verbatim.
func (s *Session) Restore(snap Snapshot) {
	s.answers = make(map[string]string, len(snap.Answers))
	for k, v := range snap.Answers {
		s.answers[k] = v
	}
	s.currentIndex = snap.CurrentIndex
	if s.currentIndex < 0 || s.currentIndex >= len(s.Definition.Questions) {
		s.currentIndex = 0
	}
	if snap.Timing != nil {
		t := *snap.Timing
		s.timing = &t
	}
	s.phase = PhaseInProgress
}

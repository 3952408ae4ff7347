package store

import (
	"context"
	"errors"
	"time"

	"github.com/certready/backend/internal/domain/assessment"
	"github.com/certready/backend/internal/domain/scoring"
)

var (
	ErrNotFound = errors.New("not found")
)

// ResultRecord is the durable record of one completed attempt, including
// the raw per-question answers so the attempt can be audited or re-scored.
type ResultRecord struct {
	ID               string
	AssessmentID     string
	UserID           string
	CorrectCount     int
	TotalQuestions   int
	Percentage       int
	Passed           bool
	Answers          map[string]string
	Review           []scoring.Review
	StartedAt        time.Time
	CompletedAt      time.Time
	TimeSpentSeconds int
}

// SaveOutcome is what SaveResult reports back: the server-assigned result
// id and the authoritative pass/fail determination. The caller's locally
// computed Passed is only an optimistic placeholder until this arrives.
type SaveOutcome struct {
	ResultID string
	Passed   bool
}

type AssessmentStore interface {
	SaveAssessment(ctx context.Context, def *assessment.Definition) error
	GetAssessment(ctx context.Context, id string) (*assessment.Definition, error)
	ListAssessments(ctx context.Context) ([]*assessment.Definition, error)
	DeleteAssessment(ctx context.Context, id string) error
	AddQuestion(ctx context.Context, assessmentID string, q assessment.Question) error
}

type ResultStore interface {
	SaveResult(ctx context.Context, record *ResultRecord) (SaveOutcome, error)
	ListResults(ctx context.Context, userID string) ([]*ResultRecord, error)
}

// SnapshotStore is the local session store: a key-value table holding the
// serialized snapshot of each in-progress attempt so it survives restarts.
// GetSnapshot returns ErrNotFound when no snapshot exists for the key.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, key string) (string, error)
	SetSnapshot(ctx context.Context, key string, data string) error
	DeleteSnapshot(ctx context.Context, key string) error
}

// Store is the full persistence surface of the service.
type Store interface {
	AssessmentStore
	ResultStore
	SnapshotStore
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/certready/backend/internal/domain/assessment"
	"github.com/certready/backend/internal/domain/scoring"
)

const schema = `
CREATE TABLE IF NOT EXISTS assessments (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    duration_seconds INTEGER,
    pass_threshold INTEGER NOT NULL DEFAULT 0,
    provider TEXT NOT NULL DEFAULT '',
    path TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS questions (
    id TEXT PRIMARY KEY,
    assessment_id TEXT NOT NULL,
    prompt TEXT NOT NULL,
    options TEXT NOT NULL,
    correct_key TEXT NOT NULL,
    explanation TEXT NOT NULL,
    position INTEGER NOT NULL,
    FOREIGN KEY (assessment_id) REFERENCES assessments(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS results (
    id TEXT PRIMARY KEY,
    assessment_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    correct_count INTEGER NOT NULL,
    total_questions INTEGER NOT NULL,
    percentage INTEGER NOT NULL,
    passed INTEGER NOT NULL,
    answers TEXT NOT NULL,
    review TEXT NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT NOT NULL,
    time_spent_seconds INTEGER NOT NULL,
    FOREIGN KEY (assessment_id) REFERENCES assessments(id)
);

CREATE TABLE IF NOT EXISTS snapshots (
    key TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// SQLite persists assessments, results and session snapshots in a single
// sqlite database file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// ============================================================================
// Assessments
// ============================================================================

func (s *SQLite) SaveAssessment(ctx context.Context, def *assessment.Definition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO assessments (id, title, duration_seconds, pass_threshold, provider, path) VALUES (?, ?, ?, ?, ?, ?)",
		def.ID, def.Title, def.DurationSeconds, def.PassThreshold, def.Provider, def.Path,
	)
	if err != nil {
		return err
	}

	for i, q := range def.Questions {
		if err := insertQuestion(ctx, tx, def.ID, q, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLite) GetAssessment(ctx context.Context, id string) (*assessment.Definition, error) {
	var def assessment.Definition
	var duration sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, duration_seconds, pass_threshold, provider, path FROM assessments WHERE id = ?", id,
	).Scan(&def.ID, &def.Title, &duration, &def.PassThreshold, &def.Provider, &def.Path)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if duration.Valid {
		d := int(duration.Int64)
		def.DurationSeconds = &d
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, prompt, options, correct_key, explanation FROM questions WHERE assessment_id = ? ORDER BY position",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var q assessment.Question
		var optionsJSON, explanationJSON string
		if err := rows.Scan(&q.ID, &q.Prompt, &optionsJSON, &q.CorrectKey, &explanationJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(explanationJSON), &q.Explanation); err != nil {
			return nil, err
		}
		def.Questions = append(def.Questions, q)
	}

	return &def, rows.Err()
}

func (s *SQLite) ListAssessments(ctx context.Context) ([]*assessment.Definition, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, duration_seconds, pass_threshold, provider, path FROM assessments",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []*assessment.Definition
	for rows.Next() {
		var def assessment.Definition
		var duration sql.NullInt64
		if err := rows.Scan(&def.ID, &def.Title, &duration, &def.PassThreshold, &def.Provider, &def.Path); err != nil {
			return nil, err
		}
		if duration.Valid {
			d := int(duration.Int64)
			def.DurationSeconds = &d
		}
		defs = append(defs, &def)
	}
	return defs, rows.Err()
}

func (s *SQLite) DeleteAssessment(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM questions WHERE assessment_id = ?", id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM assessments WHERE id = ?", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (s *SQLite) AddQuestion(ctx context.Context, assessmentID string, q assessment.Question) error {
	var position int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM questions WHERE assessment_id = ?", assessmentID,
	).Scan(&position)
	if err != nil {
		return err
	}
	return insertQuestion(ctx, s.db, assessmentID, q, position)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertQuestion(ctx context.Context, db execer, assessmentID string, q assessment.Question, position int) error {
	options := q.Options
	if options == nil {
		options = []assessment.AnswerOption{}
	}
	explanation := q.Explanation
	if explanation == nil {
		explanation = []string{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return err
	}
	explanationJSON, err := json.Marshal(explanation)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO questions (id, assessment_id, prompt, options, correct_key, explanation, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
		q.ID, assessmentID, q.Prompt, string(optionsJSON), q.CorrectKey, string(explanationJSON), position,
	)
	return err
}

// ============================================================================
// Results
// ============================================================================

// SaveResult stores the record and returns the assigned id together with
// the authoritative pass/fail verdict, recomputed here against the stored
// threshold. The store, not the submitting client, is the source of truth.
func (s *SQLite) SaveResult(ctx context.Context, record *ResultRecord) (SaveOutcome, error) {
	var threshold int
	err := s.db.QueryRowContext(ctx,
		"SELECT pass_threshold FROM assessments WHERE id = ?", record.AssessmentID,
	).Scan(&threshold)
	if err == sql.ErrNoRows {
		return SaveOutcome{}, ErrNotFound
	}
	if err != nil {
		return SaveOutcome{}, err
	}
	if threshold <= 0 {
		threshold = assessment.DefaultPassThreshold
	}
	passed := record.Percentage >= threshold

	answersJSON, err := json.Marshal(record.Answers)
	if err != nil {
		return SaveOutcome{}, err
	}
	reviewJSON, err := json.Marshal(record.Review)
	if err != nil {
		return SaveOutcome{}, err
	}

	resultID := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (id, assessment_id, user_id, correct_count, total_questions, percentage, passed, answers, review, started_at, completed_at, time_spent_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resultID, record.AssessmentID, record.UserID,
		record.CorrectCount, record.TotalQuestions, record.Percentage, boolToInt(passed),
		string(answersJSON), string(reviewJSON),
		record.StartedAt.UTC().Format(time.RFC3339), record.CompletedAt.UTC().Format(time.RFC3339),
		record.TimeSpentSeconds,
	)
	if err != nil {
		return SaveOutcome{}, err
	}

	return SaveOutcome{ResultID: resultID, Passed: passed}, nil
}

func (s *SQLite) ListResults(ctx context.Context, userID string) ([]*ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, assessment_id, user_id, correct_count, total_questions, percentage, passed, answers, review, started_at, completed_at, time_spent_seconds
		 FROM results WHERE user_id = ? ORDER BY completed_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ResultRecord
	for rows.Next() {
		var r ResultRecord
		var passed int
		var answersJSON, reviewJSON, startedAt, completedAt string
		if err := rows.Scan(
			&r.ID, &r.AssessmentID, &r.UserID,
			&r.CorrectCount, &r.TotalQuestions, &r.Percentage, &passed,
			&answersJSON, &reviewJSON, &startedAt, &completedAt, &r.TimeSpentSeconds,
		); err != nil {
			return nil, err
		}
		r.Passed = passed != 0
		if err := json.Unmarshal([]byte(answersJSON), &r.Answers); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(reviewJSON), &r.Review); err != nil {
			return nil, err
		}
		if r.Review == nil {
			r.Review = []scoring.Review{}
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, err
		}
		if r.CompletedAt, err = time.Parse(time.RFC3339, completedAt); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// ============================================================================
// Session snapshots
// ============================================================================

func (s *SQLite) GetSnapshot(ctx context.Context, key string) (string, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE key = ?", key).Scan(&data)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return data, nil
}

func (s *SQLite) SetSnapshot(ctx context.Context, key string, data string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *SQLite) DeleteSnapshot(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE key = ?", key)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

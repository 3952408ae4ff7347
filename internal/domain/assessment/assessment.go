package assessment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/certready/backend/internal/id"
)

// DefaultPassThreshold is applied when a definition does not carry its own.
const DefaultPassThreshold = 70

// AnswerOption is one selectable answer for a question.
type AnswerOption struct {
	Key  string // e.g. "a", "b", "c", "d"
	Text string
}

// Question is a single exam question. True/false questions carry no
// options; their correct key is the literal string "true" or "false".
type Question struct {
	ID          string
	Prompt      string
	Options     []AnswerOption
	CorrectKey  string
	Explanation []string // rendered joined on display
}

// IsTrueFalse reports whether the question is a bare true/false question.
func (q Question) IsTrueFalse() bool {
	return len(q.Options) == 0
}

// Definition is an immutable exam or quiz definition. Once fetched it is
// owned read-only by the session for the lifetime of one attempt.
type Definition struct {
	ID              string
	Title           string
	DurationSeconds *int // nil = untimed
	PassThreshold   int  // percentage; 0 = use DefaultPassThreshold
	Provider        string
	Path            string // catalogue placement, carried into progress rollups
	Questions       []Question
}

func New(title string, durationSeconds *int, passThreshold int) *Definition {
	return &Definition{
		ID:              id.GenerateID(),
		Title:           title,
		DurationSeconds: durationSeconds,
		PassThreshold:   passThreshold,
		Questions:       []Question{},
	}
}

// Threshold returns the effective passing threshold.
func (d *Definition) Threshold() int {
	if d.PassThreshold <= 0 {
		return DefaultPassThreshold
	}
	return d.PassThreshold
}

// Timed reports whether the definition carries a time limit.
func (d *Definition) Timed() bool {
	return d.DurationSeconds != nil && *d.DurationSeconds > 0
}

// Question returns the question with the given id, if present.
func (d *Definition) Question(qid string) (Question, bool) {
	for _, q := range d.Questions {
		if q.ID == qid {
			return q, true
		}
	}
	return Question{}, false
}

// AddQuestion validates and appends a question, assigning it an id.
func (d *Definition) AddQuestion(prompt string, options []AnswerOption, correctKey string, explanation []string) error {
	q := Question{
		ID:          id.GenerateID(),
		Prompt:      prompt,
		Options:     options,
		CorrectKey:  correctKey,
		Explanation: explanation,
	}
	if err := validateQuestion(q); err != nil {
		return err
	}
	d.Questions = append(d.Questions, q)
	return nil
}

// Validate checks the definition invariants: a non-empty title, and every
// question's correct key matching one of its options (or "true"/"false"
// for option-less questions).
func (d *Definition) Validate() error {
	if d.Title == "" {
		return errors.New("assessment title cannot be empty")
	}
	if d.PassThreshold < 0 || d.PassThreshold > 100 {
		return fmt.Errorf("pass threshold %d out of range", d.PassThreshold)
	}
	seen := make(map[string]struct{}, len(d.Questions))
	for _, q := range d.Questions {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
		if err := validateQuestion(q); err != nil {
			return fmt.Errorf("question %q: %w", q.ID, err)
		}
	}
	return nil
}

func validateQuestion(q Question) error {
	if q.Prompt == "" {
		return errors.New("question prompt cannot be empty")
	}
	if q.CorrectKey == "" {
		return errors.New("question has no correct answer key")
	}
	if q.IsTrueFalse() {
		key := strings.ToLower(q.CorrectKey)
		if key != "true" && key != "false" {
			return fmt.Errorf("true/false question must have correct key \"true\" or \"false\", got %q", q.CorrectKey)
		}
		return nil
	}
	keys := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt.Key == "" {
			return errors.New("answer option key cannot be empty")
		}
		if _, dup := keys[opt.Key]; dup {
			return fmt.Errorf("duplicate answer option key %q", opt.Key)
		}
		keys[opt.Key] = struct{}{}
	}
	if _, ok := keys[q.CorrectKey]; !ok {
		return fmt.Errorf("correct key %q does not match any answer option", q.CorrectKey)
	}
	return nil
}

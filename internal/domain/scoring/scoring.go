package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/certready/backend/internal/domain/assessment"
)

// Review is the per-question record included in a Result so the app can
// render an answer review screen.
type Review struct {
	QuestionID    string `json:"question_id"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation,omitempty"`
}

// Result is the outcome of one attempt. Immutable once built.
type Result struct {
	TotalQuestions   int       `json:"total_questions"`
	CorrectCount     int       `json:"correct_count"`
	Percentage       int       `json:"percentage"`
	Passed           bool      `json:"passed"`
	Review           []Review  `json:"review"`
	CompletedAt      time.Time `json:"completed_at,omitzero"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
}

// Score computes the outcome of an attempt. It is pure and deterministic:
// identical input always yields an identical Result, which is what makes
// retrying a failed submission safe.
//
// Correctness is a case-insensitive comparison of answer keys. An
// unanswered question counts as incorrect. threshold <= 0 falls back to
// assessment.DefaultPassThreshold.
func Score(questions []assessment.Question, answers map[string]string, threshold int) Result {
	if threshold <= 0 {
		threshold = assessment.DefaultPassThreshold
	}

	review := make([]Review, 0, len(questions))
	correct := 0
	for _, q := range questions {
		userAnswer := answers[q.ID]
		isCorrect := userAnswer != "" && strings.EqualFold(userAnswer, q.CorrectKey)
		if isCorrect {
			correct++
		}
		review = append(review, Review{
			QuestionID:    q.ID,
			UserAnswer:    userAnswer,
			CorrectAnswer: q.CorrectKey,
			IsCorrect:     isCorrect,
			Explanation:   strings.Join(q.Explanation, "\n"),
		})
	}

	percentage := 0
	if len(questions) > 0 {
		percentage = int(math.Round(float64(correct) / float64(len(questions)) * 100))
	}

	return Result{
		TotalQuestions: len(questions),
		CorrectCount:   correct,
		Percentage:     percentage,
		Passed:         percentage >= threshold,
		Review:         review,
	}
}

package scoring_test

import (
	"reflect"
	"testing"

	"github.com/certready/backend/internal/domain/assessment"
	"github.com/certready/backend/internal/domain/scoring"
)

func threeQuestions() []assessment.Question {
	options := []assessment.AnswerOption{
		{Key: "a", Text: "First"},
		{Key: "b", Text: "Second"},
		{Key: "c", Text: "Third"},
	}
	return []assessment.Question{
		{ID: "1", Prompt: "Q1", Options: options, CorrectKey: "a"},
		{ID: "2", Prompt: "Q2", Options: options, CorrectKey: "b"},
		{ID: "3", Prompt: "Q3", CorrectKey: "true", Explanation: []string{"It is.", "Trust me."}},
	}
}

func TestScore_PartiallyCorrect(t *testing.T) {
	questions := threeQuestions()
	answers := map[string]string{"1": "a", "2": "c"} // question 3 unanswered

	result := scoring.Score(questions, answers, 70)

	if result.CorrectCount != 1 {
		t.Errorf("expected 1 correct, got %d", result.CorrectCount)
	}
	if result.Percentage != 33 {
		t.Errorf("expected percentage 33, got %d", result.Percentage)
	}
	if result.Passed {
		t.Error("expected failed result")
	}

	third := result.Review[2]
	if third.UserAnswer != "" {
		t.Errorf("expected empty user answer for unanswered question, got %q", third.UserAnswer)
	}
	if third.IsCorrect {
		t.Error("expected unanswered question to be marked incorrect")
	}
	if third.Explanation != "It is.\nTrust me." {
		t.Errorf("unexpected explanation: %q", third.Explanation)
	}
}

func TestScore_AllCorrect(t *testing.T) {
	questions := threeQuestions()
	answers := map[string]string{"1": "a", "2": "b", "3": "true"}

	result := scoring.Score(questions, answers, 70)

	if result.Percentage != 100 {
		t.Errorf("expected percentage 100, got %d", result.Percentage)
	}
	if !result.Passed {
		t.Error("expected passed result")
	}
}

func TestScore_CaseInsensitive(t *testing.T) {
	questions := threeQuestions()
	answers := map[string]string{"1": "A", "2": "B", "3": "TRUE"}

	result := scoring.Score(questions, answers, 70)

	if result.CorrectCount != 3 {
		t.Errorf("expected 3 correct with uppercase answers, got %d", result.CorrectCount)
	}
}

func TestScore_Idempotent(t *testing.T) {
	questions := threeQuestions()
	answers := map[string]string{"1": "a", "2": "c"}

	first := scoring.Score(questions, answers, 70)
	second := scoring.Score(questions, answers, 70)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results for identical input:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestScore_NoQuestions(t *testing.T) {
	result := scoring.Score(nil, nil, 70)

	if result.Percentage != 0 {
		t.Errorf("expected percentage 0 for empty question set, got %d", result.Percentage)
	}
	if result.Passed {
		t.Error("expected empty attempt not to pass")
	}
}

func TestScore_DefaultThreshold(t *testing.T) {
	questions := threeQuestions()[:2]
	answers := map[string]string{"1": "a", "2": "b"}

	// threshold 0 falls back to the default of 70
	result := scoring.Score(questions, answers, 0)
	if !result.Passed {
		t.Error("expected 100%% to pass against default threshold")
	}

	result = scoring.Score(questions, map[string]string{"1": "a"}, 0)
	if result.Passed {
		t.Error("expected 50%% to fail against default threshold")
	}
}

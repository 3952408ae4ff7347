package api

import (
	"errors"
	"net/http"

	"github.com/certready/backend/internal/domain/scoring"
	"github.com/certready/backend/internal/domain/session"
	"github.com/certready/backend/internal/service"
	"github.com/certready/backend/internal/store"
)

// ── Request / Response types ────────────────────────────────────────────────

type SessionStateResponse struct {
	AssessmentID     string            `json:"assessment_id"`
	Title            string            `json:"title"`
	Phase            string            `json:"phase" example:"in_progress"`
	CurrentIndex     int               `json:"current_index"`
	AnsweredCount    int               `json:"answered_count"`
	TotalQuestions   int               `json:"total_questions"`
	Answers          map[string]string `json:"answers"`
	RemainingSeconds *int              `json:"remaining_seconds,omitempty"`
	Result           *scoring.Result   `json:"result,omitempty"`
}

type SelectAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer" validate:"required" example:"a"`
}

type NavigateRequest struct {
	Index int `json:"index" validate:"min=0"`
}

type SubmitRequest struct {
	// Confirm acknowledges unanswered questions. Without it a submit with
	// gaps is rejected so the UI can ask the user first.
	Confirm bool `json:"confirm"`
}

func toSessionStateResponse(state service.State) SessionStateResponse {
	return SessionStateResponse{
		AssessmentID:     state.AssessmentID,
		Title:            state.Title,
		Phase:            string(state.Phase),
		CurrentIndex:     state.CurrentIndex,
		AnsweredCount:    state.AnsweredCount,
		TotalQuestions:   state.TotalQuestions,
		Answers:          state.Answers,
		RemainingSeconds: state.RemainingSeconds,
		Result:           state.Result,
	}
}

// handleSessionError maps session and submission errors onto HTTP
// statuses. Returns true if an error was handled.
func (h *Handler) handleSessionError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}

	var saveErr *service.SaveError
	var loadErr *service.LoadError

	switch {
	case errors.Is(err, session.ErrIdentityUnavailable):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "assessment not found")
	case errors.Is(err, service.ErrSessionNotOpen),
		errors.Is(err, session.ErrAlreadyStarted),
		errors.Is(err, session.ErrNotInProgress),
		errors.Is(err, session.ErrNotCompleted),
		errors.Is(err, service.ErrSubmitInFlight):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrUnansweredQuestions):
		respondError(w, http.StatusConflict, "unanswered questions: confirm to submit anyway")
	case errors.As(err, &saveErr):
		h.logger.Error("result save failed", "error", err)
		respondError(w, http.StatusBadGateway, "saving the result failed, try again")
	case errors.As(err, &loadErr):
		h.logger.Error("session load failed", "error", err)
		respondError(w, http.StatusBadGateway, "loading the session failed, try again")
	default:
		respondError(w, http.StatusBadRequest, err.Error())
	}
	return true
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /assessments/{assessmentID}/session
// GET  /assessments/{assessmentID}/session
//
// Opening is idempotent: a fresh session is created, a persisted
// in-progress attempt is resumed, and an already-open session just
// returns its current state. GET and POST share the implementation so
// the app can both "enter" and "refresh" a session with it.
func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Open(r.Context(), r.PathValue("assessmentID"), userID(r))
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, toSessionStateResponse(state))
}

// POST /assessments/{assessmentID}/session/start
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Start(r.Context(), r.PathValue("assessmentID"), userID(r))
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, toSessionStateResponse(state))
}

// POST /assessments/{assessmentID}/session/answers
func (h *Handler) selectAnswer(w http.ResponseWriter, r *http.Request) {
	var req SelectAnswerRequest
	if !h.decodeValidJSON(w, r, &req) {
		return
	}
	state, err := h.sessions.SelectAnswer(r.Context(), r.PathValue("assessmentID"), userID(r), req.QuestionID, req.Answer)
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, toSessionStateResponse(state))
}

// POST /assessments/{assessmentID}/session/navigate
func (h *Handler) navigateSession(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if !h.decodeValidJSON(w, r, &req) {
		return
	}
	state, err := h.sessions.Navigate(r.Context(), r.PathValue("assessmentID"), userID(r), req.Index)
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, toSessionStateResponse(state))
}

// POST /assessments/{assessmentID}/session/submit
func (h *Handler) submitSession(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	state, err := h.sessions.Submit(r.Context(), r.PathValue("assessmentID"), userID(r), req.Confirm)
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, toSessionStateResponse(state))
}

// POST /assessments/{assessmentID}/session/retry
func (h *Handler) retrySession(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Retry(r.Context(), r.PathValue("assessmentID"), userID(r))
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, toSessionStateResponse(state))
}

// DELETE /assessments/{assessmentID}/session
//
// Closes the live session without submitting. The snapshot stays in the
// store, so the attempt can still be resumed later.
func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, session.ErrIdentityUnavailable.Error())
		return
	}
	h.sessions.Teardown(r.PathValue("assessmentID"), uid)
	w.WriteHeader(http.StatusNoContent)
}

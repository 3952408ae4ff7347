package api

import (
	"net/http"

	"github.com/certready/backend/internal/domain/assessment"
)

// ── Request / Response types ────────────────────────────────────────────────

type AnswerOptionPayload struct {
	Key  string `json:"key" validate:"required" example:"a"`
	Text string `json:"text" validate:"required" example:"Object storage"`
}

type QuestionPayload struct {
	Prompt      string                `json:"prompt" validate:"required" example:"Which AWS service stores objects?"`
	Options     []AnswerOptionPayload `json:"options" validate:"dive"`
	CorrectKey  string                `json:"correct_key" validate:"required" example:"a"`
	Explanation []string              `json:"explanation,omitempty"`
}

type CreateAssessmentRequest struct {
	Title           string            `json:"title" validate:"required,max=200" example:"AWS Cloud Practitioner Practice Exam"`
	DurationSeconds *int              `json:"duration_seconds,omitempty" validate:"omitempty,min=1" example:"5400"`
	PassThreshold   int               `json:"pass_threshold" validate:"min=0,max=100" example:"70"`
	Provider        string            `json:"provider,omitempty" example:"aws"`
	Path            string            `json:"path,omitempty" example:"certs/cloud-practitioner"`
	Questions       []QuestionPayload `json:"questions" validate:"dive"`
}

type QuestionResponse struct {
	ID          string                `json:"id"`
	Prompt      string                `json:"prompt"`
	Options     []AnswerOptionPayload `json:"options"`
	CorrectKey  string                `json:"correct_key"`
	Explanation []string              `json:"explanation,omitempty"`
}

type AssessmentResponse struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	DurationSeconds *int               `json:"duration_seconds,omitempty"`
	PassThreshold   int                `json:"pass_threshold"`
	Provider        string             `json:"provider,omitempty"`
	Path            string             `json:"path,omitempty"`
	Questions       []QuestionResponse `json:"questions,omitempty"`
}

func toAssessmentResponse(def *assessment.Definition, includeQuestions bool) AssessmentResponse {
	resp := AssessmentResponse{
		ID:              def.ID,
		Title:           def.Title,
		DurationSeconds: def.DurationSeconds,
		PassThreshold:   def.Threshold(),
		Provider:        def.Provider,
		Path:            def.Path,
	}
	if !includeQuestions {
		return resp
	}
	resp.Questions = make([]QuestionResponse, len(def.Questions))
	for i, q := range def.Questions {
		options := make([]AnswerOptionPayload, len(q.Options))
		for j, opt := range q.Options {
			options[j] = AnswerOptionPayload{Key: opt.Key, Text: opt.Text}
		}
		resp.Questions[i] = QuestionResponse{
			ID:          q.ID,
			Prompt:      q.Prompt,
			Options:     options,
			CorrectKey:  q.CorrectKey,
			Explanation: q.Explanation,
		}
	}
	return resp
}

func toDomainOptions(payload []AnswerOptionPayload) []assessment.AnswerOption {
	if len(payload) == 0 {
		return nil
	}
	options := make([]assessment.AnswerOption, len(payload))
	for i, opt := range payload {
		options[i] = assessment.AnswerOption{Key: opt.Key, Text: opt.Text}
	}
	return options
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /assessments
func (h *Handler) createAssessment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssessmentRequest
	if !h.decodeValidJSON(w, r, &req) {
		return
	}

	def := assessment.New(req.Title, req.DurationSeconds, req.PassThreshold)
	def.Provider = req.Provider
	def.Path = req.Path
	for _, q := range req.Questions {
		if err := def.AddQuestion(q.Prompt, toDomainOptions(q.Options), q.CorrectKey, q.Explanation); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.store.SaveAssessment(r.Context(), def); err != nil {
		h.logger.Error("failed to save assessment", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save assessment")
		return
	}

	respondJSON(w, http.StatusCreated, toAssessmentResponse(def, true))
}

// GET /assessments
func (h *Handler) listAssessments(w http.ResponseWriter, r *http.Request) {
	defs, err := h.store.ListAssessments(r.Context())
	if err != nil {
		h.logger.Error("failed to list assessments", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list assessments")
		return
	}

	responses := make([]AssessmentResponse, 0, len(defs))
	for _, def := range defs {
		responses = append(responses, toAssessmentResponse(def, false))
	}
	respondJSON(w, http.StatusOK, responses)
}

// GET /assessments/{assessmentID}
func (h *Handler) getAssessment(w http.ResponseWriter, r *http.Request) {
	def, err := h.store.GetAssessment(r.Context(), r.PathValue("assessmentID"))
	if h.handleStoreError(w, err, "assessment") {
		return
	}
	respondJSON(w, http.StatusOK, toAssessmentResponse(def, true))
}

// DELETE /assessments/{assessmentID}
func (h *Handler) deleteAssessment(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteAssessment(r.Context(), r.PathValue("assessmentID"))
	if h.handleStoreError(w, err, "assessment") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /assessments/{assessmentID}/questions
func (h *Handler) addQuestion(w http.ResponseWriter, r *http.Request) {
	assessmentID := r.PathValue("assessmentID")

	var req QuestionPayload
	if !h.decodeValidJSON(w, r, &req) {
		return
	}

	// Run the payload through the domain constructor so the correct-key
	// invariant is enforced before anything is stored.
	scratch := assessment.New("scratch", nil, 0)
	if err := scratch.AddQuestion(req.Prompt, toDomainOptions(req.Options), req.CorrectKey, req.Explanation); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	question := scratch.Questions[0]

	if _, err := h.store.GetAssessment(r.Context(), assessmentID); h.handleStoreError(w, err, "assessment") {
		return
	}
	if err := h.store.AddQuestion(r.Context(), assessmentID, question); err != nil {
		h.logger.Error("failed to add question", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to add question")
		return
	}

	respondJSON(w, http.StatusCreated, QuestionResponse{
		ID:          question.ID,
		Prompt:      question.Prompt,
		Options:     req.Options,
		CorrectKey:  question.CorrectKey,
		Explanation: question.Explanation,
	})
}

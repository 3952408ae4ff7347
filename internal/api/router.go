package api

import "net/http"

// RegisterRoutes wires every handler onto the mux using method-aware
// route patterns.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Assessments
	mux.HandleFunc("POST /assessments", h.createAssessment)
	mux.HandleFunc("GET /assessments", h.listAssessments)
	mux.HandleFunc("GET /assessments/{assessmentID}", h.getAssessment)
	mux.HandleFunc("DELETE /assessments/{assessmentID}", h.deleteAssessment)
	mux.HandleFunc("POST /assessments/{assessmentID}/questions", h.addQuestion)

	// Sessions — one live attempt per (assessment, user)
	mux.HandleFunc("GET /assessments/{assessmentID}/session", h.openSession)
	mux.HandleFunc("POST /assessments/{assessmentID}/session", h.openSession)
	mux.HandleFunc("DELETE /assessments/{assessmentID}/session", h.closeSession)
	mux.HandleFunc("POST /assessments/{assessmentID}/session/start", h.startSession)
	mux.HandleFunc("POST /assessments/{assessmentID}/session/answers", h.selectAnswer)
	mux.HandleFunc("POST /assessments/{assessmentID}/session/navigate", h.navigateSession)
	mux.HandleFunc("POST /assessments/{assessmentID}/session/submit", h.submitSession)
	mux.HandleFunc("POST /assessments/{assessmentID}/session/retry", h.retrySession)

	// Results
	mux.HandleFunc("GET /results", h.listResults)
	mux.HandleFunc("GET /results/export", h.exportResults)
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/certready/backend/internal/domain/scoring"
	"github.com/certready/backend/internal/domain/session"
	"github.com/certready/backend/internal/store"
)

// ── Request / Response types ────────────────────────────────────────────────

type ResultResponse struct {
	ID               string           `json:"id"`
	AssessmentID     string           `json:"assessment_id"`
	CorrectCount     int              `json:"correct_count"`
	TotalQuestions   int              `json:"total_questions"`
	Percentage       int              `json:"percentage"`
	Passed           bool             `json:"passed"`
	Review           []scoring.Review `json:"review,omitempty"`
	StartedAt        string           `json:"started_at"`
	CompletedAt      string           `json:"completed_at"`
	TimeSpentSeconds int              `json:"time_spent_seconds"`
}

type ExportResult struct {
	AssessmentID     string            `json:"assessment_id"`
	CorrectCount     int               `json:"correct_count"`
	TotalQuestions   int               `json:"total_questions"`
	Percentage       int               `json:"percentage"`
	Passed           bool              `json:"passed"`
	Answers          map[string]string `json:"answers"`
	CompletedAt      string            `json:"completed_at"`
	TimeSpentSeconds int               `json:"time_spent_seconds"`
}

type ExportData struct {
	Version    string         `json:"version"`
	ExportedAt string         `json:"exported_at"`
	Results    []ExportResult `json:"results"`
}

func toResultResponse(record *store.ResultRecord) ResultResponse {
	return ResultResponse{
		ID:               record.ID,
		AssessmentID:     record.AssessmentID,
		CorrectCount:     record.CorrectCount,
		TotalQuestions:   record.TotalQuestions,
		Percentage:       record.Percentage,
		Passed:           record.Passed,
		Review:           record.Review,
		StartedAt:        record.StartedAt.UTC().Format(time.RFC3339),
		CompletedAt:      record.CompletedAt.UTC().Format(time.RFC3339),
		TimeSpentSeconds: record.TimeSpentSeconds,
	}
}

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /results
func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, session.ErrIdentityUnavailable.Error())
		return
	}

	records, err := h.store.ListResults(r.Context(), uid)
	if err != nil {
		h.logger.Error("failed to list results", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list results")
		return
	}

	responses := make([]ResultResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toResultResponse(record))
	}
	respondJSON(w, http.StatusOK, responses)
}

// GET /results/export
//
// Downloads the caller's full attempt history as a JSON attachment so it
// can be archived or moved to another device.
func (h *Handler) exportResults(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, session.ErrIdentityUnavailable.Error())
		return
	}

	records, err := h.store.ListResults(r.Context(), uid)
	if err != nil {
		h.logger.Error("failed to load results for export", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load results")
		return
	}

	exportData := ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Results:    make([]ExportResult, 0, len(records)),
	}
	for _, record := range records {
		exportData.Results = append(exportData.Results, ExportResult{
			AssessmentID:     record.AssessmentID,
			CorrectCount:     record.CorrectCount,
			TotalQuestions:   record.TotalQuestions,
			Percentage:       record.Percentage,
			Passed:           record.Passed,
			Answers:          record.Answers,
			CompletedAt:      record.CompletedAt.UTC().Format(time.RFC3339),
			TimeSpentSeconds: record.TimeSpentSeconds,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=certready-results.json")
	json.NewEncoder(w).Encode(exportData)
}

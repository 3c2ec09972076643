package handler

import (
	"net/http"

	"figuresmith/internal/domain"
)

type finalReviewRequest struct {
	ImageBase64      string `json:"imageBase64"`
	OriginalTask     string `json:"originalTask"`
	TotalIterations  int    `json:"totalIterations"`
	InterpreterModel string `json:"interpreterModel"`
}

type finalReviewResponse struct {
	Success              bool               `json:"success"`
	Review               string             `json:"review"`
	Scores               map[string]float64 `json:"scores"`
	PublicationReadiness string             `json:"publicationReadiness"`
	Model                string             `json:"model"`
}

// HandleFinalReview scores a final image against the publication rubric.
func (h *Handler) HandleFinalReview(w http.ResponseWriter, r *http.Request) {
	var req finalReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, domain.ErrMissingImage.Error(), "")
		return
	}
	if req.OriginalTask == "" {
		writeError(w, http.StatusBadRequest, domain.ErrMissingTask.Error(), "")
		return
	}

	outcome, err := h.reviewer.Review(r.Context(), req.ImageBase64, req.OriginalTask, req.TotalIterations, req.InterpreterModel)
	if err != nil {
		mapError(w, err, "Failed to generate review")
		return
	}

	writeJSON(w, http.StatusOK, finalReviewResponse{
		Success:              true,
		Review:               outcome.Result.ReviewText,
		Scores:               outcome.Result.Scores,
		PublicationReadiness: outcome.Result.PublicationReadiness,
		Model:                outcome.Result.Model,
	})
}

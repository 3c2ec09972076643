package handler

import (
	"net/http"

	"figuresmith/internal/domain"
	"figuresmith/internal/service"
)

type superviseRequest struct {
	ImageBase64         string               `json:"imageBase64"`
	UserFeedback        string               `json:"userFeedback"`
	ConversationHistory []domain.ChatMessage `json:"conversationHistory"`
	OriginalTask        string               `json:"originalTask"`
	IterationNumber     int                  `json:"iterationNumber"`
	InterpreterModel    string               `json:"interpreterModel"`
}

type superviseResponse struct {
	Success             bool                      `json:"success"`
	PhaseA              *service.InventoryResult  `json:"phaseA"`
	PhaseB              *service.OperationsResult `json:"phaseB"`
	RefinementPrompt    string                    `json:"refinementPrompt"`
	Model               string                    `json:"model"`
	ConversationHistory []domain.ChatMessage      `json:"conversationHistory"`
}

// HandleSupervise runs the two-phase structural analysis on the submitted
// image and returns the refinement prompt for the next synthesis pass.
func (h *Handler) HandleSupervise(w http.ResponseWriter, r *http.Request) {
	var req superviseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, domain.ErrMissingImage.Error(), "")
		return
	}

	res, err := h.supervisor.Supervise(
		r.Context(),
		req.ImageBase64,
		req.UserFeedback,
		domain.WithoutSystem(req.ConversationHistory),
		req.OriginalTask,
		req.IterationNumber,
		req.InterpreterModel,
	)
	if err != nil {
		mapError(w, err, "Failed to analyze image")
		return
	}

	writeJSON(w, http.StatusOK, superviseResponse{
		Success:             true,
		PhaseA:              res.PhaseA,
		PhaseB:              res.PhaseB,
		RefinementPrompt:    res.RefinementPrompt,
		Model:               res.Model,
		ConversationHistory: res.History,
	})
}

package handler

import (
	"net/http"

	"figuresmith/internal/domain"
)

type interpretRequest struct {
	TaskDescription  string `json:"taskDescription"`
	CodeContent      string `json:"codeContent"`
	InterpreterModel string `json:"interpreterModel"`
}

type interpretResponse struct {
	Success             bool                 `json:"success"`
	Prompt              string               `json:"prompt"`
	Model               string               `json:"model"`
	ConversationHistory []domain.ChatMessage `json:"conversationHistory"`
}

// HandleInterpret turns a task description, with optional source code, into a
// detailed image-generation prompt.
func (h *Handler) HandleInterpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.interpreter.Interpret(r.Context(), req.TaskDescription, req.CodeContent, req.InterpreterModel)
	if err != nil {
		mapError(w, err, "Failed to generate prompt")
		return
	}

	writeJSON(w, http.StatusOK, interpretResponse{
		Success:             true,
		Prompt:              res.Prompt,
		Model:               res.Model,
		ConversationHistory: res.History,
	})
}

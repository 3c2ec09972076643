package handler

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	APIKey    string `json:"apiKey"`
}

// HandleHealth reports liveness and whether the provider key is present.
// The key itself is never echoed.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	apiKey := "NOT SET"
	if h.cfg.HasAPIKey() {
		apiKey = "configured"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		APIKey:    apiKey,
	})
}

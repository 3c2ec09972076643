package handler

import (
	"net/http"

	"figuresmith/internal/config"
	"figuresmith/internal/repository"
)

type archiveListResponse struct {
	Success  bool                         `json:"success"`
	Sessions []repository.ArchivedSession `json:"sessions"`
}

// HandleArchiveList lists recently archived sessions. Without a configured
// database the archive is simply empty rather than an error.
func (h *Handler) HandleArchiveList(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeJSON(w, http.StatusOK, archiveListResponse{Success: true, Sessions: []repository.ArchivedSession{}})
		return
	}

	sessions, err := h.archive.ListSessions(r.Context(), config.ArchiveListLimit)
	if err != nil {
		mapError(w, err, "Failed to list archive")
		return
	}
	if sessions == nil {
		sessions = []repository.ArchivedSession{}
	}

	writeJSON(w, http.StatusOK, archiveListResponse{Success: true, Sessions: sessions})
}

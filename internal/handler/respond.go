package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"figuresmith/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform error shape: a short message plus optional
// diagnostic details. Nothing internal is swallowed at the boundary.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}

// mapError translates the domain taxonomy to HTTP: validation 400, missing
// credential a uniform 500, upstream failures relay the provider status,
// everything else 500 with details.
func mapError(w http.ResponseWriter, err error, msg string) {
	var upstream *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrMissingTask),
		errors.Is(err, domain.ErrMissingPrompt),
		errors.Is(err, domain.ErrMissingImage):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrAPIKeyMissing):
		writeError(w, http.StatusInternalServerError, "API key not configured", "")
	case errors.As(err, &upstream):
		writeError(w, upstream.Status, msg, upstream.Body)
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrVersionNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrRequestInFlight):
		writeError(w, http.StatusConflict, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrIterationsExhausted):
		writeError(w, http.StatusConflict, err.Error(), "")
	default:
		writeError(w, http.StatusInternalServerError, msg, err.Error())
	}
}

// decodeBody parses the JSON request body into v. An empty body is accepted
// and leaves v at its zero value; field presence is validated by each handler.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return false
	}
	return true
}

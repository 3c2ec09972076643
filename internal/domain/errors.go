package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingTask         = errors.New("task description is required")
	ErrMissingPrompt       = errors.New("prompt is required")
	ErrMissingImage        = errors.New("image is required")
	ErrAPIKeyMissing       = errors.New("API key not configured")
	ErrNoPromptGenerated   = errors.New("no prompt generated")
	ErrNoReviewGenerated   = errors.New("no review generated")
	ErrNoAnalysisGenerated = errors.New("no analysis generated")
	ErrMalformedInventory  = errors.New("inventory reply is not valid JSON")
	ErrSessionNotFound     = errors.New("session not found")
	ErrRequestInFlight     = errors.New("another request is in flight for this session")
	ErrIterationsExhausted = errors.New("refinement iterations exhausted")
	ErrInvalidState        = errors.New("operation not allowed in current pipeline state")
	ErrVersionNotFound     = errors.New("image version not found")
)

// UpstreamError reports a non-success status from the provider. The body is
// relayed to the caller for diagnostics; no retry is attempted.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
}

// NoImageError marks a well-formed provider reply that contained no image.
// Distinct from UpstreamError: the caller may retry with a different model.
type NoImageError struct {
	// TextReply holds whatever text the model answered with, if any.
	TextReply string
}

func (e *NoImageError) Error() string {
	if e.TextReply == "" {
		return "no image in response"
	}
	return "model returned text instead of an image"
}

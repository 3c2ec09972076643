package handler

import (
	"errors"
	"net/http"

	"figuresmith/internal/config"
	"figuresmith/internal/domain"
)

type generateRequest struct {
	Prompt      string   `json:"prompt"`
	ImageModel  string   `json:"imageModel"`
	Temperature *float64 `json:"temperature"`
}

type generateResponse struct {
	Success      bool   `json:"success"`
	Image        string `json:"image,omitempty"`
	Model        string `json:"model"`
	Error        string `json:"error,omitempty"`
	Details      string `json:"details,omitempty"`
	TextResponse string `json:"textResponse,omitempty"`
}

// HandleGenerateImage synthesizes an image from a prompt. An extraction miss
// is not an HTTP error: the reply is 200 with success:false so the caller can
// inspect it and retry with a different model.
func (h *Handler) HandleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	model := req.ImageModel
	if model == "" {
		model = config.DefaultImageModel
	}
	temperature := config.DefaultImageTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	res, err := h.synthesizer.Generate(r.Context(), req.Prompt, model, temperature)
	if err != nil {
		var noImage *domain.NoImageError
		var upstream *domain.UpstreamError
		switch {
		case errors.As(err, &noImage):
			details := "Could not find image data in the response."
			if noImage.TextReply != "" {
				details = "Model returned text instead of image. This model may not support image generation."
			}
			writeJSON(w, http.StatusOK, generateResponse{
				Success:      false,
				Model:        model,
				Error:        "No image in response",
				Details:      details,
				TextResponse: noImage.TextReply,
			})
		case errors.As(err, &upstream):
			writeJSON(w, upstream.Status, generateResponse{
				Success: false,
				Model:   model,
				Error:   "API request failed",
				Details: upstream.Body,
			})
		default:
			mapError(w, err, "Failed to generate image")
		}
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Success: true,
		Image:   res.Image,
		Model:   res.Model,
	})
}

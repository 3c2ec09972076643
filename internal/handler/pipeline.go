package handler

import (
	"net/http"

	"figuresmith/internal/domain"
	"figuresmith/internal/service"
)

type pipelineStartRequest struct {
	TaskDescription  string   `json:"taskDescription"`
	CodeContent      string   `json:"codeContent"`
	InterpreterModel string   `json:"interpreterModel"`
	ImageModel       string   `json:"imageModel"`
	ImageTemperature *float64 `json:"imageTemperature"`
	MaxIterations    *int     `json:"maxIterations"`
}

type pipelineResponse struct {
	Success bool            `json:"success"`
	Session *domain.Session `json:"session"`
}

// HandlePipelineStart opens a new session and runs interpretation plus the
// first synthesis before responding.
func (h *Handler) HandlePipelineStart(w http.ResponseWriter, r *http.Request) {
	var req pipelineStartRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, err := h.pipeline.Start(r.Context(), service.StartRequest{
		Task:             req.TaskDescription,
		Code:             req.CodeContent,
		InterpreterModel: req.InterpreterModel,
		ImageModel:       req.ImageModel,
		ImageTemperature: req.ImageTemperature,
		MaxIterations:    req.MaxIterations,
	})
	if err != nil {
		mapError(w, err, "Failed to start pipeline")
		return
	}

	writeJSON(w, http.StatusCreated, pipelineResponse{Success: true, Session: s})
}

// HandlePipelineGet returns the current session state.
func (h *Handler) HandlePipelineGet(w http.ResponseWriter, r *http.Request) {
	s, err := h.pipeline.Get(r.PathValue("id"))
	if err != nil {
		mapError(w, err, "Failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, pipelineResponse{Success: true, Session: s})
}

type pipelineFeedbackRequest struct {
	Feedback string `json:"feedback"`
}

type pipelineFeedbackResponse struct {
	Success          bool                      `json:"success"`
	Session          *domain.Session           `json:"session"`
	PhaseA           *service.InventoryResult  `json:"phaseA"`
	PhaseB           *service.OperationsResult `json:"phaseB"`
	RefinementPrompt string                    `json:"refinementPrompt"`
}

// HandlePipelineFeedback runs the two-phase supervision for the current image.
func (h *Handler) HandlePipelineFeedback(w http.ResponseWriter, r *http.Request) {
	var req pipelineFeedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, sup, err := h.pipeline.SubmitFeedback(r.Context(), r.PathValue("id"), req.Feedback)
	if err != nil {
		mapError(w, err, "Failed to analyze image")
		return
	}

	writeJSON(w, http.StatusOK, pipelineFeedbackResponse{
		Success:          true,
		Session:          s,
		PhaseA:           sup.PhaseA,
		PhaseB:           sup.PhaseB,
		RefinementPrompt: sup.RefinementPrompt,
	})
}

type pipelineRefineRequest struct {
	RefinementPrompt string `json:"refinementPrompt"`
}

// HandlePipelineRefine synthesizes the next image version. An empty body
// reuses the prompt proposed by the last supervision step.
func (h *Handler) HandlePipelineRefine(w http.ResponseWriter, r *http.Request) {
	var req pipelineRefineRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, err := h.pipeline.ApplyRefinement(r.Context(), r.PathValue("id"), req.RefinementPrompt)
	if err != nil {
		mapError(w, err, "Failed to refine image")
		return
	}

	writeJSON(w, http.StatusOK, pipelineResponse{Success: true, Session: s})
}

// HandlePipelineSkip abandons remaining refinement cycles.
func (h *Handler) HandlePipelineSkip(w http.ResponseWriter, r *http.Request) {
	s, err := h.pipeline.Skip(r.Context(), r.PathValue("id"))
	if err != nil {
		mapError(w, err, "Failed to skip refinement")
		return
	}

	writeJSON(w, http.StatusOK, pipelineResponse{Success: true, Session: s})
}

type pipelineReviewRequest struct {
	Version     int    `json:"version"`
	ReviewModel string `json:"reviewModel"`
}

type pipelineReviewResponse struct {
	Success bool                 `json:"success"`
	Session *domain.Session      `json:"session"`
	Version int                  `json:"version"`
	Review  *domain.ReviewResult `json:"review"`
}

// HandlePipelineReview scores one gallery version, serving cached reviews
// without a provider round trip.
func (h *Handler) HandlePipelineReview(w http.ResponseWriter, r *http.Request) {
	var req pipelineReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, review, err := h.pipeline.Review(r.Context(), r.PathValue("id"), req.Version, req.ReviewModel)
	if err != nil {
		mapError(w, err, "Failed to generate review")
		return
	}

	writeJSON(w, http.StatusOK, pipelineReviewResponse{
		Success: true,
		Session: s,
		Version: req.Version,
		Review:  review,
	})
}

// HandlePipelineRestart wipes the session back to its initial state.
func (h *Handler) HandlePipelineRestart(w http.ResponseWriter, r *http.Request) {
	s, err := h.pipeline.Restart(r.PathValue("id"))
	if err != nil {
		mapError(w, err, "Failed to restart session")
		return
	}

	writeJSON(w, http.StatusOK, pipelineResponse{Success: true, Session: s})
}

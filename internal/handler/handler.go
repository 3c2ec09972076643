package handler

import (
	"net/http"

	"figuresmith/internal/config"
	"figuresmith/internal/middleware"
	"figuresmith/internal/repository"
	"figuresmith/internal/service"
)

// Handler holds all dependencies needed by the HTTP endpoints.
type Handler struct {
	cfg         *config.Config
	interpreter *service.InterpreterService
	synthesizer *service.SynthesizerService
	supervisor  *service.SupervisorService
	reviewer    *service.ReviewerService
	pipeline    *service.PipelineService
	archive     *repository.ArchiveRepository
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg         *config.Config
	Interpreter *service.InterpreterService
	Synthesizer *service.SynthesizerService
	Supervisor  *service.SupervisorService
	Reviewer    *service.ReviewerService
	Pipeline    *service.PipelineService
	Archive     *repository.ArchiveRepository
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:         deps.Cfg,
		interpreter: deps.Interpreter,
		synthesizer: deps.Synthesizer,
		supervisor:  deps.Supervisor,
		reviewer:    deps.Reviewer,
		pipeline:    deps.Pipeline,
		archive:     deps.Archive,
	}
}

// Routes wires every endpoint behind the recover/logging/CORS chain.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// Stateless endpoints
	mux.HandleFunc("POST /interpret", h.HandleInterpret)
	mux.HandleFunc("POST /generate-image", h.HandleGenerateImage)
	mux.HandleFunc("POST /supervise", h.HandleSupervise)
	mux.HandleFunc("POST /final-review", h.HandleFinalReview)
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Server-side pipeline orchestrator
	mux.HandleFunc("POST /pipeline", h.HandlePipelineStart)
	mux.HandleFunc("GET /pipeline/{id}", h.HandlePipelineGet)
	mux.HandleFunc("POST /pipeline/{id}/feedback", h.HandlePipelineFeedback)
	mux.HandleFunc("POST /pipeline/{id}/refine", h.HandlePipelineRefine)
	mux.HandleFunc("POST /pipeline/{id}/skip", h.HandlePipelineSkip)
	mux.HandleFunc("POST /pipeline/{id}/review", h.HandlePipelineReview)
	mux.HandleFunc("POST /pipeline/{id}/restart", h.HandlePipelineRestart)

	// Figure archive
	mux.HandleFunc("GET /archive", h.HandleArchiveList)

	return middleware.Recover(middleware.Logging(middleware.CORS(mux)))
}

package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"figuresmith/internal/config"
	"figuresmith/internal/domain"
)

// Archiver persists finished sessions. Nil disables archiving.
type Archiver interface {
	SaveSession(ctx context.Context, s *domain.Session) error
	SaveReview(ctx context.Context, sessionID string, version int, r *domain.ReviewResult) error
}

// Notifier reports pipeline milestones out of band. Nil disables it.
type Notifier interface {
	PipelineComplete(s *domain.Session)
	PipelineError(sessionID, step string, err error)
}

// StartRequest carries everything needed to open a pipeline session.
type StartRequest struct {
	Task             string
	Code             string
	InterpreterModel string
	ImageModel       string
	ImageTemperature *float64
	MaxIterations    *int
}

// PipelineService owns all sessions and drives each one through
// interpret -> synthesize -> (supervise -> synthesize)* -> gallery -> review.
// One provider call is outstanding per session at any time, enforced by the
// Busy flag. Live sessions never leave the service: every session a method
// returns is a snapshot, and step mutations happen under the store lock, so a
// concurrent Get during a long provider call reads consistent state.
type PipelineService struct {
	interpreter *InterpreterService
	synthesizer *SynthesizerService
	supervisor  *SupervisorService
	reviewer    *ReviewerService
	archive     Archiver
	notifier    Notifier

	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func NewPipelineService(interpreter *InterpreterService, synthesizer *SynthesizerService, supervisor *SupervisorService, reviewer *ReviewerService, archive Archiver, notifier Notifier) *PipelineService {
	return &PipelineService{
		interpreter: interpreter,
		synthesizer: synthesizer,
		supervisor:  supervisor,
		reviewer:    reviewer,
		archive:     archive,
		notifier:    notifier,
		sessions:    make(map[string]*domain.Session),
	}
}

// Get returns a snapshot of the session, safe to encode while a step runs.
func (p *PipelineService) Get(id string) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// acquire marks the session busy, enforcing the one-outstanding-call rule.
func (p *PipelineService) acquire(id string) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.Busy {
		return nil, domain.ErrRequestInFlight
	}
	s.Busy = true
	return s, nil
}

func (p *PipelineService) release(s *domain.Session) {
	p.mu.Lock()
	s.Busy = false
	p.mu.Unlock()
}

// commit applies one step's mutation under the store lock, so a concurrent
// Get snapshot observes the state before the step or after it, never a
// half-applied one.
func (p *PipelineService) commit(fn func()) {
	p.mu.Lock()
	fn()
	p.mu.Unlock()
}

func (p *PipelineService) snapshot(s *domain.Session) *domain.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return s.Clone()
}

// Start validates the request, creates the session, and runs the first two
// steps (interpret, synthesize v1). On failure the session keeps the state of
// the last completed step so the caller can retry.
func (p *PipelineService) Start(ctx context.Context, req StartRequest) (*domain.Session, error) {
	if strings.TrimSpace(req.Task) == "" {
		return nil, domain.ErrMissingTask
	}

	s := domain.NewSession(uuid.NewString())
	s.Task = req.Task
	s.Code = req.Code
	s.InterpreterModel = defaultIfEmpty(req.InterpreterModel, config.DefaultInterpreterModel)
	s.ImageModel = defaultIfEmpty(req.ImageModel, config.DefaultImageModel)
	s.ImageTemperature = config.DefaultImageTemperature
	if req.ImageTemperature != nil {
		s.ImageTemperature = clamp(*req.ImageTemperature, 0, 1)
	}
	s.MaxIterations = config.DefaultMaxIterations
	if req.MaxIterations != nil && *req.MaxIterations >= 0 {
		s.MaxIterations = min(*req.MaxIterations, config.MaxIterationsLimit)
	}
	s.Busy = true
	s.State = domain.StateInterpreting

	p.mu.Lock()
	p.sessions[s.ID] = s
	p.mu.Unlock()
	defer p.release(s)

	interp, err := p.interpreter.Interpret(ctx, s.Task, s.Code, s.InterpreterModel)
	if err != nil {
		p.commit(func() { s.State = domain.StateIdle })
		p.reportError(s.ID, "interpret", err)
		return p.snapshot(s), err
	}
	p.commit(func() {
		s.GeneratedPrompt = interp.Prompt
		s.History = interp.History
		s.AddUsage(interp.Cost)
		s.State = domain.StateSynthesizing
	})

	if err := p.synthesize(ctx, s, interp.Prompt); err != nil {
		// Prompt survives; the first synthesis can be retried via refine.
		p.commit(func() {
			s.State = domain.StateEditing
			s.RefinementPrompt = interp.Prompt
		})
		p.reportError(s.ID, "generate", err)
		return p.snapshot(s), err
	}

	p.afterSynthesis(ctx, s)
	return p.snapshot(s), nil
}

// SubmitFeedback runs the two-phase supervision for the current image and
// parks the session in Editing with the proposed refinement prompt.
func (p *PipelineService) SubmitFeedback(ctx context.Context, id, feedback string) (*domain.Session, *SupervisionResult, error) {
	s, err := p.acquire(id)
	if err != nil {
		return nil, nil, err
	}
	defer p.release(s)

	if s.State != domain.StateAwaitingFeedback {
		return p.snapshot(s), nil, domain.ErrInvalidState
	}
	if !s.CanRefine() {
		return p.snapshot(s), nil, domain.ErrIterationsExhausted
	}

	p.commit(func() { s.State = domain.StateAnalyzing })
	sup, err := p.supervisor.Supervise(ctx, s.CurrentImage, feedback, s.History, s.Task, s.Iteration+1, s.InterpreterModel)
	if err != nil {
		p.commit(func() { s.State = domain.StateAwaitingFeedback })
		p.reportError(s.ID, "supervise", err)
		return p.snapshot(s), nil, err
	}

	p.commit(func() {
		s.History = sup.History
		s.RefinementPrompt = sup.RefinementPrompt
		s.AddUsage(sup.Cost)
		s.State = domain.StateEditing
	})
	return p.snapshot(s), sup, nil
}

// ApplyRefinement synthesizes the next image version from the possibly
// hand-edited refinement text.
func (p *PipelineService) ApplyRefinement(ctx context.Context, id, refinement string) (*domain.Session, error) {
	s, err := p.acquire(id)
	if err != nil {
		return nil, err
	}
	defer p.release(s)

	if s.State != domain.StateEditing {
		return p.snapshot(s), domain.ErrInvalidState
	}
	if strings.TrimSpace(refinement) == "" {
		refinement = s.RefinementPrompt
	}
	if strings.TrimSpace(refinement) == "" {
		return p.snapshot(s), domain.ErrMissingPrompt
	}

	p.commit(func() { s.State = domain.StateSynthesizing })
	if err := p.synthesize(ctx, s, refinement); err != nil {
		p.commit(func() { s.State = domain.StateEditing })
		p.reportError(s.ID, "generate", err)
		return p.snapshot(s), err
	}

	p.commit(func() { s.RefinementPrompt = refinement })
	p.afterSynthesis(ctx, s)
	return p.snapshot(s), nil
}

// Skip abandons remaining refinement cycles and opens the gallery.
func (p *PipelineService) Skip(ctx context.Context, id string) (*domain.Session, error) {
	s, err := p.acquire(id)
	if err != nil {
		return nil, err
	}
	defer p.release(s)

	switch s.State {
	case domain.StateAwaitingFeedback, domain.StateEditing:
		p.enterGallery(ctx, s)
		return p.snapshot(s), nil
	case domain.StateGalleryReady:
		return p.snapshot(s), nil
	default:
		return p.snapshot(s), domain.ErrInvalidState
	}
}

// Review scores one gallery version. Reviews are cached per version: asking
// again returns the stored result without a provider call. reviewModel only
// applies to a fresh review.
func (p *PipelineService) Review(ctx context.Context, id string, version int, reviewModel string) (*domain.Session, *domain.ReviewResult, error) {
	s, err := p.acquire(id)
	if err != nil {
		return nil, nil, err
	}
	defer p.release(s)

	if s.State != domain.StateGalleryReady {
		return p.snapshot(s), nil, domain.ErrInvalidState
	}

	v, ok := s.Version(version)
	if !ok {
		return p.snapshot(s), nil, domain.ErrVersionNotFound
	}

	if cached, ok := s.CachedReview(version); ok {
		return p.snapshot(s), cached, nil
	}

	p.commit(func() { s.State = domain.StateReviewing })
	outcome, err := p.reviewer.Review(ctx, v.Image, s.Task, len(s.ImageHistory), defaultIfEmpty(reviewModel, s.InterpreterModel))
	if err != nil {
		p.commit(func() { s.State = domain.StateGalleryReady })
		p.reportError(s.ID, "review", err)
		return p.snapshot(s), nil, err
	}

	p.commit(func() {
		s.State = domain.StateGalleryReady
		s.CacheReview(version, outcome.Result)
		s.AddUsage(outcome.Cost)
	})

	if p.archive != nil {
		if err := p.archive.SaveReview(ctx, s.ID, version, outcome.Result); err != nil {
			slog.Error("archive review", "session_id", s.ID, "version", version, "error", err)
		}
	}

	return p.snapshot(s), outcome.Result, nil
}

// Restart resets the session to its initial empty state unconditionally.
func (p *PipelineService) Restart(id string) (*domain.Session, error) {
	s, err := p.acquire(id)
	if err != nil {
		return nil, err
	}
	defer p.release(s)

	p.commit(func() { s.Reset() })
	return p.snapshot(s), nil
}

func (p *PipelineService) synthesize(ctx context.Context, s *domain.Session, prompt string) error {
	gen, err := p.synthesizer.Generate(ctx, prompt, s.ImageModel, s.ImageTemperature)
	if err != nil {
		return err
	}
	var v domain.ImageVersion
	p.commit(func() {
		v = s.AppendVersion(gen.Image, prompt)
		s.AddUsage(gen.Cost)
		// Iteration counts completed refinements. Deriving it from the
		// history keeps a retried first synthesis at iteration zero.
		s.Iteration = len(s.ImageHistory) - 1
	})
	slog.Info("image generated", "session_id", s.ID, "version", v.Version, "model", gen.Model)
	return nil
}

// afterSynthesis routes to the next state: another feedback cycle while the
// iteration budget allows, otherwise straight to the gallery.
func (p *PipelineService) afterSynthesis(ctx context.Context, s *domain.Session) {
	if s.CanRefine() {
		p.commit(func() { s.State = domain.StateAwaitingFeedback })
		return
	}
	p.enterGallery(ctx, s)
}

func (p *PipelineService) enterGallery(ctx context.Context, s *domain.Session) {
	p.commit(func() { s.State = domain.StateGalleryReady })

	if p.archive != nil {
		if err := p.archive.SaveSession(ctx, s); err != nil {
			slog.Error("archive session", "session_id", s.ID, "error", err)
		}
	}
	if p.notifier != nil {
		p.notifier.PipelineComplete(s)
	}
}

func (p *PipelineService) reportError(sessionID, step string, err error) {
	slog.Error("pipeline step failed", "session_id", sessionID, "step", step, "error", err)
	if p.notifier != nil {
		p.notifier.PipelineError(sessionID, step, err)
	}
}

func defaultIfEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

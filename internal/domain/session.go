package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PipelineState names the orchestrator's position in the refinement loop.
type PipelineState string

const (
	StateIdle             PipelineState = "idle"
	StateInterpreting     PipelineState = "interpreting"
	StateSynthesizing     PipelineState = "synthesizing"
	StateAwaitingFeedback PipelineState = "awaiting_feedback"
	StateAnalyzing        PipelineState = "analyzing"
	StateEditing          PipelineState = "editing"
	StateGalleryReady     PipelineState = "gallery_ready"
	StateReviewing        PipelineState = "reviewing"
)

// ImageVersion is one generated image together with the prompt that produced
// it. Immutable once appended; versions are 1-based and gapless.
type ImageVersion struct {
	Version int    `json:"version"`
	Image   string `json:"image"`
	Prompt  string `json:"prompt"`
}

// Session is the orchestrator's complete working state for one figure.
// Mutated only by the pipeline service's step handlers under its store lock;
// other readers work on Clone copies.
type Session struct {
	ID               string                `json:"id"`
	State            PipelineState         `json:"state"`
	Task             string                `json:"taskDescription"`
	Code             string                `json:"codeContent,omitempty"`
	InterpreterModel string                `json:"interpreterModel"`
	ImageModel       string                `json:"imageModel"`
	ImageTemperature float64               `json:"imageTemperature"`
	MaxIterations    int                   `json:"maxIterations"`
	Iteration        int                   `json:"currentIteration"`
	History          []ChatMessage         `json:"conversationHistory"`
	GeneratedPrompt  string                `json:"generatedPrompt,omitempty"`
	RefinementPrompt string                `json:"refinementPrompt,omitempty"`
	CurrentImage     string                `json:"currentImage,omitempty"`
	ImageHistory     []ImageVersion        `json:"imageHistory"`
	Reviews          map[int]*ReviewResult `json:"reviews"`
	UsageCost        decimal.Decimal       `json:"usageCost"`
	CreatedAt        time.Time             `json:"createdAt"`

	// Busy guards the one-outstanding-call rule; checked and set under the
	// session store's lock.
	Busy bool `json:"-"`
}

// NewSession returns a session in its documented initial state.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		State:     StateIdle,
		Reviews:   make(map[int]*ReviewResult),
		UsageCost: decimal.Zero,
		CreatedAt: time.Now(),
	}
}

// Clone returns a copy safe for concurrent readers. Slices and the review map
// are copied; their element values are immutable once stored, so sharing them
// is fine.
func (s *Session) Clone() *Session {
	c := *s
	c.History = append([]ChatMessage(nil), s.History...)
	c.ImageHistory = append([]ImageVersion(nil), s.ImageHistory...)
	c.Reviews = make(map[int]*ReviewResult, len(s.Reviews))
	for v, r := range s.Reviews {
		c.Reviews[v] = r
	}
	return &c
}

// AppendVersion records a newly generated image. The version number is the
// current history length plus one, which keeps versions exactly 1..n.
func (s *Session) AppendVersion(image, prompt string) ImageVersion {
	v := ImageVersion{
		Version: len(s.ImageHistory) + 1,
		Image:   image,
		Prompt:  prompt,
	}
	s.ImageHistory = append(s.ImageHistory, v)
	s.CurrentImage = image
	return v
}

// CanRefine reports whether another feedback/refine cycle is allowed.
// Total images generated never exceed MaxIterations+1.
func (s *Session) CanRefine() bool {
	return len(s.ImageHistory) <= s.MaxIterations
}

// Version returns the stored image version, if present.
func (s *Session) Version(version int) (ImageVersion, bool) {
	if version < 1 || version > len(s.ImageHistory) {
		return ImageVersion{}, false
	}
	return s.ImageHistory[version-1], true
}

// CachedReview returns the stored review for a version, if one exists.
func (s *Session) CachedReview(version int) (*ReviewResult, bool) {
	r, ok := s.Reviews[version]
	return r, ok
}

// CacheReview stores a review keyed by image version.
func (s *Session) CacheReview(version int, r *ReviewResult) {
	s.Reviews[version] = r
}

// AddUsage accumulates provider-reported cost for this session.
func (s *Session) AddUsage(cost decimal.Decimal) {
	s.UsageCost = s.UsageCost.Add(cost)
}

// Reset returns the session to its initial empty state unconditionally,
// discarding all history including cached reviews.
func (s *Session) Reset() {
	id := s.ID
	*s = *NewSession(id)
}

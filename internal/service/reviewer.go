package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"figuresmith/internal/config"
	"figuresmith/internal/domain"
)

const reviewerSystemPrompt = `You are a senior academic reviewer evaluating figures for publication in top-tier venues. You have extremely high standards and provide thorough, constructive evaluations.

Your evaluation should assess the figure against publication standards expected at venues like NeurIPS, ICML, Nature, Science, or similar top-tier publications.`

// Score patterns accept the formats models actually produce: "9/10",
// "**9/10**", "9 / 10", "**9**/10". Each label is scanned independently and
// a missing label simply yields no score. Where a label appears more than
// once, the first match wins.
var scorePatterns = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{domain.ScoreRequirements, regexp.MustCompile(`(?i)Requirements\s*Fulfillment[:\s]*\**(\d+(?:\.\d+)?)\**\s*/\s*10`)},
	{domain.ScoreRigor, regexp.MustCompile(`(?i)Academic\s*Rigor[:\s]*\**(\d+(?:\.\d+)?)\**\s*/\s*10`)},
	{domain.ScoreAccuracy, regexp.MustCompile(`(?i)Accuracy[:\s]*\**(\d+(?:\.\d+)?)\**\s*/\s*10`)},
	{domain.ScoreClarity, regexp.MustCompile(`(?i)Visual\s*Clarity[:\s]*\**(\d+(?:\.\d+)?)\**\s*/\s*10`)},
	{domain.ScoreOverall, regexp.MustCompile(`(?i)Overall\s*Score[:\s]*\**(\d+(?:\.\d+)?)\**\s*/\s*10`)},
}

// ReviewOutcome pairs the extracted review with the call's provider cost.
type ReviewOutcome struct {
	Result *domain.ReviewResult
	Cost   decimal.Decimal
}

// ReviewerService scores a final image against the publication rubric.
type ReviewerService struct {
	gateway Gateway
}

func NewReviewerService(gateway Gateway) *ReviewerService {
	return &ReviewerService{gateway: gateway}
}

func (s *ReviewerService) Review(ctx context.Context, image, originalTask string, totalIterations int, model string) (*ReviewOutcome, error) {
	if image == "" {
		return nil, domain.ErrMissingImage
	}
	if model == "" {
		model = config.DefaultInterpreterModel
	}
	if totalIterations < 1 {
		totalIterations = 1
	}

	userText := buildReviewMessage(originalTask, totalIterations)
	messages := []domain.ChatMessage{
		domain.TextMessage("system", reviewerSystemPrompt),
		domain.MultimodalMessage("user", userText, domain.NormalizeImageData(image)),
	}

	temp := config.ReviewTemperature
	resp, err := s.gateway.Chat(ctx, messages, model, ChatOptions{
		Temperature: &temp,
		MaxTokens:   config.ReviewMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("review: %w", err)
	}

	review := resp.Text()
	if review == "" {
		return nil, domain.ErrNoReviewGenerated
	}

	return &ReviewOutcome{
		Result: &domain.ReviewResult{
			ReviewText:           review,
			Scores:               ExtractScores(review),
			PublicationReadiness: ExtractReadiness(review),
			Model:                model,
		},
		Cost: resp.Cost(),
	}, nil
}

// ExtractScores pulls the per-category scores out of free review text.
// Best-effort: absent labels yield absent keys, never zeros.
func ExtractScores(review string) map[string]float64 {
	scores := make(map[string]float64)
	for _, sp := range scorePatterns {
		if m := sp.pattern.FindStringSubmatch(review); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				scores[sp.key] = v
			}
		}
	}
	return scores
}

// ExtractReadiness maps the review's verdict phrasing to a fixed enum.
// Checked in order ready-as-is, minor, major; first match wins.
func ExtractReadiness(review string) string {
	lower := strings.ToLower(review)
	switch {
	case strings.Contains(lower, "ready for publication as-is"):
		return domain.ReadinessReady
	case strings.Contains(lower, "minor revisions"):
		return domain.ReadinessMinorRevisions
	case strings.Contains(lower, "major revisions"):
		return domain.ReadinessMajorRevisions
	default:
		return domain.ReadinessUnknown
	}
}

func buildReviewMessage(originalTask string, totalIterations int) string {
	return fmt.Sprintf(`**FINAL IMAGE REVIEW**

This is the final version of an academic figure after %d iteration(s) of refinement. Please provide a comprehensive evaluation.

**Original Task:**
%s

Please evaluate this final image based on the following criteria:

## Evaluation Criteria

### 1. Requirements Fulfillment (Does it meet all the user's requirements?)
- Check if all requested components are present
- Verify the figure accurately represents the described concept
- Ensure all specific requests from the original task are addressed

### 2. Academic Rigor and Professionalism
- Is the figure suitable for publication in a top-tier academic venue?
- Does it follow academic conventions for the field?
- Is the visual style professional and consistent?

### 3. Accuracy and Correctness
- Are all labels, text, and terminology correct?
- Are any equations or mathematical notation accurate and complete?
- Are there any spelling errors or inconsistencies?

### 4. Visual Clarity and Reader-Friendliness
- Can a reader understand the figure at a glance?
- Is the visual hierarchy clear?
- Is the color scheme effective and accessible?
- Is the layout well-organized and balanced?

## Output Format

Please provide your evaluation in the following format:

### Overall Assessment
[Brief 2-3 sentence summary]

### Scores (1-10)
- Requirements Fulfillment: X/10
- Academic Rigor: X/10
- Accuracy: X/10
- Visual Clarity: X/10
- **Overall Score: X/10**

### Strengths
[Bullet points of what works well]

### Areas for Improvement
[Bullet points of what could be better]

### Specific Recommendations
[Concrete, actionable suggestions for further improvement if needed]

### Publication Readiness
[State whether the figure is ready for publication as-is, needs minor revisions, or needs major revisions]`, totalIterations, orNotProvided(originalTask))
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"figuresmith/internal/config"
	"figuresmith/internal/domain"
)

const inventorySystemPrompt = `You are a meticulous figure-structure analyst for academic publications. You are given an image of an academic figure. Catalog EVERY visual element you can see into a structured JSON inventory.

Coordinate system: percentages of the image, x from 0 (left) to 100 (right), y from 0 (top) to 100 (bottom).

For each element judge correctness against the original task: spelling, terminology consistency, equation completeness, arrow direction, alignment, color consistency. Mark status "CORRECT" or "NEEDS_FIX". A NEEDS_FIX element MUST list its concrete issues; a CORRECT element must have an empty issues list.

Respond with ONLY a JSON object of this exact shape, no prose before or after:
{
  "coordinate_system": "percent, x 0-100 left to right, y 0-100 top to bottom",
  "blocks": [{"id": "b1", "name": "...", "position": {"x_range": [10, 30], "y_range": [20, 40], "center": [20, 30]}, "style": "...", "content": ["..."], "sub_elements": [], "status": "CORRECT", "issues": []}],
  "connections": [{"id": "c1", "type": "arrow", "from": {"element_id": "b1"}, "to": {"element_id": "b2"}, "style": "...", "label": "...", "status": "CORRECT", "issues": []}],
  "text_elements": [{"id": "t1", "content": "...", "position": {"center": [50, 5]}, "orientation": "horizontal", "style": "...", "status": "CORRECT", "issues": []}],
  "background": "...",
  "summary": {"total_blocks": 0, "total_connections": 0, "total_text_elements": 0, "needs_fix_count": 0}
}`

const operationsSystemPrompt = `You are an expert academic figure supervisor with extremely high standards for publication-quality visuals. You receive a structured inventory of a generated figure's elements (with positions and flagged issues) plus the user's feedback, and you produce refinement instructions for an image generation model.

CRITICAL CONSTRAINT: the image model cannot interpret coordinates or element ids. Your output must be plain natural language that describes elements by their visible appearance and approximate location ("the blue box labeled Encoder in the upper left"), never by id or percentage.

Be PROACTIVE: the user's feedback is often incomplete. Use the inventory's flagged issues AND your own judgment to find every problem, then specify all fixes.

Your reply must contain exactly these four sections:

1. **User Feedback Mapping** — each point of the user's feedback restated as a concrete change to a named visual element
2. **Supervisor-Found Issues** — problems from the inventory and your own inspection that the user did not mention
3. **Itemized Modifications** — the complete numbered list of changes, each stating exactly what the corrected text/label/arrow/color should be
4. **Do Not Change** — an explicit list of everything that is correct and must be preserved exactly as-is

Start the reply with "Refine this academic figure with the following corrections:" and mark critical fixes with a **CRITICAL:** prefix. The reply must be self-contained so the image model can use it directly.`

// InventoryResult is the analysis phase output.
type InventoryResult struct {
	Inventory *domain.Inventory `json:"inventory"`
	Raw       string            `json:"rawResponse"`
}

// OperationsResult is the operation-generation phase output.
type OperationsResult struct {
	Script string `json:"modificationScript"`
	Raw    string `json:"rawResponse"`
}

// SupervisionResult is the combined two-phase outcome. RefinementPrompt is
// the operations text verbatim; no further transformation is applied before
// it reaches the image model.
type SupervisionResult struct {
	RefinementPrompt string
	PhaseA           *InventoryResult
	PhaseB           *OperationsResult
	History          []domain.ChatMessage
	Model            string
	Cost             decimal.Decimal
}

// SupervisorService runs the two-phase structural analysis: first an element
// inventory of the current image, then natural-language refinement operations
// derived from that inventory and the user's feedback. Fail-fast: a failed
// inventory never reaches the operations phase.
type SupervisorService struct {
	gateway Gateway
}

func NewSupervisorService(gateway Gateway) *SupervisorService {
	return &SupervisorService{gateway: gateway}
}

// AnalyzeStructure sends the image for structural inventory. The reply must
// parse as the Inventory JSON shape; three recovery strategies are tried in
// order before the phase fails with ErrMalformedInventory.
func (s *SupervisorService) AnalyzeStructure(ctx context.Context, image, originalTask, model string) (*InventoryResult, decimal.Decimal, error) {
	if image == "" {
		return nil, decimal.Zero, domain.ErrMissingImage
	}

	userText := fmt.Sprintf("Inventory every visual element of this academic figure.\n\n**Original Task:**\n%s", orNotProvided(originalTask))
	messages := []domain.ChatMessage{
		domain.TextMessage("system", inventorySystemPrompt),
		domain.MultimodalMessage("user", userText, domain.NormalizeImageData(image)),
	}

	temp := config.InventoryTemperature
	resp, err := s.gateway.Chat(ctx, messages, model, ChatOptions{
		Temperature: &temp,
		MaxTokens:   config.SupervisorMaxTokens,
	})
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("analyze structure: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, decimal.Zero, domain.ErrNoAnalysisGenerated
	}

	inv, err := ParseInventory(raw)
	if err != nil {
		return nil, resp.Cost(), err
	}
	return &InventoryResult{Inventory: inv, Raw: raw}, resp.Cost(), nil
}

// GenerateOperations turns an inventory plus user feedback into the
// natural-language refinement script. Taking *domain.Inventory keeps the
// phase uncallable without a successful analysis.
func (s *SupervisorService) GenerateOperations(ctx context.Context, inv *domain.Inventory, feedback, originalTask string, iteration int, model string) (*OperationsResult, decimal.Decimal, error) {
	if inv == nil {
		return nil, decimal.Zero, fmt.Errorf("generate operations: nil inventory")
	}
	if iteration < 1 {
		iteration = 1
	}

	serialized, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("serialize inventory: %w", err)
	}

	if feedback == "" {
		feedback = "No specific feedback provided - rely on the inventory's flagged issues and your own analysis."
	}

	userText := fmt.Sprintf(`**Iteration %d - Refinement Request**

**Original Task:**
%s

**Element Inventory (structural analysis of the current image):**
%s

**User Feedback:**
%s

Produce the four required sections and the complete refinement instructions.`,
		iteration, orNotProvided(originalTask), serialized, feedback)

	messages := []domain.ChatMessage{
		domain.TextMessage("system", operationsSystemPrompt),
		domain.TextMessage("user", userText),
	}

	temp := config.OperationsTemperature
	resp, err := s.gateway.Chat(ctx, messages, model, ChatOptions{
		Temperature: &temp,
		MaxTokens:   config.SupervisorMaxTokens,
	})
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("generate operations: %w", err)
	}

	script := resp.Text()
	if script == "" {
		return nil, resp.Cost(), domain.ErrNoAnalysisGenerated
	}

	return &OperationsResult{Script: script, Raw: script}, resp.Cost(), nil
}

// Supervise runs both phases against the current image and appends the
// exchange to the conversation history.
func (s *SupervisorService) Supervise(ctx context.Context, image, feedback string, history []domain.ChatMessage, originalTask string, iteration int, model string) (*SupervisionResult, error) {
	if model == "" {
		model = config.DefaultInterpreterModel
	}

	phaseA, costA, err := s.AnalyzeStructure(ctx, image, originalTask, model)
	if err != nil {
		return nil, err
	}

	phaseB, costB, err := s.GenerateOperations(ctx, phaseA.Inventory, feedback, originalTask, iteration, model)
	if err != nil {
		return nil, err
	}

	updated := append(append([]domain.ChatMessage{}, history...),
		domain.TextMessage("user", fmt.Sprintf("Iteration %d feedback: %s", iteration, feedback)),
		domain.TextMessage("assistant", phaseB.Script),
	)

	return &SupervisionResult{
		RefinementPrompt: phaseB.Script,
		PhaseA:           phaseA,
		PhaseB:           phaseB,
		History:          updated,
		Model:            model,
		Cost:             costA.Add(costB),
	}, nil
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ParseInventory recovers the inventory JSON from a model reply. Strategies
// in order: whole-reply parse, fenced code block, first-{-to-last-} brace
// substring. First strategy that yields valid JSON wins.
func ParseInventory(raw string) (*domain.Inventory, error) {
	candidates := []string{strings.TrimSpace(raw)}

	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}

	if start := strings.Index(raw, "{"); start != -1 {
		if end := strings.LastIndex(raw, "}"); end > start {
			candidates = append(candidates, raw[start:end+1])
		}
	}

	for _, c := range candidates {
		var inv domain.Inventory
		if err := json.Unmarshal([]byte(c), &inv); err != nil {
			continue
		}
		// Valid JSON that carries none of the inventory fields is still a miss.
		if inv.CoordinateSystem == "" && len(inv.Blocks) == 0 &&
			len(inv.Connections) == 0 && len(inv.TextElements) == 0 {
			continue
		}
		inv.Normalize()
		return &inv, nil
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrMalformedInventory, truncate(raw, 200))
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

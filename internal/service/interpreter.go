package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"figuresmith/internal/config"
	"figuresmith/internal/domain"
)

const interpreterSystemPrompt = `You are an expert at creating detailed, professional prompts for academic image generation. Your task is to take a user's high-level description of an academic figure they want to create, and transform it into a comprehensive, detailed prompt that an image generation model can use to create a publication-quality figure.

Your prompts should be:
1. **Rigorous and Professional**: Use precise terminology, proper formatting, and academic standards
2. **Detailed**: Specify exact layouts, components, colors, typography, and visual hierarchies
3. **Structured**: Organize the prompt with clear sections (Layout, Components, Styling, etc.)
4. **Implementation-aware**: If code is provided, extract specific class names, function names, data flows, and relationships to ensure accuracy

Guidelines for the output prompt:
- Describe the overall layout (horizontal/vertical flow, grid structure)
- List each component with exact labels, positions, and connections
- Specify color schemes (use professional academic colors: blues, grays, with accent colors for emphasis)
- Include typography requirements (clean, readable, professional fonts)
- Describe arrows, connections, and data flow directions
- Highlight key innovations or important elements that should stand out
- Request a clean, minimalist style suitable for academic publications
- Specify any mathematical notation or equations that should appear`

// InterpretResult is the generated image prompt plus the conversation that
// produced it, for replay as context in later steps.
type InterpretResult struct {
	Prompt  string
	Model   string
	History []domain.ChatMessage
	Cost    decimal.Decimal
}

// InterpreterService turns a free-text task description, with optional source
// code, into a detailed image-generation prompt.
type InterpreterService struct {
	gateway Gateway
}

func NewInterpreterService(gateway Gateway) *InterpreterService {
	return &InterpreterService{gateway: gateway}
}

func (s *InterpreterService) Interpret(ctx context.Context, task, code, model string) (*InterpretResult, error) {
	if strings.TrimSpace(task) == "" {
		return nil, domain.ErrMissingTask
	}
	if model == "" {
		model = config.DefaultInterpreterModel
	}

	userMessage := buildInterpreterMessage(task, code)
	messages := []domain.ChatMessage{
		domain.TextMessage("system", interpreterSystemPrompt),
		domain.TextMessage("user", userMessage),
	}

	temp := config.InterpreterTemperature
	resp, err := s.gateway.Chat(ctx, messages, model, ChatOptions{
		Temperature: &temp,
		MaxTokens:   config.InterpreterMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("interpret: %w", err)
	}

	prompt := resp.Text()
	if prompt == "" {
		return nil, domain.ErrNoPromptGenerated
	}

	return &InterpretResult{
		Prompt: prompt,
		Model:  model,
		Cost:   resp.Cost(),
		History: []domain.ChatMessage{
			domain.TextMessage("system", interpreterSystemPrompt),
			domain.TextMessage("user", userMessage),
			domain.TextMessage("assistant", prompt),
		},
	}, nil
}

func buildInterpreterMessage(task, code string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please create a detailed image generation prompt for the following academic figure:\n\n**Task Description:**\n%s", task)

	if code != "" {
		fmt.Fprintf(&b, "\n\n**Related Code (for context and accuracy):**\n```\n%s\n```\n\n", code)
		b.WriteString(`Please analyze the code to extract:
- Specific component/class/function names
- Data flow and relationships
- Key algorithms or processes
- Any specific terminology used

Use these details to make the prompt accurate and aligned with the actual implementation.`)
	}

	b.WriteString("\n\nPlease generate a comprehensive, detailed prompt that an image generation model can use to create this figure. The prompt should be self-contained and include all necessary details for creating a professional, publication-ready academic figure.")
	return b.String()
}

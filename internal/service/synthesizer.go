package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"figuresmith/internal/config"
	"figuresmith/internal/domain"
)

// GenerateResult is one synthesized image as a data URI or URL.
type GenerateResult struct {
	Image string
	Model string
	Cost  decimal.Decimal
}

// SynthesizerService turns a prompt into an image via one gateway call.
type SynthesizerService struct {
	gateway Gateway
}

func NewSynthesizerService(gateway Gateway) *SynthesizerService {
	return &SynthesizerService{gateway: gateway}
}

// Generate wraps the prompt with fixed academic styling directives, forwards
// it, and extracts the image from whichever response shape the model used.
// A text-only reply yields *domain.NoImageError, which the caller may treat
// as recoverable (try another model) rather than fatal.
func (s *SynthesizerService) Generate(ctx context.Context, prompt, model string, temperature float64) (*GenerateResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.ErrMissingPrompt
	}
	if model == "" {
		model = config.DefaultImageModel
	}

	enhanced := enhancePrompt(prompt)
	messages := []domain.ChatMessage{
		domain.TextMessage("user", enhanced),
	}

	resp, err := s.gateway.Chat(ctx, messages, model, ChatOptions{Temperature: &temperature})
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}

	image, ok := ExtractImage(resp)
	if !ok {
		return nil, &domain.NoImageError{TextReply: truncate(resp.Text(), 300)}
	}

	return &GenerateResult{Image: image, Model: model, Cost: resp.Cost()}, nil
}

func enhancePrompt(prompt string) string {
	return fmt.Sprintf(`Generate an image: Create a professional academic figure with the following specifications:

%s

Important requirements:
- Use a clean white or very light gray background
- Ensure all text is crisp, readable, and properly spelled
- Use professional academic styling suitable for publication
- Maintain clear visual hierarchy and alignment
- Use consistent color scheme throughout
- Make sure arrows and connections are clear and properly directed`, prompt)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

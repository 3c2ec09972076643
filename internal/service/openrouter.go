package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"figuresmith/internal/config"
	"figuresmith/internal/domain"
)

// Gateway is the single seam to the external inference provider. Every
// pipeline step goes through it, which keeps the services stubbable in tests.
type Gateway interface {
	Chat(ctx context.Context, messages []domain.ChatMessage, model string, opts ChatOptions) (*ChatResponse, error)
}

// ChatOptions carries per-call sampling parameters.
type ChatOptions struct {
	Temperature *float64
	MaxTokens   int
}

type ChatRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature *float64             `json:"temperature,omitempty"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

// ReplyImage is one entry of a message.images array. Different models fill
// different fields, so both shapes are kept.
type ReplyImage struct {
	URL      string `json:"url"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

// ReplyMessage preserves the raw content so callers can read it as either a
// string or a multimodal part list.
type ReplyMessage struct {
	Content json.RawMessage `json:"content"`
	Images  []ReplyImage    `json:"images"`
}

// ContentText returns the message content when it is a plain string.
func (m *ReplyMessage) ContentText() (string, bool) {
	var s string
	if err := json.Unmarshal(m.Content, &s); err != nil {
		return "", false
	}
	return s, true
}

// ContentPart is one entry of an array-valued message content.
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	URL      string `json:"url"`
	Data     string `json:"data"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

// ContentParts returns the message content when it is an array of parts.
func (m *ReplyMessage) ContentParts() ([]ContentPart, bool) {
	var parts []ContentPart
	if err := json.Unmarshal(m.Content, &parts); err != nil {
		return nil, false
	}
	return parts, true
}

type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalCost        float64 `json:"total_cost"`
}

// ChatResponse keeps every response location the extraction contract scans,
// including the alternate top-level fields some models use for images.
type ChatResponse struct {
	Choices []struct {
		Message ReplyMessage `json:"message"`
	} `json:"choices"`
	Image string `json:"image"`
	Data  []struct {
		URL string `json:"url"`
	} `json:"data"`
	Usage Usage `json:"usage"`
}

// Text returns choices[0].message.content as a string, or "" when the reply
// has no choices or a non-string content.
func (r *ChatResponse) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	s, _ := r.Choices[0].Message.ContentText()
	return s
}

// Cost returns the provider-reported total cost of the call.
func (r *ChatResponse) Cost() decimal.Decimal {
	return decimal.NewFromFloat(r.Usage.TotalCost)
}

type OpenRouterService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenRouterService(apiKey, baseURL string) *OpenRouterService {
	return &OpenRouterService{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
	}
}

// Chat forwards one chat-completion request and returns the parsed reply.
// Single attempt: no retry or backoff, the caller owns any retry policy.
func (s *OpenRouterService) Chat(ctx context.Context, messages []domain.ChatMessage, model string, opts ChatOptions) (*ChatResponse, error) {
	if s.apiKey == "" {
		return nil, domain.ErrAPIKeyMissing
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("chat: empty message list")
	}

	chatReq := ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	payload, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("HTTP-Referer", config.RefererHeader)
	req.Header.Set("X-Title", config.TitleHeader)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamError{
			Status: resp.StatusCode,
			Body:   cleanErrorBody(body),
		}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &chatResp, nil
}

// cleanErrorBody reduces an HTML error page (gateway 502s and the like) to
// readable text for UpstreamError diagnostics. JSON and plain-text bodies
// pass through untouched.
func cleanErrorBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "<") {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return text
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if cleaned := strings.TrimSpace(doc.Text()); cleaned != "" {
		return cleaned
	}
	return text
}

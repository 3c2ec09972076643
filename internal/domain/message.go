package domain

import "strings"

// ChatMessage is one role-tagged entry in a provider conversation. Content is
// either a plain string or a list of multimodal parts; ordering across a
// slice of messages is significant and replayed verbatim to the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// TextMessage builds a plain text message.
func TextMessage(role, text string) ChatMessage {
	return ChatMessage{Role: role, Content: text}
}

// MultimodalMessage builds a text-plus-image message in the provider's
// content-parts format.
func MultimodalMessage(role, text, imageURL string) ChatMessage {
	return ChatMessage{
		Role: role,
		Content: []any{
			map[string]any{"type": "text", "text": text},
			map[string]any{
				"type":      "image_url",
				"image_url": map[string]string{"url": imageURL},
			},
		},
	}
}

// WithoutSystem filters system entries out of a history, for callers that
// install their own system prompt before replaying context.
func WithoutSystem(history []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role != "system" {
			out = append(out, m)
		}
	}
	return out
}

// NormalizeImageData accepts raw base64 or an already-prefixed data URI / URL
// and returns something the provider accepts as an image_url.
func NormalizeImageData(image string) string {
	if strings.HasPrefix(image, "data:") ||
		strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return "data:image/png;base64," + image
}

package service

import "strings"

// Image extraction is an ordered priority list, not a preference: different
// models put the image in different places, and the first strategy that
// matches short-circuits the rest.

type imageExtractor func(*ChatResponse) (string, bool)

var imageExtractors = []imageExtractor{
	extractFromImagesURL,
	extractFromImagesAltURL,
	extractFromContentParts,
	extractFromContentString,
	extractFromTopLevel,
}

// ExtractImage scans a provider reply for image data in fixed priority order
// and returns the first match.
func ExtractImage(resp *ChatResponse) (string, bool) {
	for _, extract := range imageExtractors {
		if img, ok := extract(resp); ok {
			return img, true
		}
	}
	return "", false
}

func replyMessage(resp *ChatResponse) *ReplyMessage {
	if len(resp.Choices) == 0 {
		return nil
	}
	return &resp.Choices[0].Message
}

// message.images[0].image_url.url, OpenRouter's shape for image models.
func extractFromImagesURL(resp *ChatResponse) (string, bool) {
	msg := replyMessage(resp)
	if msg == nil || len(msg.Images) == 0 {
		return "", false
	}
	if url := msg.Images[0].ImageURL.URL; url != "" {
		return url, true
	}
	return "", false
}

// message.images[0].url, the flat variant of the same array.
func extractFromImagesAltURL(resp *ChatResponse) (string, bool) {
	msg := replyMessage(resp)
	if msg == nil || len(msg.Images) == 0 {
		return "", false
	}
	if url := msg.Images[0].URL; url != "" {
		return url, true
	}
	return "", false
}

// Array-valued content with an image_url or image part; first match wins.
func extractFromContentParts(resp *ChatResponse) (string, bool) {
	msg := replyMessage(resp)
	if msg == nil {
		return "", false
	}
	parts, ok := msg.ContentParts()
	if !ok {
		return "", false
	}
	for _, part := range parts {
		switch part.Type {
		case "image_url":
			if part.ImageURL.URL != "" {
				return part.ImageURL.URL, true
			}
		case "image":
			if part.URL != "" {
				return part.URL, true
			}
			if part.Data != "" {
				return "data:image/png;base64," + part.Data, true
			}
		}
	}
	return "", false
}

// String content that itself looks like image data.
func extractFromContentString(resp *ChatResponse) (string, bool) {
	msg := replyMessage(resp)
	if msg == nil {
		return "", false
	}
	s, ok := msg.ContentText()
	if !ok {
		return "", false
	}
	if strings.HasPrefix(s, "data:image/") || strings.HasPrefix(s, "http") {
		return s, true
	}
	return "", false
}

// Top-level alternates: data.image, then data.data[0].url.
func extractFromTopLevel(resp *ChatResponse) (string, bool) {
	if resp.Image != "" {
		return resp.Image, true
	}
	if len(resp.Data) > 0 && resp.Data[0].URL != "" {
		return resp.Data[0].URL, true
	}
	return "", false
}

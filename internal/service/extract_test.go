package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractImagePriorityOrder(t *testing.T) {
	// images[0].image_url.url beats every other location, including a content
	// string that would also match.
	resp := parseResponse(t, `{
		"choices": [{"message": {
			"content": "https://content.example.com/lower-priority.png",
			"images": [{"url": "https://flat.example.com/b.png", "image_url": {"url": "https://nested.example.com/a.png"}}]
		}}],
		"image": "https://top.example.com/c.png"
	}`)

	img, ok := ExtractImage(resp)
	require.True(t, ok)
	assert.Equal(t, "https://nested.example.com/a.png", img)
}

func TestExtractImageFlatImagesURL(t *testing.T) {
	resp := parseResponse(t, `{"choices":[{"message":{"content":"","images":[{"url":"https://flat.example.com/b.png"}]}}]}`)

	img, ok := ExtractImage(resp)
	require.True(t, ok)
	assert.Equal(t, "https://flat.example.com/b.png", img)
}

func TestExtractImageFromContentParts(t *testing.T) {
	t.Run("image_url part", func(t *testing.T) {
		resp := parseResponse(t, `{"choices":[{"message":{"content":[{"type":"text","text":"here"},{"type":"image_url","image_url":{"url":"data:image/png;base64,AAA"}}]}}]}`)

		img, ok := ExtractImage(resp)
		require.True(t, ok)
		assert.Equal(t, "data:image/png;base64,AAA", img)
	})

	t.Run("image part with raw data gains a data URI prefix", func(t *testing.T) {
		resp := parseResponse(t, `{"choices":[{"message":{"content":[{"type":"image","data":"BBB"}]}}]}`)

		img, ok := ExtractImage(resp)
		require.True(t, ok)
		assert.Equal(t, "data:image/png;base64,BBB", img)
	})
}

func TestExtractImageFromContentString(t *testing.T) {
	resp := parseResponse(t, `{"choices":[{"message":{"content":"data:image/png;base64,CCC"}}]}`)

	img, ok := ExtractImage(resp)
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,CCC", img)
}

func TestExtractImageTopLevelFallbacks(t *testing.T) {
	t.Run("image field", func(t *testing.T) {
		resp := parseResponse(t, `{"image":"https://top.example.com/c.png"}`)

		img, ok := ExtractImage(resp)
		require.True(t, ok)
		assert.Equal(t, "https://top.example.com/c.png", img)
	})

	t.Run("data array", func(t *testing.T) {
		resp := parseResponse(t, `{"data":[{"url":"https://data.example.com/d.png"}]}`)

		img, ok := ExtractImage(resp)
		require.True(t, ok)
		assert.Equal(t, "https://data.example.com/d.png", img)
	})
}

func TestExtractImageMiss(t *testing.T) {
	t.Run("plain text reply", func(t *testing.T) {
		resp := textResponse(t, "I cannot draw that, but here is a description.")

		_, ok := ExtractImage(resp)
		assert.False(t, ok)
	})

	t.Run("empty response", func(t *testing.T) {
		resp := parseResponse(t, `{}`)

		_, ok := ExtractImage(resp)
		assert.False(t, ok)
	})
}

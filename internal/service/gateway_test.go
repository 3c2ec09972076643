package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"figuresmith/internal/domain"
)

// scriptedGateway replays a fixed sequence of replies and records every call.
type scriptedGateway struct {
	t       *testing.T
	replies []gatewayReply
	calls   []gatewayCall
}

type gatewayReply struct {
	resp *ChatResponse
	err  error
}

type gatewayCall struct {
	messages []domain.ChatMessage
	model    string
	opts     ChatOptions
}

func (g *scriptedGateway) Chat(_ context.Context, messages []domain.ChatMessage, model string, opts ChatOptions) (*ChatResponse, error) {
	g.t.Helper()
	if len(g.calls) >= len(g.replies) {
		g.t.Fatalf("unexpected gateway call %d (model %s)", len(g.calls)+1, model)
	}
	r := g.replies[len(g.calls)]
	g.calls = append(g.calls, gatewayCall{messages: messages, model: model, opts: opts})
	return r.resp, r.err
}

// hookedGateway runs a callback just before delegating, so a test can poke at
// the pipeline while one of its provider calls is in flight.
type hookedGateway struct {
	inner  Gateway
	before func()
}

func (g *hookedGateway) Chat(ctx context.Context, messages []domain.ChatMessage, model string, opts ChatOptions) (*ChatResponse, error) {
	if g.before != nil {
		g.before()
	}
	return g.inner.Chat(ctx, messages, model, opts)
}

// slowGateway delays every call to widen the in-flight window.
type slowGateway struct {
	inner Gateway
	delay time.Duration
}

func (g *slowGateway) Chat(ctx context.Context, messages []domain.ChatMessage, model string, opts ChatOptions) (*ChatResponse, error) {
	time.Sleep(g.delay)
	return g.inner.Chat(ctx, messages, model, opts)
}

func replyWith(resp *ChatResponse) gatewayReply { return gatewayReply{resp: resp} }

func failWith(err error) gatewayReply { return gatewayReply{err: err} }

// parseResponse builds a ChatResponse through the real JSON decoding path.
func parseResponse(t *testing.T, body string) *ChatResponse {
	t.Helper()
	var resp ChatResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return &resp
}

func textResponse(t *testing.T, text string) *ChatResponse {
	t.Helper()
	content, err := json.Marshal(text)
	require.NoError(t, err)
	return parseResponse(t, fmt.Sprintf(`{"choices":[{"message":{"content":%s}}],"usage":{"total_cost":0.01}}`, content))
}

func imageResponse(t *testing.T, url string) *ChatResponse {
	t.Helper()
	return parseResponse(t, fmt.Sprintf(`{"choices":[{"message":{"content":"","images":[{"image_url":{"url":%q}}]}}],"usage":{"total_cost":0.02}}`, url))
}

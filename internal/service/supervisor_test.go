package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figuresmith/internal/domain"
)

const validInventoryJSON = `{
	"coordinate_system": "percent, x 0-100 left to right, y 0-100 top to bottom",
	"blocks": [{"id": "b1", "name": "Encoder", "position": {"center": [25, 50]}, "status": "NEEDS_FIX", "issues": ["label misspelled as Encodr"]}],
	"connections": [{"id": "c1", "type": "arrow", "from": {"element_id": "b1"}, "to": {"element_id": "b2"}, "status": "CORRECT"}],
	"text_elements": [],
	"summary": {"total_blocks": 1, "total_connections": 1, "total_text_elements": 0, "needs_fix_count": 1}
}`

func TestParseInventoryDirectJSON(t *testing.T) {
	inv, err := ParseInventory(validInventoryJSON)
	require.NoError(t, err)

	assert.Len(t, inv.Blocks, 1)
	assert.Equal(t, domain.StatusNeedsFix, inv.Blocks[0].Status)
	assert.Equal(t, 1, inv.NeedsFixCount())
}

func TestParseInventoryFencedBlock(t *testing.T) {
	raw := "Here is the inventory you asked for:\n```json\n" + validInventoryJSON + "\n```\nLet me know if you need anything else."

	inv, err := ParseInventory(raw)
	require.NoError(t, err)
	assert.Len(t, inv.Blocks, 1)
}

func TestParseInventoryBraceSubstring(t *testing.T) {
	raw := "Sure! " + validInventoryJSON + " Hope that helps."

	inv, err := ParseInventory(raw)
	require.NoError(t, err)
	assert.Len(t, inv.Connections, 1)
}

func TestParseInventoryRejectsGarbage(t *testing.T) {
	t.Run("no JSON at all", func(t *testing.T) {
		_, err := ParseInventory("I looked at the image and it seems fine to me.")
		assert.ErrorIs(t, err, domain.ErrMalformedInventory)
	})

	t.Run("valid JSON without inventory fields", func(t *testing.T) {
		_, err := ParseInventory(`{"foo": 1, "bar": "baz"}`)
		assert.ErrorIs(t, err, domain.ErrMalformedInventory)
	})
}

func TestParseInventoryNormalizesStatuses(t *testing.T) {
	raw := `{"coordinate_system": "percent", "blocks": [{"id": "b1", "status": "CORRECT", "issues": ["actually wrong"]}]}`

	inv, err := ParseInventory(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNeedsFix, inv.Blocks[0].Status)
	assert.Equal(t, 1, inv.Summary.NeedsFix)
}

func TestAnalyzeStructureRequiresImage(t *testing.T) {
	svc := NewSupervisorService(&scriptedGateway{t: t})

	_, _, err := svc.AnalyzeStructure(context.Background(), "", "task", "m")
	assert.ErrorIs(t, err, domain.ErrMissingImage)
}

func TestGenerateOperationsRequiresInventory(t *testing.T) {
	svc := NewSupervisorService(&scriptedGateway{t: t})

	_, _, err := svc.GenerateOperations(context.Background(), nil, "feedback", "task", 1, "m")
	assert.Error(t, err)
}

func TestSuperviseRunsBothPhases(t *testing.T) {
	script := "Refine this academic figure with the following corrections:\n1. Fix the Encoder label."
	gw := &scriptedGateway{t: t, replies: []gatewayReply{
		replyWith(textResponse(t, validInventoryJSON)),
		replyWith(textResponse(t, script)),
	}}
	svc := NewSupervisorService(gw)

	history := []domain.ChatMessage{domain.TextMessage("user", "earlier context")}
	res, err := svc.Supervise(context.Background(), "base64data", "fix the typo", history, "a transformer figure", 1, "some/model")
	require.NoError(t, err)

	assert.Equal(t, script, res.RefinementPrompt)
	assert.Equal(t, script, res.PhaseB.Script)
	require.NotNil(t, res.PhaseA.Inventory)
	assert.Len(t, res.PhaseA.Inventory.Blocks, 1)
	assert.Equal(t, "some/model", res.Model)

	// The history grows by exactly the new user/assistant exchange.
	require.Len(t, res.History, 3)
	assert.Equal(t, "assistant", res.History[2].Role)
	assert.Equal(t, script, res.History[2].Content)

	// The operations call carries the serialized inventory, not the image.
	require.Len(t, gw.calls, 2)
	opsUser, ok := gw.calls[1].messages[1].Content.(string)
	require.True(t, ok)
	assert.Contains(t, opsUser, "Encoder")
	assert.Contains(t, opsUser, "fix the typo")
}

func TestSuperviseFailFast(t *testing.T) {
	t.Run("malformed inventory stops before phase two", func(t *testing.T) {
		gw := &scriptedGateway{t: t, replies: []gatewayReply{
			replyWith(textResponse(t, "not json at all")),
		}}
		svc := NewSupervisorService(gw)

		_, err := svc.Supervise(context.Background(), "img", "fb", nil, "task", 1, "m")
		assert.ErrorIs(t, err, domain.ErrMalformedInventory)
		assert.Len(t, gw.calls, 1)
	})

	t.Run("gateway error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		gw := &scriptedGateway{t: t, replies: []gatewayReply{failWith(boom)}}
		svc := NewSupervisorService(gw)

		_, err := svc.Supervise(context.Background(), "img", "fb", nil, "task", 1, "m")
		assert.ErrorIs(t, err, boom)
	})
}

func TestSuperviseEmptyFeedbackStillWorks(t *testing.T) {
	gw := &scriptedGateway{t: t, replies: []gatewayReply{
		replyWith(textResponse(t, validInventoryJSON)),
		replyWith(textResponse(t, "Refine this academic figure with the following corrections: fix b1.")),
	}}
	svc := NewSupervisorService(gw)

	_, err := svc.Supervise(context.Background(), "img", "", nil, "task", 1, "m")
	require.NoError(t, err)

	opsUser, ok := gw.calls[1].messages[1].Content.(string)
	require.True(t, ok)
	assert.Contains(t, opsUser, "No specific feedback provided")
}

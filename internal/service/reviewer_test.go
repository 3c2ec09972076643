package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figuresmith/internal/domain"
)

func TestExtractScoresFormats(t *testing.T) {
	review := `### Scores (1-10)
- Requirements Fulfillment: 9/10
- Academic Rigor: **8/10**
- Accuracy: 7 / 10
- Visual Clarity: **6**/10
- **Overall Score: 7.5/10**`

	scores := ExtractScores(review)

	assert.Equal(t, 9.0, scores[domain.ScoreRequirements])
	assert.Equal(t, 8.0, scores[domain.ScoreRigor])
	assert.Equal(t, 7.0, scores[domain.ScoreAccuracy])
	assert.Equal(t, 6.0, scores[domain.ScoreClarity])
	assert.Equal(t, 7.5, scores[domain.ScoreOverall])
}

func TestExtractScoresAbsentLabelsYieldAbsentKeys(t *testing.T) {
	scores := ExtractScores("Overall Score: 8/10. The rest of the rubric was skipped.")

	assert.Equal(t, 8.0, scores[domain.ScoreOverall])
	_, ok := scores[domain.ScoreAccuracy]
	assert.False(t, ok)
	assert.Len(t, scores, 1)
}

func TestExtractScoresFirstMatchWins(t *testing.T) {
	review := "Overall Score: 6/10\nRevised thoughts... Overall Score: 9/10"

	scores := ExtractScores(review)
	assert.Equal(t, 6.0, scores[domain.ScoreOverall])
}

func TestExtractScoresCaseInsensitive(t *testing.T) {
	scores := ExtractScores("overall score: 5/10")
	assert.Equal(t, 5.0, scores[domain.ScoreOverall])
}

func TestExtractReadiness(t *testing.T) {
	cases := []struct {
		name   string
		review string
		want   string
	}{
		{"ready", "The figure is ready for publication as-is.", domain.ReadinessReady},
		{"minor", "This needs minor revisions before submission.", domain.ReadinessMinorRevisions},
		{"major", "Unfortunately it needs major revisions.", domain.ReadinessMajorRevisions},
		{"ready beats minor when both appear", "Ready for publication as-is, though one could argue for minor revisions.", domain.ReadinessReady},
		{"no verdict", "A thorough essay with no verdict at all.", domain.ReadinessUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractReadiness(tc.review))
		})
	}
}

func TestReviewRequiresImage(t *testing.T) {
	svc := NewReviewerService(&scriptedGateway{t: t})

	_, err := svc.Review(context.Background(), "", "task", 1, "m")
	assert.ErrorIs(t, err, domain.ErrMissingImage)
}

func TestReviewExtractsStructuredResult(t *testing.T) {
	reviewText := `### Overall Assessment
Solid figure.

### Scores (1-10)
- Requirements Fulfillment: 9/10
- **Overall Score: 8/10**

### Publication Readiness
Needs minor revisions.`

	gw := &scriptedGateway{t: t, replies: []gatewayReply{
		replyWith(textResponse(t, reviewText)),
	}}
	svc := NewReviewerService(gw)

	outcome, err := svc.Review(context.Background(), "imgdata", "a figure", 3, "some/model")
	require.NoError(t, err)

	assert.Equal(t, reviewText, outcome.Result.ReviewText)
	assert.Equal(t, 8.0, outcome.Result.Scores[domain.ScoreOverall])
	assert.Equal(t, domain.ReadinessMinorRevisions, outcome.Result.PublicationReadiness)
	assert.Equal(t, "some/model", outcome.Result.Model)
	assert.True(t, outcome.Cost.IsPositive())

	// The iteration count reaches the rubric message.
	user := gw.calls[0].messages[1].Content.([]any)
	text := user[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "after 3 iteration(s)")
}

func TestReviewEmptyReply(t *testing.T) {
	gw := &scriptedGateway{t: t, replies: []gatewayReply{
		replyWith(textResponse(t, "")),
	}}
	svc := NewReviewerService(gw)

	_, err := svc.Review(context.Background(), "imgdata", "task", 1, "m")
	assert.ErrorIs(t, err, domain.ErrNoReviewGenerated)
}

package domain

// Publication readiness verdicts extracted from a review.
const (
	ReadinessReady          = "ready"
	ReadinessMinorRevisions = "minor_revisions"
	ReadinessMajorRevisions = "major_revisions"
	ReadinessUnknown        = "unknown"
)

// Score category keys. A key is absent from a Scores map when the reviewer's
// text contained no matching pattern; absence is not an error.
const (
	ScoreRequirements = "requirements"
	ScoreRigor        = "rigor"
	ScoreAccuracy     = "accuracy"
	ScoreClarity      = "clarity"
	ScoreOverall      = "overall"
)

// ReviewResult is the best-effort structured extraction from a free-text
// rubric review.
type ReviewResult struct {
	ReviewText           string             `json:"review"`
	Scores               map[string]float64 `json:"scores"`
	PublicationReadiness string             `json:"publicationReadiness"`
	Model                string             `json:"model"`
}

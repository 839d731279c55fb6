package workshop

import (
	"time"

	"github.com/google/uuid"
)

// MaxScore is the upper bound of a topic's total score.
const MaxScore = 10

// NewID returns a random identifier for questions, action items and records.
func NewID() string {
	return uuid.NewString()
}

// SaveRequest is the body of POST /api/workshops. Every field is optional;
// Record fills the gaps.
type SaveRequest struct {
	TopicTitle        string      `json:"topicTitle"`
	TopicBackground   string      `json:"topicBackground"`
	TopicPainPoints   string      `json:"topicPainPoints"`
	TopicTriedActions string      `json:"topicTriedActions"`
	TotalScore        int         `json:"totalScore"`
	GoldenQuestions   []string    `json:"goldenQuestions"`
	Participants      []string    `json:"participants"`
	Reflections       string      `json:"reflections"`
	ActionPlan        []PlanEntry `json:"actionPlan"`
	SummaryReport     string      `json:"summaryReport"`
}

// Record normalizes the request into a persistable record completed at now.
// Nil lists become empty lists and the score is clamped to [0, MaxScore].
// ID and CreatedAt are left for the storage driver.
func (r SaveRequest) Record(now time.Time) *Record {
	completed := now.UTC()

	return &Record{
		TopicTitle:        r.TopicTitle,
		TopicBackground:   r.TopicBackground,
		TopicPainPoints:   r.TopicPainPoints,
		TopicTriedActions: r.TopicTriedActions,
		TotalScore:        clampScore(r.TotalScore),
		GoldenQuestions:   nonNil(r.GoldenQuestions),
		Participants:      nonNil(r.Participants),
		Reflections:       r.Reflections,
		ActionPlan:        nonNil(r.ActionPlan),
		SummaryReport:     r.SummaryReport,
		CompletedAt:       &completed,
	}
}

// Record is a persisted workshop row.
type Record struct {
	ID                string      `json:"id"`
	TopicTitle        string      `json:"topic_title"`
	TopicBackground   string      `json:"topic_background"`
	TopicPainPoints   string      `json:"topic_pain_points"`
	TopicTriedActions string      `json:"topic_tried_actions"`
	TotalScore        int         `json:"total_score"`
	GoldenQuestions   []string    `json:"golden_questions"`
	Participants      []string    `json:"participants"`
	Reflections       string      `json:"reflections"`
	ActionPlan        []PlanEntry `json:"action_plan"`
	SummaryReport     string      `json:"summary_report"`
	CreatedAt         time.Time   `json:"created_at"`
	CompletedAt       *time.Time  `json:"completed_at"`
}

// Summary is the projection of a record returned by the history listing.
type Summary struct {
	ID            string     `json:"id"`
	TopicTitle    string     `json:"topic_title"`
	TotalScore    int        `json:"total_score"`
	Participants  []string   `json:"participants"`
	SummaryReport string     `json:"summary_report"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// Summary projects r into its listing row.
func (r *Record) Summary() Summary {
	return Summary{
		ID:            r.ID,
		TopicTitle:    r.TopicTitle,
		TotalScore:    r.TotalScore,
		Participants:  r.Participants,
		SummaryReport: r.SummaryReport,
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
	}
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Package eventstream defines the events catalyst emits after persisting a
// workshop, and the publishers that carry them.
package eventstream

import (
	"time"

	"github.com/papercomputeco/catalyst/pkg/workshop"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeWorkshopSaved is emitted after a workshop is persisted.
	EventTypeWorkshopSaved = "catalyst.workshop.saved"
)

// WorkshopSavedEvent is a transport-neutral event payload for a saved workshop.
type WorkshopSavedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	Workshop      WorkshopMeta `json:"workshop"`
}

// EventSource identifies the server that persisted the workshop.
type EventSource struct {
	Service  string `json:"service"`
	Provider string `json:"provider,omitempty"`
}

// WorkshopMeta summarizes the saved workshop. The summary report itself is
// not carried.
type WorkshopMeta struct {
	ID                  string     `json:"id"`
	TopicTitle          string     `json:"topic_title"`
	TotalScore          int        `json:"total_score"`
	Participants        []string   `json:"participants"`
	GoldenQuestionCount int        `json:"golden_question_count"`
	ActionItemCount     int        `json:"action_item_count"`
	CreatedAt           time.Time  `json:"created_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

// NewWorkshopSavedEvent builds the event for rec emitted at now.
func NewWorkshopSavedEvent(rec *workshop.Record, source EventSource, now time.Time) *WorkshopSavedEvent {
	return &WorkshopSavedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeWorkshopSaved,
		EventID:       workshop.NewID(),
		EmittedAt:     now.UTC(),
		Source:        source,
		Workshop: WorkshopMeta{
			ID:                  rec.ID,
			TopicTitle:          rec.TopicTitle,
			TotalScore:          rec.TotalScore,
			Participants:        rec.Participants,
			GoldenQuestionCount: len(rec.GoldenQuestions),
			ActionItemCount:     len(rec.ActionPlan),
			CreatedAt:           rec.CreatedAt,
			CompletedAt:         rec.CompletedAt,
		},
	}
}

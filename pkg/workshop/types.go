// Package workshop holds the facilitation workshop domain: the topic under
// discussion, AI evaluations of it, the 5F question pool and the action plan.
package workshop

// Topic is the problem statement a workshop is run against.
type Topic struct {
	Title        string `json:"title"`
	Background   string `json:"background"`
	PainPoints   string `json:"painPoints"`
	TriedActions string `json:"triedActions"`
}

// Context returns the short topic description sent along with question
// classification requests.
func (t Topic) Context() string {
	return t.Title
}

// ShadowContext returns the topic description sent with blind-spot detection
// requests.
func (t Topic) ShadowContext() string {
	return t.Title + " " + t.PainPoints
}

// TopicEvaluation is the structured result of the topic evaluation stream.
type TopicEvaluation struct {
	TotalScore  int            `json:"totalScore"`
	Dimensions  EvalDimensions `json:"dimensions"`
	Suggestions []string       `json:"suggestions"`
	Examples    []ExampleTopic `json:"examples"`
}

// EvalDimensions scores a topic on six axes, each 1-10.
type EvalDimensions struct {
	Focus           int `json:"focus"`
	ResultOriented  int `json:"resultOriented"`
	SingleIssue     int `json:"singleIssue"`
	Uncertainty     int `json:"uncertainty"`
	Controllability int `json:"controllability"`
	Learning        int `json:"learning"`
}

// ExampleTopic is a rewritten topic suggested by the evaluator.
type ExampleTopic struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PreMortem is the structured result of the risk pre-analysis stream.
type PreMortem struct {
	Warning     string   `json:"warning"`
	RiskFactors []string `json:"riskFactors"`
	FocusAreas  []string `json:"focusAreas"`
}

// Classification is the response of the question classification call.
// IsClosed and Suggestion are advisory and not used by the session.
type Classification struct {
	Category      Category `json:"category"`
	CategoryLabel string   `json:"categoryLabel"`
	IsClosed      bool     `json:"isClosed,omitempty"`
	Suggestion    *string  `json:"suggestion,omitempty"`
}

// DefaultClassification is recorded whenever classification fails.
func DefaultClassification() Classification {
	return Classification{
		Category:      Fact,
		CategoryLabel: Fact.Label(),
	}
}

// Normalize replaces an unknown category with fact and fills an empty label
// from the category.
func (c Classification) Normalize() Classification {
	if !c.Category.Valid() {
		c.Category = Fact
		c.CategoryLabel = ""
	}
	if c.CategoryLabel == "" {
		c.CategoryLabel = c.Category.Label()
	}
	return c
}

// ShadowQuestion is an AI suggested question that fills a 5F gap.
type ShadowQuestion struct {
	Text          string   `json:"text"`
	Category      Category `json:"category"`
	CategoryLabel string   `json:"categoryLabel"`
}

// ShadowQuestions is the response of the blind-spot detection call.
type ShadowQuestions struct {
	MissingAlert string           `json:"missingAlert"`
	Questions    []ShadowQuestion `json:"questions"`
}

// Question is one entry of the brainstorming pool.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Author        string   `json:"author"`
	Category      Category `json:"category"`
	CategoryLabel string   `json:"categoryLabel"`
	IsGolden      bool     `json:"isGolden"`
	IsShadow      bool     `json:"isShadow"`

	// Adopted is nil until a participant decides; only an explicit false
	// removes the question from the radar tally.
	Adopted *bool `json:"adopted"`
}

// ActionItem is one row of the action plan.
type ActionItem struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Action   string `json:"action"`
	Deadline string `json:"deadline"`
}

// PlanEntry is an action item without its session-local ID, as persisted.
type PlanEntry struct {
	Owner    string `json:"owner"`
	Action   string `json:"action"`
	Deadline string `json:"deadline"`
}

// SummaryRequest is the body of the summary generation stream.
type SummaryRequest struct {
	Topic           Topic        `json:"topic"`
	GoldenQuestions []string     `json:"goldenQuestions"`
	Reflections     string       `json:"reflections"`
	ActionPlan      []ActionItem `json:"actionPlan"`
}

// PreMortemRequest is the body of the risk pre-analysis stream.
type PreMortemRequest struct {
	Topic Topic `json:"topic"`
}

// ClassifyRequest is the body of the question classification call.
type ClassifyRequest struct {
	Question     string `json:"question"`
	TopicContext string `json:"topicContext"`
}

// ShadowRequest is the body of the blind-spot detection call. A nil
// RadarData reports no missing dimensions.
type ShadowRequest struct {
	TopicContext      string     `json:"topicContext"`
	RadarData         *RadarData `json:"radarData"`
	ExistingQuestions []string   `json:"existingQuestions"`
}

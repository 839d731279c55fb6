package workshop

import (
	"errors"
	"fmt"
	"sync"
)

// Stage is one of the four workshop stages.
type Stage int

const (
	StageTopic Stage = iota + 1
	StageBrainstorm
	StageReflection
	StageAction
)

// FinalStage is the last workshop stage.
const FinalStage = StageAction

// AIAuthor is the author recorded on shadow questions. It never counts as a
// participant.
const AIAuthor = "AI"

var stageNames = map[Stage]string{
	StageTopic:      "topic",
	StageBrainstorm: "brainstorm",
	StageReflection: "reflection",
	StageAction:     "action",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Valid reports whether s is one of the four stages.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

var (
	// ErrQuestionNotFound is returned by commands addressing an unknown question.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrActionItemNotFound is returned by commands addressing an unknown action item.
	ErrActionItemNotFound = errors.New("action item not found")

	// ErrInvalidStage is returned when moving to a stage outside 1-4.
	ErrInvalidStage = errors.New("invalid stage")

	// ErrEmptyQuestion is returned when adding a question with no text.
	ErrEmptyQuestion = errors.New("empty question")
)

// State is a point-in-time copy of a session.
type State struct {
	Stage         Stage            `json:"stage"`
	Topic         Topic            `json:"topic"`
	Evaluation    *TopicEvaluation `json:"evaluation,omitempty"`
	PreMortem     *PreMortem       `json:"preMortem,omitempty"`
	Questions     []Question       `json:"questions"`
	Reflections   string           `json:"reflections"`
	ActionPlan    []ActionItem     `json:"actionPlan"`
	SummaryReport string           `json:"summaryReport"`
}

// Session is the in-memory store of one workshop. All state changes go
// through its commands; derived values such as the radar are computed from
// the question pool on read. A Session is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	state State
}

// NewSession returns an empty session at the topic stage.
func NewSession() *Session {
	return &Session{state: emptyState()}
}

func emptyState() State {
	return State{
		Stage:      StageTopic,
		Questions:  []Question{},
		ActionPlan: []ActionItem{},
	}
}

// Stage returns the current stage.
func (s *Session) Stage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Stage
}

// SetStage moves the session to stage.
func (s *Session) SetStage(stage Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStage, int(stage))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Stage = stage
	return nil
}

// Advance moves to the next stage and reports whether it did. It is a no-op
// at the final stage.
func (s *Session) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Stage >= FinalStage {
		return false
	}
	s.state.Stage++
	return true
}

// Topic returns the topic.
func (s *Session) Topic() Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Topic
}

// SetTopic replaces the topic. Any evaluation of the previous topic is
// discarded.
func (s *Session) SetTopic(t Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Topic = t
	s.state.Evaluation = nil
	s.state.PreMortem = nil
}

// SetEvaluation records the topic evaluation.
func (s *Session) SetEvaluation(e TopicEvaluation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Evaluation = &e
}

// Evaluation returns the topic evaluation, if one was recorded.
func (s *Session) Evaluation() (TopicEvaluation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Evaluation == nil {
		return TopicEvaluation{}, false
	}
	return *s.state.Evaluation, true
}

// SetPreMortem records the risk pre-analysis.
func (s *Session) SetPreMortem(p PreMortem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PreMortem = &p
}

// PreMortem returns the risk pre-analysis, if one was recorded.
func (s *Session) PreMortem() (PreMortem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.PreMortem == nil {
		return PreMortem{}, false
	}
	return *s.state.PreMortem, true
}

// AddQuestion appends a participant question with its classification and
// returns the stored copy.
func (s *Session) AddQuestion(text, author string, c Classification) (Question, error) {
	if text == "" {
		return Question{}, ErrEmptyQuestion
	}
	c = c.Normalize()

	q := Question{
		ID:            NewID(),
		Text:          text,
		Author:        author,
		Category:      c.Category,
		CategoryLabel: c.CategoryLabel,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Questions = append(s.state.Questions, q)
	return q, nil
}

// AddShadowQuestion appends an AI suggested question. It counts toward the
// radar until explicitly rejected.
func (s *Session) AddShadowQuestion(sq ShadowQuestion) Question {
	label := sq.CategoryLabel
	if label == "" {
		label = sq.Category.Label()
	}

	q := Question{
		ID:            NewID(),
		Text:          sq.Text,
		Author:        AIAuthor,
		Category:      sq.Category,
		CategoryLabel: label,
		IsShadow:      true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Questions = append(s.state.Questions, q)
	return q
}

// QuestionUpdate is a partial update of a question. Nil fields are left
// unchanged.
type QuestionUpdate struct {
	Text     *string
	Category *Category
	Adopted  *bool
	IsGolden *bool
}

// UpdateQuestion applies u to the question with the given id.
func (s *Session) UpdateQuestion(id string, u QuestionUpdate) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.questionIndex(id)
	if i < 0 {
		return Question{}, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}

	q := &s.state.Questions[i]
	if u.Text != nil {
		q.Text = *u.Text
	}
	if u.Category != nil {
		q.Category = *u.Category
		q.CategoryLabel = u.Category.Label()
	}
	if u.Adopted != nil {
		adopted := *u.Adopted
		q.Adopted = &adopted
	}
	if u.IsGolden != nil {
		q.IsGolden = *u.IsGolden
	}
	return *q, nil
}

// Adopt marks a question as adopted.
func (s *Session) Adopt(id string) error {
	adopted := true
	_, err := s.UpdateQuestion(id, QuestionUpdate{Adopted: &adopted})
	return err
}

// Reject marks a question as rejected, removing it from the radar.
func (s *Session) Reject(id string) error {
	adopted := false
	_, err := s.UpdateQuestion(id, QuestionUpdate{Adopted: &adopted})
	return err
}

// ToggleGolden flips the golden flag of a question and returns the new value.
func (s *Session) ToggleGolden(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.questionIndex(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}
	s.state.Questions[i].IsGolden = !s.state.Questions[i].IsGolden
	return s.state.Questions[i].IsGolden, nil
}

func (s *Session) questionIndex(id string) int {
	for i := range s.state.Questions {
		if s.state.Questions[i].ID == id {
			return i
		}
	}
	return -1
}

// Questions returns a copy of the question pool in insertion order.
func (s *Session) Questions() []Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneQuestions(s.state.Questions)
}

// Radar returns the 5F tally of questions not explicitly rejected.
func (s *Session) Radar() RadarData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Tally(s.state.Questions)
}

// GoldenQuestions returns the text of golden questions in insertion order.
func (s *Session) GoldenQuestions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []string{}
	for _, q := range s.state.Questions {
		if q.IsGolden {
			out = append(out, q.Text)
		}
	}
	return out
}

// Participants returns the unique question authors in first-seen order,
// excluding the AI author and empty names.
func (s *Session) Participants() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	out := []string{}
	for _, q := range s.state.Questions {
		if q.Author == "" || q.Author == AIAuthor {
			continue
		}
		if _, ok := seen[q.Author]; ok {
			continue
		}
		seen[q.Author] = struct{}{}
		out = append(out, q.Author)
	}
	return out
}

// SetReflections replaces the reflection notes.
func (s *Session) SetReflections(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Reflections = text
}

// Reflections returns the reflection notes.
func (s *Session) Reflections() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Reflections
}

// AddActionItem appends an action item and returns the stored copy.
func (s *Session) AddActionItem(owner, action, deadline string) ActionItem {
	item := ActionItem{
		ID:       NewID(),
		Owner:    owner,
		Action:   action,
		Deadline: deadline,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ActionPlan = append(s.state.ActionPlan, item)
	return item
}

// UpdateActionItem replaces the owner, action and deadline of an item.
func (s *Session) UpdateActionItem(item ActionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.ActionPlan {
		if s.state.ActionPlan[i].ID == item.ID {
			s.state.ActionPlan[i] = item
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrActionItemNotFound, item.ID)
}

// RemoveActionItem deletes the action item with the given id.
func (s *Session) RemoveActionItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.ActionPlan {
		if s.state.ActionPlan[i].ID == id {
			s.state.ActionPlan = append(s.state.ActionPlan[:i], s.state.ActionPlan[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrActionItemNotFound, id)
}

// ActionPlan returns a copy of the action plan.
func (s *Session) ActionPlan() []ActionItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ActionItem{}, s.state.ActionPlan...)
}

// SetSummaryReport records the generated summary.
func (s *Session) SetSummaryReport(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SummaryReport = text
}

// SummaryReport returns the generated summary.
func (s *Session) SummaryReport() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SummaryReport
}

// Reset discards all state and returns to the topic stage.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = emptyState()
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Questions = cloneQuestions(s.state.Questions)
	st.ActionPlan = append([]ActionItem{}, s.state.ActionPlan...)
	if s.state.Evaluation != nil {
		e := *s.state.Evaluation
		st.Evaluation = &e
	}
	if s.state.PreMortem != nil {
		p := *s.state.PreMortem
		st.PreMortem = &p
	}
	return st
}

// Restore replaces the session state with st.
func (s *Session) Restore(st State) error {
	if !st.Stage.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStage, int(st.Stage))
	}
	st.Questions = nonNil(cloneQuestions(st.Questions))
	st.ActionPlan = nonNil(append([]ActionItem(nil), st.ActionPlan...))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	return nil
}

// SummaryRequest builds the body of the summary generation stream.
func (s *Session) SummaryRequest() SummaryRequest {
	st := s.Snapshot()
	return SummaryRequest{
		Topic:           st.Topic,
		GoldenQuestions: s.GoldenQuestions(),
		Reflections:     st.Reflections,
		ActionPlan:      st.ActionPlan,
	}
}

// ShadowRequest builds the body of the blind-spot detection call from the
// current pool.
func (s *Session) ShadowRequest() ShadowRequest {
	questions := s.Questions()
	radar := Tally(questions)

	texts := make([]string, 0, len(questions))
	for _, q := range questions {
		texts = append(texts, q.Text)
	}

	return ShadowRequest{
		TopicContext:      s.Topic().ShadowContext(),
		RadarData:         &radar,
		ExistingQuestions: texts,
	}
}

// SaveRequest builds the persistence payload with summary as the report.
func (s *Session) SaveRequest(summary string) SaveRequest {
	st := s.Snapshot()

	score := 0
	if st.Evaluation != nil {
		score = st.Evaluation.TotalScore
	}

	plan := make([]PlanEntry, 0, len(st.ActionPlan))
	for _, item := range st.ActionPlan {
		plan = append(plan, PlanEntry{
			Owner:    item.Owner,
			Action:   item.Action,
			Deadline: item.Deadline,
		})
	}

	return SaveRequest{
		TopicTitle:        st.Topic.Title,
		TopicBackground:   st.Topic.Background,
		TopicPainPoints:   st.Topic.PainPoints,
		TopicTriedActions: st.Topic.TriedActions,
		TotalScore:        score,
		GoldenQuestions:   s.GoldenQuestions(),
		Participants:      s.Participants(),
		Reflections:       st.Reflections,
		ActionPlan:        plan,
		SummaryReport:     summary,
	}
}

func cloneQuestions(in []Question) []Question {
	out := make([]Question, len(in))
	for i, q := range in {
		if q.Adopted != nil {
			adopted := *q.Adopted
			q.Adopted = &adopted
		}
		out[i] = q
	}
	return out
}

package runcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/papercomputeco/catalyst/pkg/client"
	"github.com/papercomputeco/catalyst/pkg/cliui"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

var (
	// errInputClosed is returned when stdin ends before the workshop does.
	errInputClosed = errors.New("input closed")

	// errNoSummary is returned when the summary stream produced no text.
	errNoSummary = errors.New("summary was empty, workshop not saved")
)

// backend is the subset of the catalyst client the workshop needs.
type backend interface {
	EvaluateTopic(ctx context.Context, topic workshop.Topic, progress client.ProgressFunc) (workshop.TopicEvaluation, error)
	PreMortem(ctx context.Context, topic workshop.Topic, progress client.ProgressFunc) (workshop.PreMortem, error)
	ClassifyQuestion(ctx context.Context, req workshop.ClassifyRequest) (workshop.Classification, error)
	ShadowQuestions(ctx context.Context, req workshop.ShadowRequest) (workshop.ShadowQuestions, error)
	GenerateSummary(ctx context.Context, sess *workshop.Session, progress client.ProgressFunc) (string, *workshop.Record, error)
}

// runner drives one workshop session from line based input.
type runner struct {
	backend     backend
	session     *workshop.Session
	in          *bufio.Scanner
	out         io.Writer

	// lines is fed by a single reader goroutine so prompts can give up on
	// cancellation while stdin blocks.
	lines     chan inputLine
	startRead sync.Once

	participant string

	// checkpoint persists the session after each completed stage.
	checkpoint func(*workshop.Session) error
}

type inputLine struct {
	text string
	err  error
}

func newRunner(b backend, sess *workshop.Session, in io.Reader, out io.Writer, participant string) *runner {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &runner{
		backend:     b,
		session:     sess,
		in:          scanner,
		out:         out,
		lines:       make(chan inputLine),
		participant: participant,
		checkpoint:  func(*workshop.Session) error { return nil },
	}
}

// run walks the remaining stages, generates the summary and returns the
// saved record.
func (r *runner) run(ctx context.Context) (*workshop.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		stage := r.session.Stage()
		r.header(stage)

		switch stage {
		case workshop.StageTopic:
			err = r.topicStage(ctx)
		case workshop.StageBrainstorm:
			err = r.brainstormStage(ctx)
		case workshop.StageReflection:
			err = r.reflectionStage(ctx)
		case workshop.StageAction:
			if err = r.actionStage(ctx); err == nil {
				return r.summarize(ctx)
			}
		}
		if err != nil {
			return nil, err
		}

		r.session.Advance()
		if err := r.checkpoint(r.session); err != nil {
			fmt.Fprintf(r.out, "  %s could not save progress: %v\n", cliui.WarnMark, err)
		}
	}
}

func (r *runner) header(stage workshop.Stage) {
	titles := map[workshop.Stage]string{
		workshop.StageTopic:      "Topic",
		workshop.StageBrainstorm: "Brainstorm",
		workshop.StageReflection: "Reflection",
		workshop.StageAction:     "Action plan",
	}
	fmt.Fprintf(r.out, "\n%s\n\n", cliui.HeaderStyle.Render(
		fmt.Sprintf("Stage %d/%d · %s", int(stage), int(workshop.FinalStage), titles[stage]),
	))
}

// readLine prompts and returns the next trimmed input line. It returns the
// context error as soon as ctx is done, even while waiting for input.
func (r *runner) readLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(r.out, prompt)
	r.startRead.Do(func() { go r.scan() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-r.lines:
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if l.err != nil {
			return "", l.err
		}
		return strings.TrimSpace(l.text), nil
	}
}

// scan forwards input lines to readLine. The final value carries the
// reason input stopped and is repeated for any later reads.
func (r *runner) scan() {
	for r.in.Scan() {
		r.lines <- inputLine{text: r.in.Text()}
	}

	last := inputLine{err: errInputClosed}
	if err := r.in.Err(); err != nil {
		last.err = fmt.Errorf("reading input: %w", err)
	}
	for {
		r.lines <- last
	}
}

// readBlock reads lines until an empty one and joins them.
func (r *runner) readBlock(ctx context.Context, prompt string) (string, error) {
	var lines []string
	for {
		line, err := r.readLine(ctx, prompt)
		if err != nil {
			return "", err
		}
		if line == "" {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
	}
}

func (r *runner) warn(msg string, err error) {
	fmt.Fprintf(r.out, "  %s %s: %v\n", cliui.WarnMark, msg, err)
}

func (r *runner) topicStage(ctx context.Context) error {
	for {
		topic := r.session.Topic()
		if topic.Title == "" {
			var err error
			if topic, err = r.readTopic(ctx); err != nil {
				return err
			}
			r.session.SetTopic(topic)
		}

		if _, ok := r.session.Evaluation(); !ok {
			r.evaluate(ctx, topic)
		}
		if _, ok := r.session.PreMortem(); !ok {
			r.preMortem(ctx, topic)
		}

		choice, err := r.readLine(ctx, cliui.DimStyle.Render("  Enter to start brainstorming, \"edit\" to rewrite the topic: "))
		if err != nil {
			return err
		}
		if !strings.EqualFold(choice, "edit") {
			return nil
		}
		r.session.SetTopic(workshop.Topic{})
	}
}

func (r *runner) readTopic(ctx context.Context) (workshop.Topic, error) {
	var t workshop.Topic

	for t.Title == "" {
		title, err := r.readLine(ctx, "  Title: ")
		if err != nil {
			return t, err
		}
		t.Title = title
	}

	fields := []struct {
		prompt string
		target *string
	}{
		{"  Background: ", &t.Background},
		{"  Pain points: ", &t.PainPoints},
		{"  Already tried: ", &t.TriedActions},
	}
	for _, f := range fields {
		v, err := r.readLine(ctx, f.prompt)
		if err != nil {
			return t, err
		}
		*f.target = v
	}
	return t, nil
}

func (r *runner) evaluate(ctx context.Context, topic workshop.Topic) {
	var eval workshop.TopicEvaluation
	err := cliui.Step(r.out, "Evaluating topic", func() error {
		var err error
		eval, err = r.backend.EvaluateTopic(ctx, topic, nil)
		return err
	})
	if err != nil {
		r.warn("topic evaluation unavailable", err)
		return
	}
	r.session.SetEvaluation(eval)

	d := eval.Dimensions
	fmt.Fprintf(r.out, "\n  %s %s\n",
		cliui.KeyStyle.Render("Score:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%d/%d", eval.TotalScore, workshop.MaxScore)),
	)
	fmt.Fprintf(r.out, "  %s\n", cliui.DimStyle.Render(fmt.Sprintf(
		"focus %d · result %d · single issue %d · uncertainty %d · control %d · learning %d",
		d.Focus, d.ResultOriented, d.SingleIssue, d.Uncertainty, d.Controllability, d.Learning,
	)))
	for _, s := range eval.Suggestions {
		fmt.Fprintf(r.out, "  - %s\n", s)
	}
	for _, ex := range eval.Examples {
		fmt.Fprintf(r.out, "  %s %s\n", cliui.GoldStyle.Render("e.g."), ex.Title)
	}
	fmt.Fprintln(r.out)
}

func (r *runner) preMortem(ctx context.Context, topic workshop.Topic) {
	var pm workshop.PreMortem
	err := cliui.Step(r.out, "Running pre-mortem", func() error {
		var err error
		pm, err = r.backend.PreMortem(ctx, topic, nil)
		return err
	})
	if err != nil {
		r.warn("pre-mortem unavailable", err)
		return
	}
	r.session.SetPreMortem(pm)

	if pm.Warning != "" {
		fmt.Fprintf(r.out, "\n  %s %s\n", cliui.WarnMark, pm.Warning)
	}
	for _, risk := range pm.RiskFactors {
		fmt.Fprintf(r.out, "  - %s\n", risk)
	}
	if len(pm.FocusAreas) > 0 {
		fmt.Fprintf(r.out, "  %s %s\n",
			cliui.KeyStyle.Render("Focus:"),
			strings.Join(pm.FocusAreas, ", "),
		)
	}
	fmt.Fprintln(r.out)
}

const brainstormHelp = `  Type a question and press Enter to add it.
    /as <name>      ask as another participant
    /shadow         suggest questions for blind spots
    /list           show the question pool
    /radar          show the 5F radar
    /golden <n>     toggle a golden question
    /adopt <n>      adopt a question
    /reject <n>     reject a question
    /done           finish brainstorming (or an empty line)`

func (r *runner) brainstormStage(ctx context.Context) error {
	fmt.Fprintln(r.out, cliui.DimStyle.Render(brainstormHelp))
	fmt.Fprintln(r.out)

	author := r.participant
	for {
		line, err := r.readLine(ctx, cliui.ValueStyle.Render(author+"> "))
		if err != nil {
			return err
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "", "/done":
			return nil
		case "/help":
			fmt.Fprintln(r.out, cliui.DimStyle.Render(brainstormHelp))
		case "/as":
			if arg != "" {
				author = arg
			}
		case "/shadow":
			r.shadow(ctx)
		case "/list":
			r.printQuestions()
		case "/radar":
			r.printRadar()
		case "/golden", "/adopt", "/reject":
			r.markQuestion(cmd, arg)
		default:
			if err := r.addQuestion(ctx, line, author); err != nil {
				return err
			}
		}
	}
}

// addQuestion classifies and records a question. A failed classification
// still records it as a fact unless the workshop is being torn down.
func (r *runner) addQuestion(ctx context.Context, text, author string) error {
	cls, err := r.backend.ClassifyQuestion(ctx, workshop.ClassifyRequest{
		Question:     text,
		TopicContext: r.session.Topic().Context(),
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		r.warn("classification failed", err)
	}

	q, err := r.session.AddQuestion(text, author, cls)
	if err != nil {
		r.warn("could not add question", err)
		return nil
	}

	fmt.Fprintf(r.out, "  %s %s\n", cliui.DimStyle.Render("["+q.CategoryLabel+"]"), q.Text)
	if cls.IsClosed && cls.Suggestion != nil && *cls.Suggestion != "" {
		fmt.Fprintf(r.out, "  %s try: %s\n", cliui.WarnMark, *cls.Suggestion)
	}
	return nil
}

func (r *runner) shadow(ctx context.Context) {
	var res workshop.ShadowQuestions
	err := cliui.Step(r.out, "Looking for blind spots", func() error {
		var err error
		res, err = r.backend.ShadowQuestions(ctx, r.session.ShadowRequest())
		return err
	})
	if err != nil {
		r.warn("blind-spot detection unavailable", err)
		return
	}

	if res.MissingAlert != "" {
		fmt.Fprintf(r.out, "  %s %s\n", cliui.WarnMark, res.MissingAlert)
	}
	for _, sq := range res.Questions {
		q := r.session.AddShadowQuestion(sq)
		fmt.Fprintf(r.out, "  %s %s %s\n",
			cliui.DimStyle.Render("["+q.CategoryLabel+"]"),
			q.Text,
			cliui.DimStyle.Render("(AI)"),
		)
	}
}

func (r *runner) markQuestion(cmd, arg string) {
	questions := r.session.Questions()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(questions) {
		fmt.Fprintf(r.out, "  %s no question %q\n", cliui.WarnMark, arg)
		return
	}
	id := questions[n-1].ID

	switch cmd {
	case "/golden":
		_, err = r.session.ToggleGolden(id)
	case "/adopt":
		err = r.session.Adopt(id)
	case "/reject":
		err = r.session.Reject(id)
	}
	if err != nil {
		r.warn("could not update question", err)
		return
	}
	r.printQuestions()
}

func (r *runner) printQuestions() {
	questions := r.session.Questions()
	if len(questions) == 0 {
		fmt.Fprintf(r.out, "  %s\n", cliui.DimStyle.Render("No questions yet."))
		return
	}

	for i, q := range questions {
		var marks []string
		if q.IsGolden {
			marks = append(marks, cliui.GoldStyle.Render("★"))
		}
		if q.IsShadow {
			marks = append(marks, cliui.DimStyle.Render("AI"))
		}
		if q.Adopted != nil && !*q.Adopted {
			marks = append(marks, cliui.DimStyle.Render("rejected"))
		}

		fmt.Fprintf(r.out, "  %2d. %s %s %s\n",
			i+1,
			cliui.DimStyle.Render("["+q.CategoryLabel+"]"),
			q.Text,
			strings.Join(marks, " "),
		)
	}
}

func (r *runner) printRadar() {
	radar := r.session.Radar()
	for _, c := range workshop.Categories {
		n := radar.Get(c)
		fmt.Fprintf(r.out, "  %s %s %d\n",
			cliui.KeyStyle.Render(c.Label()),
			cliui.ValueStyle.Render(strings.Repeat("■", n)),
			n,
		)
	}
}

func (r *runner) reflectionStage(ctx context.Context) error {
	if existing := r.session.Reflections(); existing != "" {
		fmt.Fprintf(r.out, "  %s\n%s\n\n", cliui.DimStyle.Render("Current reflections:"), existing)
	}
	fmt.Fprintln(r.out, cliui.DimStyle.Render("  What did the group learn? Finish with an empty line."))

	text, err := r.readBlock(ctx, "  ")
	if err != nil {
		return err
	}
	if text != "" {
		r.session.SetReflections(text)
	}
	return nil
}

const actionHelp = `  Add action items as "owner | action | deadline".
    /list           show the plan
    /remove <n>     remove an item
    /done           finish and generate the summary (or an empty line)`

func (r *runner) actionStage(ctx context.Context) error {
	fmt.Fprintln(r.out, cliui.DimStyle.Render(actionHelp))
	fmt.Fprintln(r.out)

	for {
		line, err := r.readLine(ctx, cliui.ValueStyle.Render("plan> "))
		if err != nil {
			return err
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "", "/done":
			return nil
		case "/list":
			r.printPlan()
		case "/remove":
			r.removeAction(strings.TrimSpace(arg))
		default:
			r.addAction(line)
		}
	}
}

func (r *runner) addAction(line string) {
	parts := strings.SplitN(line, "|", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}

	owner := strings.TrimSpace(parts[0])
	action := strings.TrimSpace(parts[1])
	deadline := strings.TrimSpace(parts[2])

	// A bare line is an action owned by the current participant.
	if action == "" {
		owner, action = r.participant, owner
	}

	item := r.session.AddActionItem(owner, action, deadline)
	fmt.Fprintf(r.out, "  %s %s: %s %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(item.Owner),
		item.Action,
		cliui.DimStyle.Render(item.Deadline),
	)
}

func (r *runner) removeAction(arg string) {
	plan := r.session.ActionPlan()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(plan) {
		fmt.Fprintf(r.out, "  %s no action item %q\n", cliui.WarnMark, arg)
		return
	}
	if err := r.session.RemoveActionItem(plan[n-1].ID); err != nil {
		r.warn("could not remove action item", err)
		return
	}
	r.printPlan()
}

func (r *runner) printPlan() {
	plan := r.session.ActionPlan()
	if len(plan) == 0 {
		fmt.Fprintf(r.out, "  %s\n", cliui.DimStyle.Render("No action items yet."))
		return
	}
	for i, item := range plan {
		fmt.Fprintf(r.out, "  %2d. %s: %s %s\n",
			i+1,
			cliui.KeyStyle.Render(item.Owner),
			item.Action,
			cliui.DimStyle.Render(item.Deadline),
		)
	}
}

// summarize streams the summary report to the output as it arrives. The
// client saves the workshop once the stream ends with text.
func (r *runner) summarize(ctx context.Context) (*workshop.Record, error) {
	fmt.Fprintf(r.out, "\n%s\n\n", cliui.HeaderStyle.Render("Summary"))

	text, rec, err := r.backend.GenerateSummary(ctx, r.session, func(delta, _ string) {
		fmt.Fprint(r.out, delta)
	})
	fmt.Fprintln(r.out)

	switch {
	case err != nil:
		return nil, fmt.Errorf("generating summary: %w", err)
	case text == "" || rec == nil:
		return nil, errNoSummary
	}
	return rec, nil
}

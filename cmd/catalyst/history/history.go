// Package historycmder provides the history command for browsing saved
// workshops.
package historycmder

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/catalyst/pkg/client"
	"github.com/papercomputeco/catalyst/pkg/cliui"
	"github.com/papercomputeco/catalyst/pkg/config"
	"github.com/papercomputeco/catalyst/pkg/utils"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

const (
	titleWidth = 40
	idWidth    = 8
)

type historyCommander struct {
	apiTarget string
	timeout   string
	limit     int
}

var historyFlags = []string{
	config.FlagAPITarget,
	config.FlagTimeout,
}

const historyLongDesc string = `Browse saved workshops.

Without arguments, lists the most recent workshops, newest first. With a
workshop ID, prints the topic, golden questions, action plan and summary
report of that workshop. IDs may be given in full or as the short prefix
shown in the listing.

Examples:
  catalyst history
  catalyst history --limit 5
  catalyst history 3f2a9c1e`

const historyShortDesc string = "Browse saved workshops"

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, historyFlags)
			cmder.fromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := cmder.client()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return cmder.show(cmd, cl, args[0])
			}
			return cmder.list(cmd, cl)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 0, "Maximum number of workshops to list (server default 50)")

	return cmd
}

func (c *historyCommander) fromViper(v *viper.Viper) {
	c.apiTarget = v.GetString("client.api_target")
	c.timeout = v.GetString("client.timeout")
}

func (c *historyCommander) client() (*client.Client, error) {
	var timeout time.Duration
	if c.timeout != "" {
		d, err := time.ParseDuration(c.timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", c.timeout, err)
		}
		timeout = d
	}
	return client.New(c.apiTarget, client.WithTimeout(timeout)), nil
}

func (c *historyCommander) list(cmd *cobra.Command, cl *client.Client) error {
	out := cmd.OutOrStdout()

	workshops, err := cl.ListWorkshops(cmd.Context(), c.limit)
	if err != nil {
		return fmt.Errorf("listing workshops: %w", err)
	}

	if len(workshops) == 0 {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No saved workshops."))
		return nil
	}

	fmt.Fprintln(out)
	for _, w := range workshops {
		title := w.TopicTitle
		if title == "" {
			title = "(untitled)"
		}

		fmt.Fprintf(out, "  %s  %s  %s  %s  %s\n",
			cliui.HashStyle.Render(shortID(w.ID)),
			cliui.DimStyle.Render(w.CreatedAt.Local().Format("2006-01-02 15:04")),
			cliui.ValueStyle.Render(fmt.Sprintf("%2d/%d", w.TotalScore, workshop.MaxScore)),
			utils.Truncate(title, titleWidth),
			cliui.DimStyle.Render(strings.Join(w.Participants, ", ")),
		)
	}
	fmt.Fprintln(out)
	return nil
}

func (c *historyCommander) show(cmd *cobra.Command, cl *client.Client, id string) error {
	rec, err := cl.GetWorkshop(cmd.Context(), id)
	if errors.Is(err, client.ErrNotFound) {
		rec, err = c.findByPrefix(cmd, cl, id)
	}
	if err != nil {
		return err
	}

	printRecord(cmd.OutOrStdout(), rec)
	return nil
}

// findByPrefix resolves a short ID against the recent listing.
func (c *historyCommander) findByPrefix(cmd *cobra.Command, cl *client.Client, prefix string) (*workshop.Record, error) {
	workshops, err := cl.ListWorkshops(cmd.Context(), 0)
	if err != nil {
		return nil, fmt.Errorf("listing workshops: %w", err)
	}

	var matches []string
	for _, w := range workshops {
		if strings.HasPrefix(w.ID, prefix) {
			matches = append(matches, w.ID)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("workshop %q not found", prefix)
	case 1:
		return cl.GetWorkshop(cmd.Context(), matches[0])
	default:
		return nil, fmt.Errorf("workshop id %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

func printRecord(out io.Writer, rec *workshop.Record) {
	fmt.Fprintf(out, "\n%s\n", cliui.HeaderStyle.Render(rec.TopicTitle))
	fmt.Fprintf(out, "  %s %s   %s %s\n",
		cliui.KeyStyle.Render("ID:"),
		cliui.HashStyle.Render(rec.ID),
		cliui.KeyStyle.Render("Score:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%d/%d", rec.TotalScore, workshop.MaxScore)),
	)
	if rec.CompletedAt != nil {
		fmt.Fprintf(out, "  %s %s\n",
			cliui.KeyStyle.Render("Completed:"),
			cliui.DimStyle.Render(rec.CompletedAt.Local().Format(time.RFC1123)),
		)
	}
	if len(rec.Participants) > 0 {
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Participants:"), strings.Join(rec.Participants, ", "))
	}

	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(out, "\n  %s\n", cliui.KeyStyle.Render(title))
		for _, l := range lines {
			fmt.Fprintf(out, "    %s\n", l)
		}
	}

	section("Background", nonEmpty(rec.TopicBackground))
	section("Pain points", nonEmpty(rec.TopicPainPoints))

	golden := make([]string, 0, len(rec.GoldenQuestions))
	for _, q := range rec.GoldenQuestions {
		golden = append(golden, cliui.GoldStyle.Render("★")+" "+q)
	}
	section("Golden questions", golden)

	plan := make([]string, 0, len(rec.ActionPlan))
	for _, item := range rec.ActionPlan {
		plan = append(plan, fmt.Sprintf("%s: %s %s",
			cliui.KeyStyle.Render(item.Owner),
			item.Action,
			cliui.DimStyle.Render(item.Deadline),
		))
	}
	section("Action plan", plan)
	section("Reflections", nonEmpty(rec.Reflections))

	fmt.Fprintln(out)
	if rec.SummaryReport != "" {
		cliui.PrintMarkdown(out, rec.SummaryReport)
	}
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func shortID(id string) string {
	if len(id) <= idWidth {
		return id
	}
	return id[:idWidth]
}

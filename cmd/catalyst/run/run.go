// Package runcmder provides the run command, an interactive four stage
// facilitation workshop against a catalyst backend.
package runcmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/catalyst/pkg/client"
	"github.com/papercomputeco/catalyst/pkg/cliui"
	"github.com/papercomputeco/catalyst/pkg/config"
	"github.com/papercomputeco/catalyst/pkg/dotdir"
	"github.com/papercomputeco/catalyst/pkg/logger"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

type runCommander struct {
	apiTarget   string
	timeout     string
	participant string
	resume      bool
	configDir   string
	debug       bool

	logger *slog.Logger
}

var runFlags = []string{
	config.FlagAPITarget,
	config.FlagTimeout,
	config.FlagParticipant,
}

const runLongDesc string = `Run an interactive facilitation workshop.

The workshop moves through four stages:
  1. Topic        describe the problem, get an AI evaluation and pre-mortem
  2. Brainstorm   collect 5F questions, classified as they are asked
  3. Reflection   write down what the group learned
  4. Action       agree on owners, actions and deadlines

After the action stage a summary report is streamed from the backend and the
workshop is saved. Progress is kept in .catalyst/session.json after every
stage, so an interrupted workshop can be picked up with --resume.

Examples:
  catalyst run
  catalyst run --participant alice
  catalyst run --resume --api-target http://workshop-host:8081`

const runShortDesc string = "Run an interactive facilitation workshop"

func NewRunCmd() *cobra.Command {
	cmder := &runCommander{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: runShortDesc,
		Long:  runLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, runFlags)
			cmder.fromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagParticipant, &cmder.participant)
	cmd.Flags().BoolVarP(&cmder.resume, "resume", "r", false, "Resume the saved unfinished workshop")

	return cmd
}

func (c *runCommander) fromViper(v *viper.Viper) {
	c.apiTarget = v.GetString("client.api_target")
	c.timeout = v.GetString("client.timeout")
	c.participant = v.GetString("client.participant")
}

func (c *runCommander) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	c.logger = logger.Nop()
	if c.debug {
		c.logger = logger.New(
			logger.WithDebug(true),
			logger.WithPretty(true),
			logger.WithWriter(cmd.ErrOrStderr()),
		)
	}

	var timeout time.Duration
	if c.timeout != "" {
		d, err := time.ParseDuration(c.timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", c.timeout, err)
		}
		timeout = d
	}

	cl := client.New(c.apiTarget,
		client.WithLogger(c.logger),
		client.WithTimeout(timeout),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := c.loadSession()
	if err != nil {
		return err
	}

	ddm := dotdir.NewManager()
	r := newRunner(cl, sess, cmd.InOrStdin(), out, c.participant)
	r.checkpoint = func(s *workshop.Session) error {
		return ddm.SaveSession(&dotdir.SessionState{
			SavedAt: time.Now().UTC(),
			Target:  c.apiTarget,
			State:   s.Snapshot(),
		}, c.configDir)
	}

	fmt.Fprintf(out, "\n  %s %s\n",
		cliui.KeyStyle.Render("Backend:"),
		cliui.DimStyle.Render(c.apiTarget),
	)
	if err := cl.Ping(ctx); err != nil {
		fmt.Fprintf(out, "  %s backend not reachable: %v\n", cliui.WarnMark, err)
	}

	rec, err := r.run(ctx)
	if err != nil {
		if cpErr := r.checkpoint(sess); cpErr != nil {
			c.logger.Warn("could not save session", "error", cpErr)
		} else {
			fmt.Fprintf(out, "\n  %s Progress saved. Continue with %s\n",
				cliui.WarnMark,
				cliui.KeyStyle.Render("catalyst run --resume"),
			)
		}
		if errors.Is(err, errInputClosed) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if err := ddm.ClearSession(c.configDir); err != nil {
		c.logger.Warn("could not clear session", "error", err)
	}

	fmt.Fprintf(out, "\n  %s Workshop saved as %s\n\n",
		cliui.SuccessMark,
		cliui.HashStyle.Render(rec.ID),
	)
	return nil
}

// loadSession returns the saved session when resuming, or a fresh one.
func (c *runCommander) loadSession() (*workshop.Session, error) {
	sess := workshop.NewSession()
	if !c.resume {
		return sess, nil
	}

	saved, err := dotdir.NewManager().LoadSession(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if saved == nil {
		return nil, errors.New("no unfinished workshop to resume")
	}

	if err := sess.Restore(saved.State); err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	return sess, nil
}

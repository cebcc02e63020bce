package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/auditai-dev/auditai/internal/agent"
	"github.com/auditai-dev/auditai/internal/auditlog"
	"github.com/auditai-dev/auditai/internal/compliance"
	"github.com/auditai-dev/auditai/internal/config"
	"github.com/auditai-dev/auditai/internal/dataset"
	"github.com/auditai-dev/auditai/internal/id"
	"github.com/auditai-dev/auditai/internal/logger"
	"github.com/auditai-dev/auditai/internal/report"
	"github.com/auditai-dev/auditai/internal/session"
	"github.com/auditai-dev/auditai/internal/tools"
)

func newAskCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <file> <question...>",
		Short: "Ask the assistant a question about a transactions file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			return runAsk(cmd, p, args[0], strings.Join(args[1:], " "))
		},
	}
}

func runAsk(cmd *cobra.Command, p *project, file, question string) error {
	question = strings.TrimSpace(report.SanitizeText(question))
	if question == "" {
		return errors.New("question is empty")
	}

	if err := config.LoadEnv(p.root); err != nil {
		return err
	}
	key := p.cfg.APIKey()
	if key == "" {
		return fmt.Errorf("no API key: set %s in the environment or .env", p.cfg.Agent.APIKeyEnv)
	}

	ds, err := dataset.Load(file)
	if err != nil {
		return err
	}
	rules, rulesErr := compliance.LoadRules(p.cfg.RulesPath(p.root))
	if rulesErr != nil {
		p.log.Warn().Err(rulesErr).Msg("compliance rules unavailable")
	}

	ctx := logger.WithContext(cmd.Context(), p.log)
	a, err := agent.NewGemini(ctx, key, p.cfg.Agent.Model, p.cfg.Agent.MaxSteps)
	if err != nil {
		return err
	}

	sess := session.New(file, ds, rules, rulesErr)
	reg := tools.ForSession(sess, tools.Options{CurrencySymbol: p.cfg.Report.CurrencySymbol})
	answer, err := a.Ask(ctx, reg, question)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)

	now := time.Now()
	if err := auditlog.Append(p.root, auditlog.Entry{
		Timestamp: now,
		RunID:     id.NewRunID(now),
		Action:    auditlog.ActionAsk,
		Source:    file,
		Details:   question,
	}); err != nil {
		p.log.Warn().Err(err).Msg("writing audit log")
	}
	return nil
}

package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/auditai-dev/auditai/internal/agent"
	"github.com/auditai-dev/auditai/internal/compliance"
	"github.com/auditai-dev/auditai/internal/config"
	"github.com/auditai-dev/auditai/internal/logger"
	"github.com/auditai-dev/auditai/internal/model"
	"github.com/auditai-dev/auditai/internal/server"
)

func newServeCommand(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = p.cfg.Server.Addr
			}
			return runServe(cmd, p, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr from auditai.yaml)")

	return cmd
}

func runServe(cmd *cobra.Command, p *project, addr string) error {
	if err := config.LoadEnv(p.root); err != nil {
		return err
	}

	level := p.log.GetLevel().String()
	log := logger.NewWithWriter(os.Stderr, level)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	opts := server.Options{
		MaxUploadBytes: p.cfg.Server.MaxUploadBytes,
		SessionTTL:     p.cfg.SessionTTL(),
		AskPerMinute:   p.cfg.Server.AskPerMinute,
		CurrencySymbol: p.cfg.Report.CurrencySymbol,
		Rules: func() ([]model.Rule, error) {
			return compliance.LoadRules(p.cfg.RulesPath(p.root))
		},
		AuditRoot: p.root,
		Logger:    log,
	}

	if key := p.cfg.APIKey(); key != "" {
		a, err := agent.NewGemini(ctx, key, p.cfg.Agent.Model, p.cfg.Agent.MaxSteps)
		if err != nil {
			return err
		}
		opts.Agent = a
		log.Info().Str("model", a.Model()).Msg("assistant enabled")
	} else {
		log.Warn().Str("env", p.cfg.Agent.APIKeyEnv).Msg("no API key, /ask is disabled")
	}

	return server.New(opts).ListenAndServe(ctx, addr)
}

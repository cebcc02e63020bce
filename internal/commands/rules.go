package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auditai-dev/auditai/internal/compliance"
)

func newRulesCommand(g *globalFlags) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Compliance rule operations",
	}
	rulesCmd.AddCommand(newRulesValidateCommand(g))
	return rulesCmd
}

func newRulesValidateCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check that a rule file loads and every rule is well formed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			path := p.cfg.RulesPath(p.root)
			if len(args) > 0 {
				path = args[0]
			}

			rules, err := compliance.LoadRules(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d valid rules\n", path, len(rules))
			for _, r := range rules {
				scope := ""
				if r.Category != "" {
					scope = " [" + r.Category + "]"
				}
				fmt.Fprintf(out, "  %s%s: %s must be %s\n", r.RuleID, scope, r.Field, r.Expected())
			}
			return nil
		},
	}
}

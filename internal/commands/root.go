package commands

import (
	"github.com/spf13/cobra"

	"github.com/auditai-dev/auditai/internal/buildinfo"
)

// globalFlags are persistent flags shared by every subcommand.
type globalFlags struct {
	repo     string
	logLevel string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "auditai",
		Short:   "Fraud flagging and compliance checks for transaction files",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.repo, "repo", ".", "project directory containing auditai.yaml")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log.level from auditai.yaml")

	rootCmd.AddCommand(
		newInitCommand(),
		newAuditCommand(g),
		newFraudCommand(g),
		newComplianceCommand(g),
		newRulesCommand(g),
		newAskCommand(g),
		newServeCommand(g),
		newLogCommand(g),
	)

	return rootCmd
}

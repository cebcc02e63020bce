package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/auditai-dev/auditai/internal/dataset"
)

func newAuditCommand(g *globalFlags) *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "audit [file]",
		Short: "Run fraud flagging and compliance checks on a transactions file",
		Long: "Run fraud flagging and compliance checks on a transactions file. " +
			"Without a file, every CSV and XLSX file in the project's data/ directory is audited.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return runAnalysis(cmd, p, args[0], true, true, flags)
			}

			files, err := dataset.DefaultRegistry().Scan(p.root)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return errors.New("no CSV or XLSX files in data/")
			}
			for _, f := range files {
				if err := runAnalysis(cmd, p, f.Path, true, true, flags); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags.register(cmd, true, true)

	return cmd
}

func newFraudCommand(g *globalFlags) *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "fraud <file>",
		Short: "Flag outlier amounts and rows with missing fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			return runAnalysis(cmd, p, args[0], true, false, flags)
		},
	}
	flags.register(cmd, false, false)

	return cmd
}

func newComplianceCommand(g *globalFlags) *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "compliance <file>",
		Short: "Check every transaction against the compliance rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			return runAnalysis(cmd, p, args[0], false, true, flags)
		},
	}
	flags.register(cmd, true, false)

	return cmd
}

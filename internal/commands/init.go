package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/auditai-dev/auditai/internal/config"
	"github.com/auditai-dev/auditai/internal/gitops"
)

// sampleRules seeds rules/compliance-rules.json in a new project.
const sampleRules = `[
  {
    "rule_id": "R-001",
    "description": "Single transactions above 100000 need approval",
    "field": "amount",
    "condition": "greater_than",
    "value": 100000
  },
  {
    "rule_id": "R-002",
    "description": "Engineering salaries are capped at 100000",
    "field": "salary",
    "category": "engineering",
    "condition": "greater_than",
    "value": 100000
  },
  {
    "rule_id": "R-003",
    "description": "Borrowers need a credit score of at least 300",
    "field": "credit_score",
    "condition": "less_than",
    "value": 300
  }
]
`

func newInitCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new audit project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			if name == "" {
				name = filepath.Base(absDir)
			}

			return runInit(cmd, absDir, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "project name (defaults to the directory name)")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name string) error {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	for _, d := range []string{"rules", "data", "reports", "logs"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default()
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.WriteFile(cfg.RulesPath(dir), []byte(sampleRules), 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	gitignore := ".env\ndata/*\n!data/.gitkeep\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	for _, d := range []string{"data", "reports"} {
		if err := os.WriteFile(filepath.Join(dir, d, ".gitkeep"), []byte{}, 0o644); err != nil {
			return fmt.Errorf("writing .gitkeep: %w", err)
		}
	}

	if !cfg.Git.AutoCommit {
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized audit project at %s\n", dir)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return err
	}
	hash, err := gitops.CommitAll(dir, "init: Initialize "+name, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized audit project at %s (%s)\n", dir, hash)
	return nil
}

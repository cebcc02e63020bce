package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/auditai-dev/auditai/internal/auditlog"
	"github.com/auditai-dev/auditai/internal/compliance"
	"github.com/auditai-dev/auditai/internal/dataset"
	"github.com/auditai-dev/auditai/internal/fraud"
	"github.com/auditai-dev/auditai/internal/gitops"
	"github.com/auditai-dev/auditai/internal/id"
	"github.com/auditai-dev/auditai/internal/model"
	"github.com/auditai-dev/auditai/internal/report"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type analysisFlags struct {
	format string
	rules  string
	report bool
}

func (f *analysisFlags) register(cmd *cobra.Command, withRules, withReport bool) {
	cmd.Flags().StringVar(&f.format, "format", formatText, "output format: text or json")
	if withRules {
		cmd.Flags().StringVar(&f.rules, "rules", "", "rule file (defaults to rules.path from auditai.yaml)")
	}
	if withReport {
		cmd.Flags().BoolVar(&f.report, "report", false, "write a per-row CSV report to reports/")
	}
}

type fraudOutput struct {
	Summary     string          `json:"summary"`
	AmountField string          `json:"amount_field"`
	Stats       *fraud.Stats    `json:"stats"`
	Flagged     []fraud.RowFlag `json:"flagged"`
}

type complianceOutput struct {
	Summary      string                 `json:"summary"`
	RuleCount    int                    `json:"rule_count"`
	Violations   int                    `json:"violations"`
	NonCompliant []compliance.RowResult `json:"non_compliant"`
}

type runOutput struct {
	RunID      string            `json:"run_id"`
	Source     string            `json:"source"`
	Rows       int               `json:"rows"`
	Fraud      *fraudOutput      `json:"fraud,omitempty"`
	Compliance *complianceOutput `json:"compliance,omitempty"`
	Report     string            `json:"report,omitempty"`
}

// runAnalysis loads file, runs the requested analyses, prints the results
// and records them in the audit log.
func runAnalysis(cmd *cobra.Command, p *project, file string, doFraud, doCompliance bool, flags analysisFlags) error {
	if flags.format != formatText && flags.format != formatJSON {
		return fmt.Errorf("unknown format %q (want text or json)", flags.format)
	}

	var rules []model.Rule
	if doCompliance {
		path := flags.rules
		if path == "" {
			path = p.cfg.RulesPath(p.root)
		}
		var err error
		if rules, err = compliance.LoadRules(path); err != nil {
			return err
		}
	}

	ds, err := dataset.Load(file)
	if err != nil {
		return err
	}

	now := time.Now()
	out := runOutput{RunID: id.NewRunID(now), Source: file, Rows: ds.Len()}
	log := p.log.With().Str("run_id", out.RunID).Logger()
	log.Info().Str("source", file).Int("rows", ds.Len()).Msg("analysis started")

	var entries []auditlog.Entry
	entry := func(action, details string) {
		entries = append(entries, auditlog.Entry{Timestamp: now, RunID: out.RunID, Action: action, Source: file, Details: details})
	}

	var analysis *fraud.Analysis
	if doFraud {
		analysis = fraud.Detect(ds)
		out.Fraud = &fraudOutput{
			Summary:     report.FraudSummary(ds, analysis, p.cfg.Report.CurrencySymbol),
			AmountField: analysis.AmountField,
			Stats:       analysis.Stats,
			Flagged:     nonNil(analysis.Flagged()),
		}
		entry(auditlog.ActionFraud, out.Fraud.Summary)
	}

	var rep *compliance.Report
	if doCompliance {
		if rep, err = compliance.Evaluate(ds, rules); err != nil {
			return err
		}
		out.Compliance = &complianceOutput{
			Summary:      report.ComplianceSummary(rep),
			RuleCount:    rep.RuleCount,
			Violations:   rep.TotalViolations(),
			NonCompliant: nonNil(rep.NonCompliant()),
		}
		entry(auditlog.ActionCompliance, out.Compliance.Summary)
	}

	if flags.report {
		path, err := writeReport(p, out.RunID, ds, analysis, rep)
		if err != nil {
			return err
		}
		out.Report = path
		entry(auditlog.ActionReport, path)
	}

	if err := auditlog.Append(p.root, entries...); err != nil {
		log.Warn().Err(err).Msg("writing audit log")
	}

	if flags.report && p.cfg.Git.AutoCommit && gitops.IsRepo(p.root) {
		if err := commitReport(p, file, out.RunID); err != nil {
			return err
		}
	}

	if flags.format == formatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printText(cmd.OutOrStdout(), analysis, out)
	return nil
}

// commitReport records the report and audit log in git. A clean tree, as when
// reports/ and logs/ are ignored, is not an error.
func commitReport(p *project, file, runID string) error {
	log := p.log.With().Str("run_id", runID).Logger()
	dirty, err := gitops.HasChanges(p.root)
	if err != nil {
		return fmt.Errorf("checking for changes: %w", err)
	}
	if !dirty {
		log.Info().Msg("nothing to commit")
		return nil
	}

	msg := fmt.Sprintf("audit: %s (%s)", filepath.Base(file), runID)
	hash, err := gitops.CommitAll(p.root, msg, p.cfg.Git.AuthorName, p.cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("committing report: %w", err)
	}
	log.Info().Str("commit", hash).Msg("report committed")
	return nil
}

func writeReport(p *project, runID string, ds *model.Dataset, a *fraud.Analysis, rep *compliance.Report) (string, error) {
	rel := filepath.Join("reports", runID+".csv")
	path := filepath.Join(p.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating reports dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	if err := report.WriteCSV(f, ds, a, rep); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return rel, f.Close()
}

func printText(w io.Writer, a *fraud.Analysis, out runOutput) {
	fmt.Fprintf(w, "Run %s: %s (%d transactions)\n", out.RunID, out.Source, out.Rows)
	if out.Fraud != nil {
		fmt.Fprintf(w, "\nFraud: %s\n", out.Fraud.Summary)
		for _, f := range out.Fraud.Flagged {
			fmt.Fprintf(w, "  - %s: %s\n", f.ID, report.FraudReasons(f, a.AmountField))
		}
	}
	if out.Compliance != nil {
		fmt.Fprintf(w, "\nCompliance: %s\n", out.Compliance.Summary)
		for _, r := range out.Compliance.NonCompliant {
			for _, v := range r.Violations {
				fmt.Fprintf(w, "  - %s: %s\n", r.ID, report.DescribeViolation(v))
			}
		}
	}
	if out.Report != "" {
		fmt.Fprintf(w, "\nReport written to %s\n", out.Report)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

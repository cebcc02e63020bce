package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/auditai-dev/auditai/internal/auditlog"
)

type logEntry struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Action    string    `json:"action"`
	Source    string    `json:"source"`
	Details   string    `json:"details"`
}

func newLogCommand(g *globalFlags) *cobra.Command {
	var (
		runID  string
		action string
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recorded analysis runs from logs/audit-log.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON {
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
			p, err := loadProject(g)
			if err != nil {
				return err
			}

			entries, err := auditlog.Read(p.root)
			if err != nil {
				return err
			}
			entries = filterEntries(entries, runID, action, limit)

			out := cmd.OutOrStdout()
			if format == formatJSON {
				rows := make([]logEntry, len(entries))
				for i, e := range entries {
					rows[i] = logEntry(e)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, "No audit log entries.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s  %-16s  %s  %s\n",
					e.Timestamp.UTC().Format(time.RFC3339), e.RunID, e.Action, e.Source, e.Details)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "only show entries for this run ID")
	cmd.Flags().StringVar(&action, "action", "", "only show entries with this action (fraud_check, compliance_check, ask, write_report)")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most the last N matching entries (0 for all)")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or json")

	return cmd
}

// filterEntries keeps entries matching runID and action (empty matches all)
// and then the last limit of them.
func filterEntries(entries []auditlog.Entry, runID, action string, limit int) []auditlog.Entry {
	var out []auditlog.Entry
	for _, e := range entries {
		if runID != "" && e.RunID != runID {
			continue
		}
		if action != "" && e.Action != action {
			continue
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

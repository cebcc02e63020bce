package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/auditai-dev/auditai/internal/compliance"
	"github.com/auditai-dev/auditai/internal/fraud"
	"github.com/auditai-dev/auditai/internal/model"
	"github.com/auditai-dev/auditai/internal/report"
	"github.com/auditai-dev/auditai/internal/session"
)

// Tool names.
const (
	FraudDetector     = "FraudDetector"
	ComplianceChecker = "ComplianceChecker"
	DatasetSummary    = "DatasetSummary"
)

// NoData is returned by every tool when the session has no dataset.
const NoData = "No data loaded."

// maxListed caps how many flagged rows a tool answer names.
const maxListed = 10

// Options tune tool output.
type Options struct {
	CurrencySymbol string
}

// ForSession returns a registry whose tools analyze the session's dataset.
// A nil session behaves like one with no dataset.
func ForSession(s *session.Session, opts Options) *Registry {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "₹"
	}
	var ds *model.Dataset
	if s != nil {
		ds = s.Dataset
	}

	r := NewRegistry()
	r.Register(Tool{
		Name:        FraudDetector,
		Description: "Flags potentially fraudulent transactions: amounts more than two standard deviations above the mean, and rows with missing fields. Input is ignored.",
		Run: func(context.Context, string) (string, error) {
			if ds == nil {
				return NoData, nil
			}
			return describeFraud(ds, opts.CurrencySymbol), nil
		},
	})
	r.Register(Tool{
		Name:        ComplianceChecker,
		Description: "Checks every transaction against the configured compliance rules and lists the violations. Input is ignored.",
		Run: func(context.Context, string) (string, error) {
			if ds == nil {
				return NoData, nil
			}
			if s.RulesErr != nil {
				return "Compliance rules could not be loaded: " + s.RulesErr.Error(), nil
			}
			return describeCompliance(ds, s.Rules)
		},
	})
	r.Register(Tool{
		Name:        DatasetSummary,
		Description: "Describes the loaded dataset: row count and columns. Pass a column name to get its numeric statistics.",
		Run: func(_ context.Context, input string) (string, error) {
			if ds == nil {
				return NoData, nil
			}
			return describeDataset(ds, strings.TrimSpace(input)), nil
		},
	})
	return r
}

func describeFraud(ds *model.Dataset, symbol string) string {
	a := fraud.Detect(ds)
	var b strings.Builder
	b.WriteString(report.FraudSummary(ds, a, symbol))
	listRows(&b, a.Flagged(), func(f fraud.RowFlag) string {
		var why []string
		if f.ByAmount {
			why = append(why, a.AmountField+"="+ds.Rows[f.Index].Get(a.AmountField).String())
		}
		if f.ByMissing {
			why = append(why, "missing "+strings.Join(f.MissingFields, ", "))
		}
		return f.ID + ": " + strings.Join(why, "; ")
	})
	return b.String()
}

func describeCompliance(ds *model.Dataset, rules []model.Rule) (string, error) {
	rep, err := compliance.Evaluate(ds, rules)
	if err != nil {
		if compliance.IsConfigError(err) {
			return "Compliance rules are invalid: " + err.Error(), nil
		}
		return "", err
	}
	var b strings.Builder
	b.WriteString(report.ComplianceSummary(rep))
	listRows(&b, rep.NonCompliant(), func(r compliance.RowResult) string {
		descs := make([]string, len(r.Violations))
		for i, v := range r.Violations {
			descs[i] = report.DescribeViolation(v)
		}
		return r.ID + ": " + strings.Join(descs, "; ")
	})
	return b.String(), nil
}

func describeDataset(ds *model.Dataset, column string) string {
	if column == "" {
		return fmt.Sprintf("%d transactions with columns: %s.", ds.Len(), strings.Join(ds.Columns, ", "))
	}
	if !ds.HasColumn(column) {
		return fmt.Sprintf("Column %q is not yet available. Columns: %s.", column, strings.Join(ds.Columns, ", "))
	}

	var values []float64
	nulls := 0
	for _, row := range ds.Rows {
		v := row.Get(column)
		if v.IsNull() {
			nulls++
			continue
		}
		if f, ok := v.Float64(); ok {
			values = append(values, f)
		}
	}
	if len(values) == 0 {
		return fmt.Sprintf("Column %q has no numeric values (%d missing).", column, nulls)
	}
	st := fraud.ComputeStats(values)
	return fmt.Sprintf("Column %q: %d numeric values, mean %.2f, standard deviation %.2f, %d missing.",
		column, st.Count, st.Mean, st.StdDev, nulls)
}

func listRows[T any](b *strings.Builder, rows []T, line func(T) string) {
	for i, r := range rows {
		if i == maxListed {
			fmt.Fprintf(b, "\n... and %d more", len(rows)-maxListed)
			return
		}
		b.WriteString("\n- ")
		b.WriteString(line(r))
	}
}

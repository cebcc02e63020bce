package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/auditai-dev/auditai/internal/compliance"
	"github.com/auditai-dev/auditai/internal/fraud"
	"github.com/auditai-dev/auditai/internal/model"
)

// FlaggedExposure sums the amount column over flagged rows. Rows without a
// numeric amount contribute nothing.
func FlaggedExposure(ds *model.Dataset, a *fraud.Analysis) decimal.Decimal {
	total := decimal.Zero
	if a.AmountField == "" {
		return total
	}
	for _, f := range a.Flagged() {
		if v := ds.Rows[f.Index].Get(a.AmountField); v.Kind == model.KindNumber {
			total = total.Add(decimal.NewFromFloat(v.Num))
		}
	}
	return total
}

// FraudSummary is the one-line outcome of a fraud analysis.
func FraudSummary(ds *model.Dataset, a *fraud.Analysis, symbol string) string {
	if ds.Len() == 0 {
		return "No transactions to analyze."
	}

	byAmount, byMissing := 0, 0
	for _, r := range a.Rows {
		if r.ByAmount {
			byAmount++
		}
		if r.ByMissing {
			byMissing++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s found out of %d", plural(a.Count(), "potentially fraudulent transaction"), ds.Len())
	if a.Stats != nil {
		fmt.Fprintf(&b, " (%d above the %s threshold of %s, %d with missing fields)",
			byAmount, a.AmountField,
			FormatCurrency(symbol, decimal.NewFromFloat(a.Stats.Threshold)),
			byMissing)
		if exposure := FlaggedExposure(ds, a); !exposure.IsZero() {
			fmt.Fprintf(&b, "; flagged exposure %s", FormatCurrency(symbol, exposure))
		}
	} else {
		fmt.Fprintf(&b, " (no amount column available; %d with missing fields)", byMissing)
	}
	b.WriteByte('.')
	return b.String()
}

// ComplianceSummary is the one-line outcome of a compliance evaluation.
func ComplianceSummary(r *compliance.Report) string {
	if len(r.Rows) == 0 {
		return "No transactions to check."
	}
	if r.RuleCount == 0 {
		return "No compliance rules configured."
	}
	nc := len(r.NonCompliant())
	if nc == 0 {
		if len(r.Rows) == 1 {
			return fmt.Sprintf("The transaction is compliant with %s.", plural(r.RuleCount, "rule"))
		}
		return fmt.Sprintf("All %d transactions are compliant with %s.", len(r.Rows), plural(r.RuleCount, "rule"))
	}
	return fmt.Sprintf("%s found (%s across %s).",
		plural(nc, "non-compliant transaction"),
		plural(r.TotalViolations(), "violation"),
		plural(r.ViolatedRules(), "rule"))
}

// plural renders "1 rule" or "3 rules".
func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// DescribeViolation renders a violation as "R-1 salary=200000 (expected <= 100000): desc".
func DescribeViolation(v model.Violation) string {
	s := fmt.Sprintf("%s %s=%s (expected %s)", v.RuleID, v.Field, model.FormatNumber(v.Value), v.Expected)
	if v.Description != "" {
		s += ": " + v.Description
	}
	return s
}

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/auditai-dev/auditai/internal/compliance"
	"github.com/auditai-dev/auditai/internal/fraud"
	"github.com/auditai-dev/auditai/internal/model"
)

// Extra columns appended after the dataset's own columns.
var extraColumns = []string{"row_id", fraud.Column, "fraud_reasons", compliance.Column, "violation_details"}

// WriteCSV writes one line per dataset row: the original columns followed by
// the row ID, fraud flag and reasons, and violated rule IDs and details.
// Either analysis may be nil, in which case its columns are left empty.
func WriteCSV(w io.Writer, ds *model.Dataset, a *fraud.Analysis, r *compliance.Report) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := make([]string, 0, len(ds.Columns)+len(extraColumns))
	for _, c := range ds.Columns {
		header = append(header, SanitizeCell(c))
	}
	header = append(header, extraColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	annotated := ds
	if a != nil {
		annotated = a.Annotate(annotated)
	}
	if r != nil {
		annotated = r.Annotate(annotated)
	}

	for i, row := range ds.Rows {
		rec := make([]string, 0, len(header))
		for _, c := range ds.Columns {
			rec = append(rec, SanitizeCell(row.Get(c).String()))
		}

		derived := annotated.Rows[i]
		var rowID, reasons, details string
		if a != nil {
			rowID = a.Rows[i].ID
			reasons = FraudReasons(a.Rows[i], a.AmountField)
		}
		if r != nil {
			rowID = r.Rows[i].ID
			descs := make([]string, len(r.Rows[i].Violations))
			for j, v := range r.Rows[i].Violations {
				descs[j] = DescribeViolation(v)
			}
			details = strings.Join(descs, "; ")
		}

		rec = append(rec,
			SanitizeCell(rowID),
			derivedCell(a != nil, derived, fraud.Column),
			SanitizeCell(reasons),
			derivedCell(r != nil, derived, compliance.Column),
			SanitizeCell(details),
		)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// derivedCell reads an annotated column, or "" when that analysis was not run.
func derivedCell(ran bool, row model.Row, column string) string {
	if !ran {
		return ""
	}
	return SanitizeCell(row.Get(column).String())
}

// FraudReasons explains why a row was flagged: "amount above threshold; missing region".
func FraudReasons(f fraud.RowFlag, amountField string) string {
	var reasons []string
	if f.ByAmount {
		reasons = append(reasons, amountField+" above threshold")
	}
	if f.ByMissing {
		reasons = append(reasons, "missing "+strings.Join(f.MissingFields, ", "))
	}
	return strings.Join(reasons, "; ")
}

// Package fraud flags statistically unusual or incomplete transactions.
//
// A row is flagged when its amount strictly exceeds mean + 2*stddev of the
// dataset's amount column (sample standard deviation), or when any of its
// fields is missing.
package fraud

import (
	"math"
	"strings"

	"github.com/auditai-dev/auditai/internal/id"
	"github.com/auditai-dev/auditai/internal/model"
)

// Column is the derived attribute added by Analysis.Annotate.
const Column = "is_fraud"

// StdDevMultiplier scales the standard deviation in the threshold.
const StdDevMultiplier = 2

// Stats summarizes the amount column.
type Stats struct {
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"stddev"`
	Threshold float64 `json:"threshold"`
}

// RowFlag is the per-row outcome.
type RowFlag struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	ByAmount  bool   `json:"by_amount"`
	ByMissing bool   `json:"by_missing"`
	// MissingFields lists the columns that were absent or null.
	MissingFields []string `json:"missing_fields,omitempty"`
}

// IsFraud reports whether the row is flagged for any reason.
func (f RowFlag) IsFraud() bool { return f.ByAmount || f.ByMissing }

// Analysis is the result of Detect. Rows is parallel to the dataset's rows.
type Analysis struct {
	AmountField string    `json:"amount_field,omitempty"`
	Stats       *Stats    `json:"stats,omitempty"`
	Rows        []RowFlag `json:"rows"`
}

// Flagged returns the rows with IsFraud set, in dataset order.
func (a *Analysis) Flagged() []RowFlag {
	var out []RowFlag
	for _, r := range a.Rows {
		if r.IsFraud() {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of flagged rows.
func (a *Analysis) Count() int {
	n := 0
	for _, r := range a.Rows {
		if r.IsFraud() {
			n++
		}
	}
	return n
}

// AmountField returns the first column whose name contains "amount"
// (case-insensitive). Only that column is considered: when its non-null
// values are not all numeric, AmountField returns "" and no row is flagged by
// amount.
func AmountField(ds *model.Dataset) string {
	for _, col := range ds.Columns {
		if !strings.Contains(strings.ToLower(col), "amount") {
			continue
		}
		if numericColumn(ds, col) {
			return col
		}
		return ""
	}
	return ""
}

// Detect flags every row of ds. It never fails: an empty dataset yields an
// empty analysis and a dataset without an amount column is only checked for
// missing fields.
func Detect(ds *model.Dataset) *Analysis {
	a := &Analysis{Rows: make([]RowFlag, ds.Len())}
	if ds.Len() == 0 {
		return a
	}

	a.AmountField = AmountField(ds)
	if a.AmountField != "" {
		a.Stats = ComputeStats(amounts(ds, a.AmountField))
	}

	idCol := id.IdentifierColumn(ds.Columns)
	for i, row := range ds.Rows {
		flag := RowFlag{Index: i, ID: id.RowID(idCol, row, i)}

		if a.Stats != nil {
			if v := row.Get(a.AmountField); v.Kind == model.KindNumber {
				flag.ByAmount = v.Num > a.Stats.Threshold
			}
		}

		for _, col := range ds.Columns {
			if row.Missing(col) {
				flag.MissingFields = append(flag.MissingFields, col)
			}
		}
		flag.ByMissing = len(flag.MissingFields) > 0

		a.Rows[i] = flag
	}
	return a
}

// Annotate returns a copy of ds carrying this analysis' is_fraud column.
// ds must be the dataset the analysis was computed from.
func (a *Analysis) Annotate(ds *model.Dataset) *model.Dataset {
	return ds.WithColumn(Column, func(i int, _ model.Row) model.Value {
		return model.Bool(a.Rows[i].IsFraud())
	})
}

// ComputeStats returns mean, sample standard deviation (N-1 denominator) and
// the threshold mean + 2*stddev. Fewer than two values give stddev 0.
func ComputeStats(values []float64) *Stats {
	s := &Stats{Count: len(values)}
	if len(values) == 0 {
		return s
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	s.Mean = sum / float64(len(values))

	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			d := v - s.Mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(len(values)-1))
	}

	s.Threshold = s.Mean + StdDevMultiplier*s.StdDev
	return s
}

func numericColumn(ds *model.Dataset, col string) bool {
	seen := false
	for _, row := range ds.Rows {
		v := row.Get(col)
		if v.IsNull() {
			continue
		}
		if v.Kind != model.KindNumber {
			return false
		}
		seen = true
	}
	return seen
}

func amounts(ds *model.Dataset, col string) []float64 {
	out := make([]float64, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		if v := row.Get(col); v.Kind == model.KindNumber {
			out = append(out, v.Num)
		}
	}
	return out
}

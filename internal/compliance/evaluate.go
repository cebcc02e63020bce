// Package compliance evaluates declarative threshold rules against dataset rows.
package compliance

import (
	"strings"

	"github.com/auditai-dev/auditai/internal/id"
	"github.com/auditai-dev/auditai/internal/model"
)

// Column is the derived attribute added by Report.Annotate.
const Column = "compliance_issues"

// CategoryField is the row field a rule's category scope is matched against.
const CategoryField = "category"

// RowResult lists the violations of one row.
type RowResult struct {
	Index      int               `json:"index"`
	ID         string            `json:"id"`
	Violations []model.Violation `json:"violations"`
}

// Compliant reports whether the row has no violations.
func (r RowResult) Compliant() bool { return len(r.Violations) == 0 }

// Report is the outcome of Evaluate. Rows is parallel to the dataset's rows.
type Report struct {
	RuleCount int         `json:"rule_count"`
	Rows      []RowResult `json:"rows"`
}

// NonCompliant returns rows with at least one violation, in dataset order.
func (r *Report) NonCompliant() []RowResult {
	var out []RowResult
	for _, row := range r.Rows {
		if !row.Compliant() {
			out = append(out, row)
		}
	}
	return out
}

// TotalViolations counts violations across all rows.
func (r *Report) TotalViolations() int {
	n := 0
	for _, row := range r.Rows {
		n += len(row.Violations)
	}
	return n
}

// ViolatedRules counts the distinct rules with at least one violation.
func (r *Report) ViolatedRules() int {
	seen := make(map[string]bool)
	for _, row := range r.Rows {
		for _, v := range row.Violations {
			seen[v.RuleID] = true
		}
	}
	return len(seen)
}

// Compliant reports whether no row has a violation.
func (r *Report) Compliant() bool {
	return r.TotalViolations() == 0
}

// Annotate returns a copy of ds with a compliance_issues column holding the
// violated rule IDs joined by "; " (empty when compliant).
func (r *Report) Annotate(ds *model.Dataset) *model.Dataset {
	return ds.WithColumn(Column, func(i int, _ model.Row) model.Value {
		ids := make([]string, len(r.Rows[i].Violations))
		for j, v := range r.Rows[i].Violations {
			ids[j] = v.RuleID
		}
		return model.String(strings.Join(ids, "; "))
	})
}

// Evaluate checks every row against every applicable rule. The rule set is
// validated first; an invalid rule aborts the run with a *ConfigError before
// any row is processed. Rows whose values are missing, out of category scope
// or not numeric are skipped for that rule.
func Evaluate(ds *model.Dataset, rules []model.Rule) (*Report, error) {
	if err := Validate(rules); err != nil {
		return nil, err
	}

	report := &Report{RuleCount: len(rules), Rows: make([]RowResult, ds.Len())}
	if ds.Len() == 0 {
		return report, nil
	}

	idCol := id.IdentifierColumn(ds.Columns)
	for i, row := range ds.Rows {
		res := RowResult{Index: i, ID: id.RowID(idCol, row, i), Violations: []model.Violation{}}
		for _, rule := range rules {
			if v, ok := Check(row, rule); ok {
				res.Violations = append(res.Violations, v)
			}
		}
		report.Rows[i] = res
	}
	return report, nil
}

// Check evaluates a single rule against a row and returns the violation, if
// any. The rule is assumed valid.
func Check(row model.Row, rule model.Rule) (model.Violation, bool) {
	if rule.Category != "" {
		if row.Missing(CategoryField) || row.Get(CategoryField).String() != rule.Category {
			return model.Violation{}, false
		}
	}
	if row.Missing(rule.Field) {
		return model.Violation{}, false
	}
	observed, ok := row.Get(rule.Field).Float64()
	if !ok {
		return model.Violation{}, false
	}

	var breached bool
	switch rule.Condition {
	case model.ConditionGreaterThan:
		breached = observed > rule.Value
	case model.ConditionLessThan:
		breached = observed < rule.Value
	}
	if !breached {
		return model.Violation{}, false
	}

	return model.Violation{
		RuleID:      rule.RuleID,
		Description: rule.Description,
		Field:       rule.Field,
		Value:       observed,
		Expected:    rule.Expected(),
	}, true
}

package model

// Condition is the comparison a Rule applies.
type Condition string

const (
	ConditionGreaterThan Condition = "greater_than"
	ConditionLessThan    Condition = "less_than"
)

// Valid reports whether c is a supported condition.
func (c Condition) Valid() bool {
	return c == ConditionGreaterThan || c == ConditionLessThan
}

// Rule is a declarative threshold check against one row field.
type Rule struct {
	RuleID      string    `json:"rule_id" yaml:"rule_id"`
	Description string    `json:"description" yaml:"description"`
	Field       string    `json:"field" yaml:"field"`
	Category    string    `json:"category,omitempty" yaml:"category,omitempty"`
	Condition   Condition `json:"condition" yaml:"condition"`
	Value       float64   `json:"value" yaml:"value"`
}

// Expected renders the bound a compliant value must satisfy:
// "<= 100000" for greater_than, ">= 5" for less_than.
func (r Rule) Expected() string {
	switch r.Condition {
	case ConditionGreaterThan:
		return "<= " + FormatNumber(r.Value)
	case ConditionLessThan:
		return ">= " + FormatNumber(r.Value)
	default:
		return ""
	}
}

// Violation records a row breaching a rule.
type Violation struct {
	RuleID      string  `json:"rule_id"`
	Description string  `json:"description"`
	Field       string  `json:"field"`
	Value       float64 `json:"value"`
	Expected    string  `json:"expected"`
}

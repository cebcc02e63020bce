package compliance

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/auditai-dev/auditai/internal/model"
)

// ConfigError describes a rule set that cannot be evaluated. It is distinct
// from per-row data issues, which never produce errors.
type ConfigError struct {
	Index  int // position in the rule list, -1 for file-level problems
	RuleID string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Index < 0 {
		return "invalid rule configuration: " + e.Reason
	}
	if e.RuleID == "" {
		return fmt.Sprintf("invalid rule #%d: %s", e.Index+1, e.Reason)
	}
	return fmt.Sprintf("invalid rule #%d [%s]: %s", e.Index+1, e.RuleID, e.Reason)
}

// rawRule mirrors Rule with pointer fields so absent keys can be told apart
// from zero values.
type rawRule struct {
	RuleID      *string  `json:"rule_id" yaml:"rule_id"`
	Description string   `json:"description" yaml:"description"`
	Field       *string  `json:"field" yaml:"field"`
	Category    string   `json:"category" yaml:"category"`
	Condition   *string  `json:"condition" yaml:"condition"`
	Value       *float64 `json:"value" yaml:"value"`
}

type ruleFile struct {
	Rules *[]rawRule `json:"rules" yaml:"rules"`
}

// LoadRules reads a rule file. JSON is used unless the extension is .yaml or
// .yml. The document is either a list of rule records or an object with a
// "rules" list. Unknown keys are rejected. The returned rules are validated.
func LoadRules(path string) ([]model.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// ParseJSON decodes and validates a JSON rule document.
func ParseJSON(data []byte) ([]model.Rule, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &ConfigError{Index: -1, Reason: "rule file is empty"}
	}

	var raws []rawRule
	if trimmed[0] == '{' {
		var f ruleFile
		if err := decodeJSON(trimmed, &f); err != nil {
			return nil, err
		}
		if f.Rules == nil {
			return nil, &ConfigError{Index: -1, Reason: `missing "rules" list`}
		}
		raws = *f.Rules
	} else if err := decodeJSON(trimmed, &raws); err != nil {
		return nil, err
	}
	return build(raws)
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ConfigError{Index: -1, Reason: "malformed JSON: " + err.Error()}
	}
	if dec.More() {
		return &ConfigError{Index: -1, Reason: "malformed JSON: trailing data after document"}
	}
	return nil
}

// ParseYAML decodes and validates a YAML rule document.
func ParseYAML(data []byte) ([]model.Rule, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &ConfigError{Index: -1, Reason: "malformed YAML: " + err.Error()}
	}
	if len(node.Content) == 0 {
		return nil, &ConfigError{Index: -1, Reason: "rule file is empty"}
	}

	var raws []rawRule
	switch node.Content[0].Kind {
	case yaml.MappingNode:
		var f ruleFile
		if err := decodeYAML(data, &f); err != nil {
			return nil, err
		}
		if f.Rules == nil {
			return nil, &ConfigError{Index: -1, Reason: `missing "rules" list`}
		}
		raws = *f.Rules
	case yaml.SequenceNode:
		if err := decodeYAML(data, &raws); err != nil {
			return nil, err
		}
	default:
		return nil, &ConfigError{Index: -1, Reason: "expected a list of rules"}
	}
	return build(raws)
}

func decodeYAML(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return &ConfigError{Index: -1, Reason: "malformed YAML: " + err.Error()}
	}
	return nil
}

func build(raws []rawRule) ([]model.Rule, error) {
	rules := make([]model.Rule, 0, len(raws))
	for i, r := range raws {
		rule, err := r.toRule(i)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := Validate(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r rawRule) toRule(i int) (model.Rule, error) {
	ruleID := deref(r.RuleID)
	var missing []string
	if strings.TrimSpace(ruleID) == "" {
		missing = append(missing, "rule_id")
	}
	if r.Field == nil || strings.TrimSpace(*r.Field) == "" {
		missing = append(missing, "field")
	}
	if r.Condition == nil || strings.TrimSpace(*r.Condition) == "" {
		missing = append(missing, "condition")
	}
	if r.Value == nil {
		missing = append(missing, "value")
	}
	if len(missing) > 0 {
		return model.Rule{}, &ConfigError{
			Index:  i,
			RuleID: ruleID,
			Reason: "missing required " + strings.Join(missing, ", "),
		}
	}

	return model.Rule{
		RuleID:      ruleID,
		Description: r.Description,
		Field:       *r.Field,
		Category:    r.Category,
		Condition:   model.Condition(*r.Condition),
		Value:       *r.Value,
	}, nil
}

// Validate checks a rule set: every rule needs an ID, a field and a supported
// condition, and rule IDs must be unique. The first problem is returned as a
// *ConfigError.
func Validate(rules []model.Rule) error {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		switch {
		case strings.TrimSpace(r.RuleID) == "":
			return &ConfigError{Index: i, Reason: "missing required rule_id"}
		case strings.TrimSpace(r.Field) == "":
			return &ConfigError{Index: i, RuleID: r.RuleID, Reason: "missing required field"}
		case !r.Condition.Valid():
			return &ConfigError{
				Index:  i,
				RuleID: r.RuleID,
				Reason: fmt.Sprintf("unknown condition %q (want %q or %q)", r.Condition, model.ConditionGreaterThan, model.ConditionLessThan),
			}
		case seen[r.RuleID]:
			return &ConfigError{Index: i, RuleID: r.RuleID, Reason: "duplicate rule_id"}
		}
		seen[r.RuleID] = true
	}
	return nil
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

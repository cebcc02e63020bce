package compliance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditai-dev/auditai/internal/model"
)

const rulesJSON = `[
  {
    "rule_id": "R-SAL-01",
    "description": "Engineering salary cap",
    "field": "salary",
    "category": "engineering",
    "condition": "greater_than",
    "value": 100000
  },
  {
    "rule_id": "R-AMT-MIN",
    "description": "Negative amounts need review",
    "field": "amount",
    "condition": "less_than",
    "value": 0
  }
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRules_JSONList(t *testing.T) {
	rules, err := LoadRules(writeFile(t, "rules.json", rulesJSON))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, model.Rule{
		RuleID:      "R-SAL-01",
		Description: "Engineering salary cap",
		Field:       "salary",
		Category:    "engineering",
		Condition:   model.ConditionGreaterThan,
		Value:       100000,
	}, rules[0])
	assert.Equal(t, model.ConditionLessThan, rules[1].Condition)
	assert.Empty(t, rules[1].Category)
	assert.InDelta(t, 0, rules[1].Value, 1e-9)
}

func TestLoadRules_JSONObject(t *testing.T) {
	rules, err := LoadRules(writeFile(t, "rules.json", `{"rules": `+rulesJSON+`}`))
	require.NoError(t, err)
	assert.Len(t, rules, 2)
}

func TestLoadRules_YAML(t *testing.T) {
	yml := `rules:
  - rule_id: R-SAL-01
    description: Engineering salary cap
    field: salary
    category: engineering
    condition: greater_than
    value: 100000
`
	rules, err := LoadRules(writeFile(t, "rules.yaml", yml))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "engineering", rules[0].Category)
	assert.InDelta(t, 100000, rules[0].Value, 1e-9)

	list := "- {rule_id: A, field: amount, condition: less_than, value: 5}\n"
	rules, err = LoadRules(writeFile(t, "rules.yml", list))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, model.ConditionLessThan, rules[0].Condition)
}

func TestLoadRules_NotFound(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRules_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{"empty", "  ", "empty"},
		{"malformed", `[{"rule_id": "A",`, "malformed JSON"},
		{"unknown condition", `[{"rule_id":"A","field":"x","condition":"equals","value":1}]`, "unknown condition"},
		{"missing value", `[{"rule_id":"A","field":"x","condition":"less_than"}]`, "value"},
		{"missing field", `[{"rule_id":"A","condition":"less_than","value":1}]`, "field"},
		{"missing rule_id", `[{"field":"x","condition":"less_than","value":1}]`, "rule_id"},
		{"duplicate id", `[{"rule_id":"A","field":"x","condition":"less_than","value":1},{"rule_id":"A","field":"y","condition":"less_than","value":1}]`, "duplicate"},
		{"value not a number", `[{"rule_id":"A","field":"x","condition":"less_than","value":"ten"}]`, "malformed JSON"},
		{"per-field max map", `{"salary": {"max": 100000}}`, `unknown field "salary"`},
		{"misspelled rules key", `{"rule": [{"rule_id":"A","field":"x","condition":"less_than","value":1}]}`, `unknown field "rule"`},
		{"no rules key", `{}`, `missing "rules" list`},
		{"null rules", `{"rules": null}`, `missing "rules" list`},
		{"misspelled category", `[{"rule_id":"A","field":"x","categroy":"eng","condition":"less_than","value":1}]`, `unknown field "categroy"`},
		{"trailing document", `[] []`, "trailing data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRules(writeFile(t, "rules.json", tt.content))
			require.Error(t, err)
			assert.True(t, IsConfigError(err), "want ConfigError, got %v", err)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestLoadRules_YAMLConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{"per-field max map", "salary:\n  max: 100000\n", "field salary not found"},
		{"misspelled rules key", "rule:\n  - {rule_id: A, field: x, condition: less_than, value: 1}\n", "field rule not found"},
		{"no rules key", "{}\n", `missing "rules" list`},
		{"misspelled category", "- {rule_id: A, field: x, categroy: eng, condition: less_than, value: 1}\n", "field categroy not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRules(writeFile(t, "rules.yaml", tt.content))
			require.Error(t, err)
			assert.True(t, IsConfigError(err), "want ConfigError, got %v", err)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestLoadRules_EmptyRulesList(t *testing.T) {
	rules, err := ParseJSON([]byte(`{"rules": []}`))
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestParseYAML_NotAList(t *testing.T) {
	_, err := ParseYAML([]byte("just a string\n"))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate([]model.Rule{salaryRule}))

	err := Validate([]model.Rule{{RuleID: "X", Field: "f", Condition: "between"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid rule #1 [X]: unknown condition "between"`)
}

func TestConfigErrorMessage(t *testing.T) {
	assert.Equal(t, "invalid rule configuration: bad", (&ConfigError{Index: -1, Reason: "bad"}).Error())
	assert.Equal(t, "invalid rule #2: bad", (&ConfigError{Index: 1, Reason: "bad"}).Error())
}

package commands_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditai-dev/auditai/internal/auditlog"
)

func testdata(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return path
}

func TestAudit_Text(t *testing.T) {
	dir := initProject(t)
	out, err := runAuditaiStdout(t, "audit", testdata(t, "transactions.csv"), "--repo", dir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "(10 transactions)")
	assert.Contains(t, out, "Fraud: 2 potentially fraudulent transactions found out of 10")
	assert.Contains(t, out, "threshold of ₹18,613.90")
	assert.Contains(t, out, "flagged exposure ₹26,050.00")
	assert.Contains(t, out, "  - T005: missing region")
	assert.Contains(t, out, "  - T010: amount above threshold")

	assert.Contains(t, out, "Compliance: 3 non-compliant transactions found (3 violations across 2 rules).")
	assert.Contains(t, out, "  - T002: R-002 salary=120000 (expected <= 100000)")
	assert.Contains(t, out, "  - T004: R-003 credit_score=280 (expected >= 300)")
	assert.Contains(t, out, "  - T009: R-002 salary=101000")
	assert.NotContains(t, out, "T004: R-002")

	entries, err := auditlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, auditlog.ActionFraud, entries[0].Action)
	assert.Equal(t, auditlog.ActionCompliance, entries[1].Action)
	assert.Equal(t, entries[0].RunID, entries[1].RunID)
}

func TestAudit_JSON(t *testing.T) {
	dir := initProject(t)
	out, err := runAuditaiStdout(t, "audit", testdata(t, "transactions.csv"), "--repo", dir, "--format", "json")
	require.NoError(t, err, out)

	var got struct {
		RunID string `json:"run_id"`
		Rows  int    `json:"rows"`
		Fraud struct {
			AmountField string `json:"amount_field"`
			Stats       struct {
				Mean      float64 `json:"mean"`
				Threshold float64 `json:"threshold"`
			} `json:"stats"`
			Flagged []struct {
				ID        string `json:"id"`
				ByAmount  bool   `json:"by_amount"`
				ByMissing bool   `json:"by_missing"`
			} `json:"flagged"`
		} `json:"fraud"`
		Compliance struct {
			RuleCount    int `json:"rule_count"`
			Violations   int `json:"violations"`
			NonCompliant []struct {
				ID string `json:"id"`
			} `json:"non_compliant"`
		} `json:"compliance"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)

	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, 10, got.Rows)
	assert.Equal(t, "amount", got.Fraud.AmountField)
	assert.InDelta(t, 3511, got.Fraud.Stats.Mean, 1e-9)
	assert.InDelta(t, 18613.8958, got.Fraud.Stats.Threshold, 1e-3)
	require.Len(t, got.Fraud.Flagged, 2)
	assert.Equal(t, "T005", got.Fraud.Flagged[0].ID)
	assert.True(t, got.Fraud.Flagged[0].ByMissing)
	assert.Equal(t, "T010", got.Fraud.Flagged[1].ID)
	assert.True(t, got.Fraud.Flagged[1].ByAmount)

	assert.Equal(t, 3, got.Compliance.RuleCount)
	assert.Equal(t, 3, got.Compliance.Violations)
	require.Len(t, got.Compliance.NonCompliant, 3)
	assert.Equal(t, "T002", got.Compliance.NonCompliant[0].ID)
}

func TestAudit_ReportIsWrittenAndCommitted(t *testing.T) {
	dir := initProject(t)
	out, err := runAuditaiStdout(t, "audit", testdata(t, "transactions.csv"), "--repo", dir, "--report")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Report written to reports/")

	matches, err := filepath.Glob(filepath.Join(dir, "reports", "*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 11)
	assert.True(t, strings.HasSuffix(lines[0], "row_id,is_fraud,fraud_reasons,compliance_issues,violation_details"))

	entries, err := auditlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, auditlog.ActionReport, entries[2].Action)

	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	msg, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "audit: transactions.csv")
}

func TestFraudCommand(t *testing.T) {
	dir := initProject(t)
	out, err := runAuditaiStdout(t, "fraud", testdata(t, "transactions.csv"), "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Fraud: 2 potentially fraudulent")
	assert.NotContains(t, out, "Compliance:")
}

func TestComplianceCommand(t *testing.T) {
	dir := initProject(t)
	out, err := runAuditaiStdout(t, "compliance", testdata(t, "transactions.csv"), "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Compliance: 3 non-compliant")
	assert.NotContains(t, out, "Fraud:")
}

func TestCompliance_InvalidRulesAbort(t *testing.T) {
	dir := initProject(t)
	out, err := runAuditai(t, "audit", testdata(t, "transactions.csv"), "--repo", dir, "--rules", testdata(t, "bad-rules.json"))
	require.Error(t, err)
	assert.Contains(t, out, "invalid rule #2 [R-002]")

	entries, err := auditlog.Read(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no analysis should be recorded")
}

func TestAudit_UnsupportedFile(t *testing.T) {
	dir := initProject(t)
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	out, err := runAuditai(t, "audit", path, "--repo", dir)
	require.Error(t, err)
	assert.Contains(t, out, "unsupported file format")
}

func TestAudit_BadFormat(t *testing.T) {
	dir := initProject(t)
	out, err := runAuditai(t, "audit", testdata(t, "transactions.csv"), "--repo", dir, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, out, `unknown format "xml"`)
}

func TestRulesValidate(t *testing.T) {
	dir := initProject(t)
	out, err := runAuditaiStdout(t, "rules", "validate", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "3 valid rules")
	assert.Contains(t, out, "R-002 [engineering]: salary must be <= 100000")

	out, err = runAuditai(t, "rules", "validate", testdata(t, "bad-rules.json"), "--repo", dir)
	require.Error(t, err)
	assert.Contains(t, out, "unknown condition")
}

func TestAsk_RequiresAPIKey(t *testing.T) {
	dir := initProject(t)
	out, err := runAuditai(t, "ask", testdata(t, "transactions.csv"), "any", "fraud?", "--repo", dir)
	require.Error(t, err)
	assert.Contains(t, out, "no API key: set GEMINI_API_KEY")
}

func TestAudit_ScansDataDir(t *testing.T) {
	dir := initProject(t)
	src, err := os.ReadFile(testdata(t, "transactions.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "q1.csv"), src, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "q2.csv"), src, 0o644))

	out, err := runAuditaiStdout(t, "audit", "--repo", dir)
	require.NoError(t, err, out)
	assert.Equal(t, 2, strings.Count(out, "Fraud: 2 potentially fraudulent"))

	entries, err := auditlog.Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestAudit_EmptyDataDir(t *testing.T) {
	dir := initProject(t)
	out, err := runAuditai(t, "audit", "--repo", dir)
	require.Error(t, err)
	assert.Contains(t, out, "no CSV or XLSX files in data/")
}

func TestAudit_ReportSkipsEmptyCommit(t *testing.T) {
	dir := initProject(t)
	exclude := filepath.Join(dir, ".git", "info", "exclude")
	require.NoError(t, os.MkdirAll(filepath.Dir(exclude), 0o755))
	require.NoError(t, os.WriteFile(exclude, []byte("reports/*.csv\nlogs/\n"), 0o644))

	out, err := runAuditaiStdout(t, "audit", testdata(t, "transactions.csv"), "--repo", dir, "--report")
	require.NoError(t, err, out)

	log := exec.Command("git", "log", "--format=%s")
	log.Dir = dir
	msgs, err := log.Output()
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(string(msgs)), "\n")+1, "only the init commit: %s", msgs)
	assert.NotContains(t, string(msgs), "audit:")
}

func TestLog(t *testing.T) {
	dir := initProject(t)

	out, err := runAuditaiStdout(t, "log", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "No audit log entries.")

	out, err = runAuditaiStdout(t, "audit", testdata(t, "transactions.csv"), "--repo", dir)
	require.NoError(t, err, out)

	out, err = runAuditaiStdout(t, "log", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "fraud_check")
	assert.Contains(t, out, "compliance_check")
	assert.Contains(t, out, "2 potentially fraudulent transactions found out of 10")

	out, err = runAuditaiStdout(t, "log", "--repo", dir, "--action", "compliance_check", "--format", "json")
	require.NoError(t, err, out)
	var got []struct {
		RunID   string `json:"run_id"`
		Action  string `json:"action"`
		Details string `json:"details"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "compliance_check", got[0].Action)
	assert.Contains(t, got[0].Details, "3 non-compliant transactions")

	out, err = runAuditaiStdout(t, "log", "--repo", dir, "--run", "nope", "--format", "json")
	require.NoError(t, err, out)
	assert.JSONEq(t, "[]", out)
}

package auditlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func entry(action string) Entry {
	return Entry{
		Timestamp: at,
		RunID:     "20250115-103000-1a2b3c4d",
		Action:    action,
		Source:    "data/q1.csv",
		Details:   "2 potentially fraudulent transactions found out of 40.",
	}
}

func TestAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, entry(ActionFraud)))
	require.NoError(t, Append(dir, entry(ActionCompliance), entry(ActionReport)))

	got, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ActionFraud, got[0].Action)
	assert.Equal(t, ActionCompliance, got[1].Action)
	assert.Equal(t, ActionReport, got[2].Action)
	assert.True(t, at.Equal(got[0].Timestamp))
	assert.Equal(t, "data/q1.csv", got[0].Source)

	raw, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, "timestamp,run_id,action,source,details", lines[0])
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "2025-01-15T10:30:00Z,"))
}

func TestAppend_Nothing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir))
	_, err := os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(err))
}

func TestAppend_DetailsWithCommas(t *testing.T) {
	dir := t.TempDir()
	e := entry(ActionCompliance)
	e.Details = "R1, R2 violated; \"quoted\""
	require.NoError(t, Append(dir, e))

	got, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.Details, got[0].Details)
}

func TestRead_Missing(t *testing.T) {
	got, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRead_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(Path(dir), []byte("timestamp,run_id,action,source,details\n"), 0o644))

	got, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRead_BadTimestamp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	body := "timestamp,run_id,action,source,details\nyesterday,r,a,s,d\n"
	require.NoError(t, os.WriteFile(Path(dir), []byte(body), 0o644))

	_, err := Read(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

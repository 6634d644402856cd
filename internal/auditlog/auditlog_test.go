package auditlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTime  = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	testRunID = uuid.MustParse("4a6c1f0e-2b0d-4c55-9d1e-3f7a8b9c0d1e")
)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		RunID:     testRunID,
		Stage:     "journalize",
		Action:    ActionStage,
		Details:   "12 entries, 12 dated on or before 2025-01-31",
	}
}

func TestAppendCreatesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "audit-log.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), Header+"\n")

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "journalize", entries[0].Stage)
}

func TestAppendKeepsExistingEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Stage = ""
	e2.Action = ActionRunFailed
	e2.Details = "reconciliation failed: balance_sheet"
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionStage, entries[0].Action)
	assert.Equal(t, ActionRunFailed, entries[1].Action)
}

func TestReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testEntry()
	original.EntryID = "2025-01-003"
	original.Details = `memo with "quotes", commas`
	require.NoError(t, Append(dir, []Entry{original}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, original.RunID, got.RunID)
	assert.Equal(t, original.Details, got.Details)
	assert.Equal(t, original.EntryID, got.EntryID)
}

func TestReadNotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestReadRejectsBadRunID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	content := Header + "\n2025-01-15T10:30:00Z,not-a-uuid,ledger,stage_complete,,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "audit-log.csv"), []byte(content), 0o644))

	_, err := Read(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestRun(t *testing.T) {
	r := NewRun(func() time.Time { return testTime })
	r.Record("", ActionRunStarted, "input=in")
	r.Record("ledger", ActionStage, "4 rows")

	entries := r.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, r.ID, e.RunID)
		assert.True(t, testTime.Equal(e.Timestamp))
	}
	assert.NotEqual(t, r.ID, NewRun(nil).ID)
}

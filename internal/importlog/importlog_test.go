package importlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

const testRun = "6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f"

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		RunID:     testRun,
		Source:    "mortgage",
		Action:    ActionStaged,
		Details:   "/data/fifththird.jsonl",
		Count:     12,
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	err := Append(dir, []Entry{testEntry()})
	require.NoError(t, err)

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "mortgage", entries[0].Source)
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Source = "brokerage"
	e2.Action = ActionSkipped
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "mortgage", entries[0].Source)
	assert.Equal(t, "brokerage", entries[1].Source)
	assert.Equal(t, ActionSkipped, entries[1].Action)
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testEntry()
	require.NoError(t, Append(dir, []Entry{original}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, original.RunID, got.RunID)
	assert.Equal(t, original.Source, got.Source)
	assert.Equal(t, original.Action, got.Action)
	assert.Equal(t, original.Details, got.Details)
	assert.Equal(t, original.Count, got.Count)
}

func TestRead_NotFound(t *testing.T) {
	dir := t.TempDir()
	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(Path(dir), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected 6 fields")

	row := MarshalEntry(testEntry())
	row[colRunID] = "not-a-uuid"
	_, err = UnmarshalEntry(row)
	assert.Error(t, err)

	row = MarshalEntry(testEntry())
	row[colCount] = "many"
	_, err = UnmarshalEntry(row)
	assert.Error(t, err)
}

func TestTimestampFormat(t *testing.T) {
	row := MarshalEntry(testEntry())
	assert.Equal(t, "2025-01-15T10:30:00Z", row[colTimestamp])
	assert.Equal(t, "12", row[colCount])
}

func TestAppend_CreatesDir(t *testing.T) {
	dir := t.TempDir()
	err := Append(dir, []Entry{testEntry()})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

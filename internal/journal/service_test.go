package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgersynth/internal/model"
)

func TestOpen_Missing(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "ledger.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, l.Directives())
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books", "ledger.jsonl")
	l, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())

	require.NoError(t, l.Append([]model.Directive{sampleTransaction()}, nil))
	require.NoError(t, l.Append([]model.Directive{sampleBalance()}, nil))
	assert.Len(t, l.Directives(), 2)

	reopened, err := Open(path)
	require.NoError(t, err)
	require.Len(t, reopened.Directives(), 2)
	_, isTxn := reopened.Directives()[0].(model.Transaction)
	assert.True(t, isTxn)
	_, isBal := reopened.Directives()[1].(model.Balance)
	assert.True(t, isBal)
}

func TestAppend_ValidationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	l, err := Open(path)
	require.NoError(t, err)

	bad := sampleTransaction()
	bad.Postings[0].Units = usd("1.234")
	err = l.Append([]model.Directive{bad}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing is written on failure")
	assert.Empty(t, l.Directives())
}

func TestOpen_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{broken\n"), 0o644))
	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "ledger.jsonl"))
	require.NoError(t, err)
	require.NoError(t, l.Append([]model.Directive{sampleBalance()}, nil))

	out := filepath.Join(dir, "ledger.beancount")
	require.NoError(t, l.Render(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "balance Liabilities:Mortgage")
}

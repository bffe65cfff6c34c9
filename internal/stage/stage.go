// Package stage holds pending import results until they are accepted into
// the ledger.
package stage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleared-dev/ledgersynth/internal/accounts"
	"github.com/cleared-dev/ledgersynth/internal/journal"
	"github.com/cleared-dev/ledgersynth/internal/model"
)

// Files written to the staging directory.
const (
	PendingFile  = "pending.jsonl"
	ReviewFile   = "pending.beancount"
	AccountsFile = "accounts.csv"
)

// Collector accumulates pending results and the accounts they need.
type Collector struct {
	dir      string
	results  []model.ImportResult
	accounts *accounts.Service
	create   func(path string) (io.WriteCloser, error)
}

func createFile(path string) (io.WriteCloser, error) { return os.Create(path) }

// New returns an empty collector for dir.
func New(dir string) *Collector {
	return &Collector{dir: dir, accounts: accounts.NewService(nil), create: createFile}
}

// Load reads the staged state in dir. Missing files are empty.
func Load(dir string) (*Collector, error) {
	c := New(dir)

	f, err := os.Open(filepath.Join(dir, PendingFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("opening pending entries: %w", err)
	default:
		defer f.Close()
		rs, err := journal.ReadResults(f)
		if err != nil {
			return nil, fmt.Errorf("reading pending entries: %w", err)
		}
		c.results = rs
	}

	accts, err := accounts.Load(filepath.Join(dir, AccountsFile))
	if err != nil {
		return nil, err
	}
	c.accounts = accts
	return c, nil
}

// Dir returns the staging directory.
func (c *Collector) Dir() string { return c.dir }

// AddPending stages one result.
func (c *Collector) AddPending(r model.ImportResult) {
	c.results = append(c.results, r)
}

// AddAccount records an account that should exist in the ledger.
func (c *Collector) AddAccount(name, source string) error {
	_, err := c.accounts.Add(name, source)
	return err
}

// Results returns the staged results in the order they were added.
func (c *Collector) Results() []model.ImportResult { return c.results }

// Accounts returns the accounts referenced by staged results.
func (c *Collector) Accounts() *accounts.Service { return c.accounts }

// Directives flattens the staged results.
func (c *Collector) Directives() []model.Directive {
	var out []model.Directive
	for _, r := range c.results {
		out = append(out, r.Entries...)
	}
	return out
}

// Save writes the pending entries, their beancount rendering and the account list.
func (c *Collector) Save() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	if err := c.writeFile(PendingFile, func(f io.Writer) error { return journal.WriteResults(f, c.results) }); err != nil {
		return err
	}
	if err := c.writeFile(ReviewFile, func(f io.Writer) error { return journal.FormatResults(f, c.results) }); err != nil {
		return err
	}
	return c.accounts.Save(filepath.Join(c.dir, AccountsFile))
}

// Clear drops the staged results and removes the pending files.
// The account list is kept.
func (c *Collector) Clear() error {
	c.results = nil
	for _, name := range []string{PendingFile, ReviewFile} {
		err := os.Remove(filepath.Join(c.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", name, err)
		}
	}
	return nil
}

// Paths lists the files Save writes.
func (c *Collector) Paths() []string {
	return []string{
		filepath.Join(c.dir, PendingFile),
		filepath.Join(c.dir, ReviewFile),
		filepath.Join(c.dir, AccountsFile),
	}
}

func (c *Collector) writeFile(name string, write func(io.Writer) error) error {
	f, err := c.create(filepath.Join(c.dir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	return nil
}

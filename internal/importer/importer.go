package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/ledgersynth/internal/config"
	"github.com/cleared-dev/ledgersynth/internal/logger"
	"github.com/cleared-dev/ledgersynth/internal/model"
)

// Ledger is the read-only view of directives already recorded.
type Ledger interface {
	Directives() []model.Directive
}

// Collector receives the results a source stages.
type Collector interface {
	AddPending(r model.ImportResult)
	AddAccount(name, source string) error
}

// Source turns one configured input into pending import results.
type Source interface {
	Name() string
	Kind() string
	// Rules lists classification rule names in evaluation order.
	Rules() []string
	Prepare(ledger Ledger, c Collector) (Stats, error)
}

// Stats counts what one Prepare call did with its entries. Skipped entries
// were already imported; Excluded entries were dropped by the source itself,
// such as cancelled orders.
type Stats struct {
	Loaded   int
	Skipped  int
	Excluded int
	Empty    int
	Staged   int
	Review   int
}

// Env is the project-wide context every source is built with.
type Env struct {
	Root     string // project root; relative input paths resolve against it
	Currency string
	Review   string // needs-review placeholder account
	Status   logger.Sink
}

// EnvFor derives an Env from the global config.
func EnvFor(cfg *config.Config, root string, status logger.Sink) Env {
	if status == nil {
		status = logger.Discard
	}
	return Env{Root: root, Currency: cfg.Currency, Review: cfg.NeedsReviewAccount, Status: status}
}

// Factory builds a Source from its configuration. Missing or invalid
// mappings are reported as *config.ConfigurationError.
type Factory func(cfg config.SourceConfig, env Env) (Source, error)

// Registry holds source factories by kind.
type Registry struct {
	factories map[string]Factory
}

// FileInfo describes an input file found in a source directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Panics on duplicate kind.
func (r *Registry) Register(kind string, f Factory) {
	key := strings.ToLower(kind)
	if _, ok := r.factories[key]; ok {
		panic("duplicate source kind: " + key)
	}
	r.factories[key] = f
}

// Get returns the factory for kind, or nil.
func (r *Registry) Get(kind string) Factory {
	return r.factories[strings.ToLower(kind)]
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds the source described by sc.
func (r *Registry) New(sc config.SourceConfig, env Env) (Source, error) {
	f := r.Get(sc.Kind)
	if f == nil {
		return nil, &config.ConfigurationError{
			Source: sc.Name,
			Key:    "kind",
			Reason: fmt.Sprintf("unknown kind %q (known: %s)", sc.Kind, strings.Join(r.Kinds(), ", ")),
		}
	}
	return f(sc, env)
}

// Build constructs every configured source up front so that configuration
// problems surface before any record is read.
func (r *Registry) Build(cfg *config.Config, env func(config.SourceConfig) Env) ([]Source, error) {
	sources := make([]Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		s, err := r.New(sc, env(sc))
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}

// DefaultRegistry returns a registry with all built-in source kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindFifthThird, NewFifthThird)
	r.Register(KindVanguard, NewVanguard)
	r.Register(KindWegmans, NewWegmans)
	r.Register(KindChase, NewChase)
	return r
}

// Scan returns the files in dir whose extension is one of exts, sorted by
// name. A missing directory yields no files.
func Scan(dir string, exts ...string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading input dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !hasExt(e.Name(), exts) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Inputs lists the files a source reads: its single file, or the matching
// files of its directory.
func Inputs(root string, sc config.SourceConfig, exts ...string) ([]string, error) {
	if sc.File != "" {
		return []string{config.Path(root, sc.File)}, nil
	}
	files, err := Scan(config.Path(root, sc.Dir), exts...)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}

// Assemble wraps the directives synthesized from one entry. The result is
// dated by its earliest directive.
func Assemble(ds []model.Directive, info model.Provenance) model.ImportResult {
	date := ds[0].EntryDate()
	for _, d := range ds[1:] {
		if d.EntryDate().Before(date) {
			date = d.EntryDate()
		}
	}
	return model.ImportResult{Date: date, Info: info, Entries: ds}
}

// Union presents several ledgers as one.
func Union(ls ...Ledger) Ledger { return union(ls) }

type union []Ledger

func (u union) Directives() []model.Directive {
	var out []model.Directive
	for _, l := range u {
		out = append(out, l.Directives()...)
	}
	return out
}

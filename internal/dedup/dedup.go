// Package dedup recognises entries that an earlier import already staged.
package dedup

import "github.com/cleared-dev/ledgersynth/internal/model"

// Index is the set of ExternalKeys present under one metadata field.
// It is built once per run and only grows through Add.
type Index struct {
	field string
	keys  map[string]struct{}
}

// Build scans every transaction, posting and balance for field.
func Build(directives []model.Directive, field string) *Index {
	idx := &Index{field: field, keys: make(map[string]struct{})}
	for _, d := range directives {
		idx.scan(d.EntryMeta())
		if txn, ok := d.(model.Transaction); ok {
			for _, p := range txn.Postings {
				idx.scan(p.Meta)
			}
		}
	}
	return idx
}

func (idx *Index) scan(m model.Meta) {
	if v, ok := m.Get(idx.field); ok && v != "" {
		idx.keys[v] = struct{}{}
	}
}

// Field returns the metadata key the index was built from.
func (idx *Index) Field() string { return idx.field }

// Contains reports whether key was already imported.
func (idx *Index) Contains(key string) bool {
	_, ok := idx.keys[key]
	return ok
}

// Add records a key staged during the current run.
func (idx *Index) Add(key string) { idx.keys[key] = struct{}{} }

// Len returns the number of known keys.
func (idx *Index) Len() int { return len(idx.keys) }

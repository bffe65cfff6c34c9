package importer

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgersynth/internal/dedup"
	"github.com/cleared-dev/ledgersynth/internal/id"
	"github.com/cleared-dev/ledgersynth/internal/journal"
	"github.com/cleared-dev/ledgersynth/internal/logger"
	"github.com/cleared-dev/ledgersynth/internal/model"
	"github.com/cleared-dev/ledgersynth/internal/record"
	"github.com/cleared-dev/ledgersynth/internal/rules"
	"github.com/cleared-dev/ledgersynth/internal/synth"
)

// Entry is a decoded, per-institution record.
type Entry interface {
	// Date is the ledger date of the entry.
	Date() time.Time
	// Fields is the unprefixed audit metadata. Key fields are read from it.
	Fields() model.Meta
	Origin() model.Provenance
}

// adapter runs one source through load, order, key, dedup, classify,
// synthesize and assemble.
type adapter[E Entry] struct {
	name   string
	kind   string
	prefix string // metadata key prefix and ExternalKey namespace
	keys   []string
	status logger.Sink
	load   func() ([]E, error)
	skip   func(E) (string, bool)
	table  *rules.Table[E, synth.Shape]
}

func (a *adapter[E]) Name() string { return a.name }
func (a *adapter[E]) Kind() string { return a.kind }

func (a *adapter[E]) Rules() []string { return a.table.Names() }

func (a *adapter[E]) keyField() string { return a.prefix + journal.KeySuffix }

// key composes the ExternalKey from the configured fields. Absent fields
// contribute an empty part so positions stay fixed.
func (a *adapter[E]) key(e E) string {
	fields := e.Fields()
	parts := make([]string, len(a.keys))
	for i, k := range a.keys {
		parts[i], _ = fields.Get(k)
	}
	return id.Compose(a.prefix, parts...)
}

// Prepare stages a pending result for every entry not already in ledger.
// Keys seen earlier in the same run are treated as existing.
func (a *adapter[E]) Prepare(ledger Ledger, c Collector) (Stats, error) {
	entries, err := a.load()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Loaded: len(entries)}
	idx := dedup.Build(ledger.Directives(), a.keyField())
	a.status(fmt.Sprintf("%s: %d keys already imported under %s", a.name, idx.Len(), idx.Field()))

	for _, e := range entries {
		if a.skip != nil {
			if reason, skip := a.skip(e); skip {
				a.status(reason)
				st.Excluded++
				continue
			}
		}
		key := a.key(e)
		if idx.Contains(key) {
			st.Skipped++
			continue
		}
		idx.Add(key)

		m, err := a.table.Classify(e)
		if err != nil {
			return st, fmt.Errorf("%s: %w", where(e.Origin()), err)
		}
		audit := synth.Audit{KeyField: a.keyField(), Key: key, Fields: e.Fields().Prefixed(a.prefix)}
		ds := synth.Build(e.Date(), m.Shape, audit)
		if len(ds) == 0 {
			a.status(fmt.Sprintf("%s: rule %s produced no entries for %s", a.name, m.Rule, key))
			st.Empty++
			continue
		}
		c.AddPending(Assemble(ds, e.Origin()))
		st.Staged++
		if m.Shape.NeedsReview {
			st.Review++
		}
		for _, acct := range referenced(ds) {
			if err := c.AddAccount(acct, a.name); err != nil {
				return st, fmt.Errorf("%s: %w", where(e.Origin()), err)
			}
		}
	}
	a.status(fmt.Sprintf("%s: staged %d of %d entries (%d skipped, %d for review)",
		a.name, st.Staged, st.Loaded, st.Skipped, st.Review))
	return st, nil
}

func where(p model.Provenance) string {
	if p.Line > 0 {
		return fmt.Sprintf("%s:%d", p.Path, p.Line)
	}
	return p.Path
}

// referenced lists the accounts the directives post to, in first-seen order.
func referenced(ds []model.Directive) []string {
	var out []string
	add := func(name string) {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	for _, d := range ds {
		switch x := d.(type) {
		case model.Transaction:
			for _, p := range x.Postings {
				add(p.Account)
			}
		case model.Balance:
			add(x.Account)
		}
	}
	return out
}

// loadFiles reads and decodes every path. Each file is put in chronological
// order on its own; the concatenation is then stably sorted by cmp so that
// ties keep file order.
func loadFiles[E any](paths []string, read func(string) ([]record.Raw, error),
	decode func(*record.Decoder) E, cmp func(a, b E) int, status logger.Sink) ([]E, error) {
	var all []E
	for _, p := range paths {
		raws, err := read(p)
		if err != nil {
			return nil, err
		}
		entries, err := record.DecodeAll(raws, decode)
		if err != nil {
			return nil, err
		}
		record.Chronological(entries, cmp)
		status(fmt.Sprintf("loaded %d entries from %s", len(entries), p))
		all = append(all, entries...)
	}
	slices.SortStableFunc(all, cmp)
	return all, nil
}

// fields accumulates audit metadata, leaving out absent values. With
// omitZero set, zero numbers and amounts are left out too.
type fields struct {
	meta     model.Meta
	omitZero bool
}

func (f *fields) text(k, v string) {
	if v != "" {
		f.meta.SetString(k, v)
	}
}

func (f *fields) date(k string, v model.Opt[time.Time]) {
	if t, ok := v.Get(); ok {
		f.meta.SetDate(k, t)
	}
}

func (f *fields) amount(k string, v model.Opt[model.Amount]) {
	if a, ok := v.Get(); ok && !(f.omitZero && a.IsZero()) {
		f.meta.SetAmount(k, a)
	}
}

func (f *fields) number(k string, v model.Opt[decimal.Decimal]) {
	if n, ok := v.Get(); ok && !(f.omitZero && n.IsZero()) {
		f.meta.SetNumber(k, n)
	}
}

func (f *fields) integer(k string, n int64) {
	if !(f.omitZero && n == 0) {
		f.meta.SetInt(k, n)
	}
}

// neg negates an optional amount.
func neg(a model.Opt[model.Amount]) model.Opt[model.Amount] {
	if v, ok := a.Get(); ok {
		return model.Some(v.Neg())
	}
	return a
}

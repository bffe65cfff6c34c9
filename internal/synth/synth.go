// Package synth turns a classified entry into ledger directives: signed
// postings with cost and price, or date-shifted balance assertions.
package synth

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgersynth/internal/model"
)

// Kind is the output pattern selected for an entry.
type Kind int

const (
	Double Kind = iota
	Split
	Statement
	Aggregate
)

func (k Kind) String() string {
	switch k {
	case Double:
		return "double"
	case Split:
		return "split"
	case Statement:
		return "statement"
	case Aggregate:
		return "aggregate"
	}
	return "unknown"
}

// PerUnit derives a per-unit value: the stated price when present, else
// Net / Quantity when Net is non-zero and Quantity is positive.
type PerUnit struct {
	Stated   model.Opt[model.Amount]
	Net      model.Opt[model.Amount]
	Quantity model.Opt[decimal.Decimal]
}

// Resolve returns the per-unit amount rounded half-even to two places.
func (p PerUnit) Resolve() (model.Amount, bool) {
	if s, ok := p.Stated.Get(); ok && !s.IsZero() {
		return model.Money(s.Number, s.Currency), true
	}
	net, ok := p.Net.Get()
	if !ok || net.IsZero() {
		return model.Amount{}, false
	}
	qty, ok := p.Quantity.Get()
	if !ok || !qty.IsPositive() {
		return model.Amount{}, false
	}
	return model.Amount{Number: Quotient(net.Number, qty, model.MoneyPlaces), Currency: net.Currency}, true
}

// Quotient divides n by d, rounding half-even to places. d must be non-zero.
func Quotient(n, d decimal.Decimal, places int32) decimal.Decimal {
	q, r := n.QuoRem(d, places)
	if r.IsZero() {
		return q
	}
	unit := decimal.New(1, -places)
	away := false
	switch r.Abs().Mul(decimal.NewFromInt(2)).Cmp(d.Abs().Mul(unit)) {
	case 1:
		away = true
	case 0:
		away = !q.Shift(places).Mod(decimal.NewFromInt(2)).IsZero()
	}
	if !away {
		return q
	}
	if n.Sign()*d.Sign() < 0 {
		return q.Sub(unit)
	}
	return q.Add(unit)
}

// Leg is a posting template. A leg whose units are absent or zero is omitted.
type Leg struct {
	Account  string
	Units    model.Opt[model.Amount]
	Cost     PerUnit
	CostDate model.Opt[time.Time]
	Price    PerUnit
	Meta     model.Meta
}

// Check is a balance assertion template. Invert flips the sign for
// liabilities reported as positive balances.
type Check struct {
	Account string
	Amount  model.Opt[model.Amount]
	Invert  bool
}

// Shape is the resolved output of classification.
type Shape struct {
	Kind        Kind
	NeedsReview bool
	Payee       string
	Narration   string
	Source      Leg
	Dest        []Leg
	Checks      []Check
}

// Accounts lists the accounts a shape references.
func (s Shape) Accounts() []string {
	var out []string
	if s.Source.Account != "" {
		out = append(out, s.Source.Account)
	}
	for _, l := range s.Dest {
		out = append(out, l.Account)
	}
	for _, c := range s.Checks {
		out = append(out, c.Account)
	}
	return out
}

// Audit is the traceability metadata attached to synthesized directives.
type Audit struct {
	KeyField string
	Key      string
	Fields   model.Meta
}

func (a Audit) keyMeta() model.Meta {
	var m model.Meta
	m.SetString(a.KeyField, a.Key)
	return m
}

func (a Audit) fullMeta() model.Meta {
	return model.Merge(a.Fields, a.keyMeta())
}

// Build synthesizes the directives for one entry dated date.
func Build(date time.Time, s Shape, a Audit) []model.Directive {
	if s.Kind == Statement {
		var out []model.Directive
		for _, b := range Balances(date, s.Checks, a) {
			out = append(out, b)
		}
		return out
	}
	txn, ok := Transaction(date, s, a)
	if !ok {
		return nil
	}
	return []model.Directive{txn}
}

// Transaction builds the source leg followed by the destination legs.
// It reports false when every leg was omitted.
func Transaction(date time.Time, s Shape, a Audit) (model.Transaction, bool) {
	var postings []model.Posting
	if p, ok := posting(s.Source, a.keyMeta()); ok {
		postings = append(postings, p)
	}
	for _, l := range s.Dest {
		if p, ok := posting(l, a.fullMeta()); ok {
			postings = append(postings, p)
		}
	}
	if len(postings) == 0 {
		return model.Transaction{}, false
	}
	flag := model.FlagOK
	if s.NeedsReview {
		flag = model.FlagReview
	}
	return model.Transaction{
		Date:      date,
		Flag:      flag,
		Payee:     s.Payee,
		Narration: s.Narration,
		Meta:      a.keyMeta(),
		Postings:  postings,
	}, true
}

func posting(l Leg, meta model.Meta) (model.Posting, bool) {
	units, ok := l.Units.Get()
	if !ok || units.IsZero() {
		return model.Posting{}, false
	}
	p := model.Posting{
		Account: l.Account,
		Units:   units,
		Meta:    model.Merge(meta, l.Meta),
	}
	if c, ok := l.Cost.Resolve(); ok {
		p.Cost = model.Some(model.Cost{Number: c.Number, Currency: c.Currency, Date: l.CostDate})
	}
	if pr, ok := l.Price.Resolve(); ok {
		p.Price = model.Some(pr)
	}
	return p, true
}

// Balances emits one assertion per present, non-zero check, dated the day
// after date so that same-day transactions are applied first.
func Balances(date time.Time, checks []Check, a Audit) []model.Balance {
	var out []model.Balance
	next := date.AddDate(0, 0, 1)
	for _, c := range checks {
		amt, ok := c.Amount.Get()
		if !ok || amt.IsZero() {
			continue
		}
		if c.Invert {
			amt = amt.Neg()
		}
		out = append(out, model.Balance{
			Date:    next,
			Account: c.Account,
			Amount:  amt,
			Meta:    a.fullMeta(),
		})
	}
	return out
}

package importer

import (
	"time"

	"github.com/cleared-dev/ledgersynth/internal/config"
	"github.com/cleared-dev/ledgersynth/internal/model"
	"github.com/cleared-dev/ledgersynth/internal/record"
	"github.com/cleared-dev/ledgersynth/internal/rules"
	"github.com/cleared-dev/ledgersynth/internal/synth"
)

// KindChase is the Chase checking CSV export.
const KindChase = "chase"

// Chase CSV columns.
const (
	chaseDateFormat = "01/02/2006"
	chaseColDetails = "Details"
	chaseColDate    = "Posting Date"
	chaseColDesc    = "Description"
	chaseColAmount  = "Amount"
	chaseColType    = "Type"
	chaseColBalance = "Balance"
	chaseColCheck   = "Check or Slip #"
)

var chaseFields = []string{"details", "postingDate", "description", "amount", "type", "balance", "checkOrSlip"}

var chaseKey = []string{"postingDate", "description", "amount", "balance"}

type chaseEntry struct {
	origin model.Provenance
	fields model.Meta
	date   time.Time
	desc   string
	amount model.Amount
	typ    string
}

func (e chaseEntry) Date() time.Time          { return e.date }
func (e chaseEntry) Fields() model.Meta       { return e.fields }
func (e chaseEntry) Origin() model.Provenance { return e.origin }

func decodeChase(currency string) func(*record.Decoder) chaseEntry {
	return func(d *record.Decoder) chaseEntry {
		e := chaseEntry{
			origin: d.Origin(),
			date:   d.Date(chaseColDate, chaseDateFormat),
			desc:   d.String(chaseColDesc),
			amount: d.Money(chaseColAmount, currency),
			typ:    d.Text(chaseColType),
		}
		f := fields{}
		f.text("details", d.Text(chaseColDetails))
		f.date("postingDate", model.Some(e.date))
		f.text("description", e.desc)
		f.amount("amount", model.Some(e.amount))
		f.text("type", e.typ)
		f.amount("balance", d.OptMoney(chaseColBalance, currency))
		f.text("checkOrSlip", d.Text(chaseColCheck))
		e.fields = f.meta
		return e
	}
}

func byPostingDate(a, b chaseEntry) int { return a.date.Compare(b.date) }

// chaseRule turns a configured rule into a table entry. Both conditions
// must hold when both are set.
func chaseRule(checking string, rc config.RuleConfig) rules.Rule[chaseEntry, synth.Shape] {
	var preds []rules.Pred[chaseEntry]
	if rc.Contains != "" {
		preds = append(preds, rules.Contains(func(e chaseEntry) string { return e.desc }, rc.Contains))
	}
	if rc.Type != "" {
		preds = append(preds, rules.In(func(e chaseEntry) string { return e.typ }, rc.Type))
	}
	return rules.Rule[chaseEntry, synth.Shape]{
		Name: rc.Name,
		When: rules.All(preds...),
		Then: func(e chaseEntry) (synth.Shape, error) {
			return chaseShape(e, checking, rc.Account, rc.Payee, false), nil
		},
	}
}

func chaseShape(e chaseEntry, checking, account, payee string, review bool) synth.Shape {
	if payee == "" {
		payee = e.desc
	}
	return synth.Shape{
		Kind:        synth.Double,
		NeedsReview: review,
		Payee:       payee,
		Narration:   e.desc,
		Source:      synth.Leg{Account: checking, Units: model.Some(e.amount)},
		Dest:        []synth.Leg{{Account: account, Units: model.Some(e.amount.Neg())}},
	}
}

// NewChase builds a source for Chase checking CSV exports. Classification
// comes from the source's configured rules.
func NewChase(sc config.SourceConfig, env Env) (Source, error) {
	if err := sc.RequireAccounts("checking"); err != nil {
		return nil, err
	}
	keys, err := sc.RequireKeyFields(chaseFields, chaseKey)
	if err != nil {
		return nil, err
	}
	checking := sc.Accounts["checking"]
	seen := make(map[string]bool, len(sc.Rules))
	table := make([]rules.Rule[chaseEntry, synth.Shape], 0, len(sc.Rules))
	for _, rc := range sc.Rules {
		if rc.Name == "" {
			return nil, &config.ConfigurationError{Source: sc.Name, Key: "rules", Reason: "rule name is required"}
		}
		if seen[rc.Name] || rc.Name == rules.FallbackName {
			return nil, &config.ConfigurationError{Source: sc.Name, Key: "rules", Reason: "duplicate rule name " + rc.Name}
		}
		seen[rc.Name] = true
		table = append(table, chaseRule(checking, rc))
	}

	return &adapter[chaseEntry]{
		name:   sc.Name,
		kind:   KindChase,
		prefix: KindChase,
		keys:   keys,
		status: env.Status,
		table: rules.NewTable[chaseEntry, synth.Shape](func(e chaseEntry) (synth.Shape, error) {
			return chaseShape(e, checking, env.Review, "", true), nil
		}, table...),
		load: func() ([]chaseEntry, error) {
			paths, err := Inputs(env.Root, sc, ".csv")
			if err != nil {
				return nil, err
			}
			return loadFiles(paths, record.ReadCSV, decodeChase(env.Currency), byPostingDate, env.Status)
		},
	}, nil
}

package importer

import (
	"time"

	"github.com/cleared-dev/ledgersynth/internal/config"
	"github.com/cleared-dev/ledgersynth/internal/model"
	"github.com/cleared-dev/ledgersynth/internal/record"
	"github.com/cleared-dev/ledgersynth/internal/rules"
	"github.com/cleared-dev/ledgersynth/internal/synth"
)

// KindFifthThird is the Fifth Third mortgage JSONL export.
const KindFifthThird = "fifththird"

const fifthThirdPayee = "Fifth Third Mortgage"

// Fifth Third transaction codes.
const (
	ftCodeStatement = "9999"
	ftCodeEscrow    = "5850"
)

var fifthThirdFields = []string{
	"transactionDate", "postDate", "id", "amount", "description", "creditDebitType",
	"transactionCode", "principalAmount", "escrowAmount", "interestAmount",
	"otherAmount", "status", "additionalInfo",
}

// Server ids are regenerated per session, so they are not part of the key.
var fifthThirdKey = []string{"postDate", "amount", "transactionCode", "description"}

var fifthThirdAccounts = []string{"payment", "liability", "escrow", "interest", "other", "insurance", "taxes"}

type fifthThirdEntry struct {
	origin    model.Provenance
	fields    model.Meta
	postDate  time.Time
	code      string
	desc      string
	amount    model.Opt[model.Amount]
	principal model.Opt[model.Amount]
	escrow    model.Opt[model.Amount]
	interest  model.Opt[model.Amount]
	other     model.Opt[model.Amount]
}

func (e fifthThirdEntry) Date() time.Time          { return e.postDate }
func (e fifthThirdEntry) Fields() model.Meta       { return e.fields }
func (e fifthThirdEntry) Origin() model.Provenance { return e.origin }

func (e fifthThirdEntry) hasSplit() bool {
	return e.principal.OK() || e.escrow.OK() || e.interest.OK() || e.other.OK()
}

func decodeFifthThird(currency string) func(*record.Decoder) fifthThirdEntry {
	return func(d *record.Decoder) fifthThirdEntry {
		e := fifthThirdEntry{
			origin:    d.Origin(),
			postDate:  d.Date("postDate", record.ISODate),
			code:      d.String("transactionCode"),
			desc:      d.Text("description"),
			amount:    d.OptMoney("amount", currency),
			principal: d.OptMoney("principalAmount", currency),
			escrow:    d.OptMoney("escrowAmount", currency),
			interest:  d.OptMoney("interestAmount", currency),
			other:     d.OptMoney("otherAmount", currency),
		}
		f := fields{}
		f.date("transactionDate", d.OptDate("transactionDate", record.ISODate))
		f.date("postDate", model.Some(e.postDate))
		f.text("id", d.Text("id"))
		f.amount("amount", e.amount)
		f.text("description", e.desc)
		f.text("creditDebitType", d.Text("creditDebitType"))
		f.text("transactionCode", e.code)
		f.amount("principalAmount", e.principal)
		f.amount("escrowAmount", e.escrow)
		f.amount("interestAmount", e.interest)
		f.amount("otherAmount", e.other)
		f.text("status", d.Text("status"))
		f.text("additionalInfo", d.Text("additionalInfo"))
		e.fields = f.meta
		return e
	}
}

func byPostDate(a, b fifthThirdEntry) int { return a.postDate.Compare(b.postDate) }

// NewFifthThird builds a source for a Fifth Third mortgage export.
func NewFifthThird(sc config.SourceConfig, env Env) (Source, error) {
	if err := sc.RequireAccounts(fifthThirdAccounts...); err != nil {
		return nil, err
	}
	keys, err := sc.RequireKeyFields(fifthThirdFields, fifthThirdKey)
	if err != nil {
		return nil, err
	}
	acct := sc.Accounts
	code := func(e fifthThirdEntry) string { return e.code }
	desc := func(e fifthThirdEntry) string { return e.desc }

	disbursement := func(account, payee string, review bool) rules.Resolve[fifthThirdEntry, synth.Shape] {
		return func(e fifthThirdEntry) (synth.Shape, error) {
			to := payee
			if to == "" {
				to = e.desc
			}
			return synth.Shape{
				Kind:        synth.Double,
				NeedsReview: review,
				Payee:       "Escrow Payment - " + to,
				Narration:   e.desc,
				Source:      synth.Leg{Account: acct["escrow"], Units: neg(e.amount)},
				Dest:        []synth.Leg{{Account: account, Units: e.escrow}},
			}, nil
		}
	}

	table := rules.NewTable[fifthThirdEntry, synth.Shape](
		func(e fifthThirdEntry) (synth.Shape, error) {
			return synth.Shape{
				Kind:        synth.Double,
				NeedsReview: true,
				Payee:       fifthThirdPayee,
				Narration:   e.desc,
				Source:      synth.Leg{Account: acct["payment"], Units: neg(e.amount)},
				Dest:        []synth.Leg{{Account: env.Review, Units: e.amount}},
			}, nil
		},
		rules.Rule[fifthThirdEntry, synth.Shape]{
			Name: "statement",
			When: rules.In(code, ftCodeStatement),
			Then: func(e fifthThirdEntry) (synth.Shape, error) {
				return synth.Shape{
					Kind: synth.Statement,
					Checks: []synth.Check{
						{Account: acct["liability"], Amount: e.principal, Invert: true},
						{Account: acct["escrow"], Amount: e.escrow},
					},
				}, nil
			},
		},
		rules.Rule[fifthThirdEntry, synth.Shape]{
			Name: "escrow-insurance",
			When: rules.All(rules.In(code, ftCodeEscrow), rules.Contains(desc, "HAZ INS")),
			Then: disbursement(acct["insurance"], "Homeowner's Insurance", false),
		},
		rules.Rule[fifthThirdEntry, synth.Shape]{
			Name: "escrow-taxes",
			When: rules.All(rules.In(code, ftCodeEscrow), rules.Contains(desc, "TAXES")),
			Then: disbursement(acct["taxes"], "Taxes", false),
		},
		rules.Rule[fifthThirdEntry, synth.Shape]{
			Name: "escrow-other",
			When: rules.In(code, ftCodeEscrow),
			Then: disbursement(env.Review, "", true),
		},
		rules.Rule[fifthThirdEntry, synth.Shape]{
			Name: "loan-payment",
			When: fifthThirdEntry.hasSplit,
			Then: func(e fifthThirdEntry) (synth.Shape, error) {
				return synth.Shape{
					Kind:      synth.Split,
					Payee:     fifthThirdPayee,
					Narration: e.desc,
					Source:    synth.Leg{Account: acct["payment"], Units: neg(e.amount)},
					Dest: []synth.Leg{
						{Account: acct["liability"], Units: e.principal},
						{Account: acct["interest"], Units: e.interest},
						{Account: acct["escrow"], Units: e.escrow},
						{Account: acct["other"], Units: e.other},
					},
				}, nil
			},
		},
	)

	return &adapter[fifthThirdEntry]{
		name:   sc.Name,
		kind:   KindFifthThird,
		prefix: KindFifthThird,
		keys:   keys,
		status: env.Status,
		table:  table,
		load: func() ([]fifthThirdEntry, error) {
			paths, err := Inputs(env.Root, sc, ".jsonl")
			if err != nil {
				return nil, err
			}
			return loadFiles(paths, record.ReadLines, decodeFifthThird(env.Currency), byPostDate, env.Status)
		},
	}, nil
}

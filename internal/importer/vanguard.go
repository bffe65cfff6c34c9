package importer

import (
	"cmp"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgersynth/internal/accounts"
	"github.com/cleared-dev/ledgersynth/internal/config"
	"github.com/cleared-dev/ledgersynth/internal/model"
	"github.com/cleared-dev/ledgersynth/internal/record"
	"github.com/cleared-dev/ledgersynth/internal/rules"
	"github.com/cleared-dev/ledgersynth/internal/synth"
)

// KindVanguard is the Vanguard brokerage transaction export.
const KindVanguard = "vanguard"

const vanguardPayee = "Vanguard"

var vanguardFields = []string{
	"accountId", "sequenceNumber", "transactionCode", "transactionType",
	"investmentName", "ticker", "cusip", "description", "quantity", "price",
	"netAmount", "principleAmount", "grossAmount", "commission", "fee",
	"tradeDate", "settlementDate", "processDate", "recordDate",
}

var vanguardKey = []string{"accountId", "sequenceNumber"}

var vanguardAccounts = []string{"dividend", "gain_st", "gain_lt", "rollover"}

type vanguardEntry struct {
	origin     model.Provenance
	fields     model.Meta
	accountID  string
	seq        int64
	code       string
	txnType    string
	investment string
	ticker     string
	quantity   model.Opt[decimal.Decimal]
	price      model.Opt[model.Amount]
	net        model.Opt[model.Amount]
	principal  model.Opt[model.Amount]
	tradeDate  model.Opt[time.Time]
	recordDate time.Time
	currency   string
}

func (e vanguardEntry) Date() time.Time          { return e.recordDate }
func (e vanguardEntry) Fields() model.Meta       { return e.fields }
func (e vanguardEntry) Origin() model.Provenance { return e.origin }

// units is the position change. Cash-only rows have no ticker and are held
// in the currency itself.
func (e vanguardEntry) units() model.Opt[model.Amount] {
	q, ok := e.quantity.Get()
	if !ok {
		return model.None[model.Amount]()
	}
	if e.ticker == "" {
		return model.Some(model.Money(q, e.currency))
	}
	return model.Some(model.Units(q, e.ticker))
}

func decodeVanguard(currency string) func(*record.Decoder) vanguardEntry {
	return func(d *record.Decoder) vanguardEntry {
		e := vanguardEntry{
			origin:     d.Origin(),
			accountID:  d.String("accountId"),
			seq:        d.Int("sequenceNumber"),
			code:       d.String("transactionCode"),
			txnType:    d.Text("transactionType"),
			investment: d.Text("investmentName"),
			ticker:     strings.TrimSpace(d.Text("ticker")),
			quantity:   d.OptDecimal("quantity"),
			price:      d.OptMoney("price", currency),
			net:        d.OptMoney("netAmount", currency),
			principal:  d.OptMoney("principleAmount", currency),
			tradeDate:  d.OptDate("tradeDate", record.ISODate),
			recordDate: d.Date("recordDate", record.ISODate),
			currency:   currency,
		}
		f := fields{omitZero: true}
		f.text("accountId", e.accountID)
		f.integer("sequenceNumber", e.seq)
		f.text("transactionCode", e.code)
		f.text("transactionType", e.txnType)
		f.text("investmentName", e.investment)
		f.text("ticker", e.ticker)
		f.text("cusip", d.Text("cusip"))
		f.text("description", d.Text("description"))
		f.number("quantity", e.quantity)
		f.amount("price", e.price)
		f.amount("netAmount", e.net)
		f.amount("principleAmount", e.principal)
		f.amount("grossAmount", d.OptMoney("grossAmount", currency))
		f.amount("commission", d.OptMoney("commission", currency))
		f.amount("fee", d.OptMoney("fee", currency))
		f.date("tradeDate", e.tradeDate)
		f.date("settlementDate", d.OptDate("settlementDate", record.ISODate))
		f.date("processDate", d.OptDate("processDate", record.ISODate))
		f.date("recordDate", model.Some(e.recordDate))
		e.fields = f.meta
		return e
	}
}

func bySequence(a, b vanguardEntry) int { return cmp.Compare(a.seq, b.seq) }

// holding names the accounts of one brokerage sub-account.
type holding struct {
	cash     string
	position string
}

// tickerComponent makes a ticker usable as an account name component.
func tickerComponent(t string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '-'
	}, t)
}

type vanguard struct {
	sc     config.SourceConfig
	review string
}

func (v vanguard) holding(e vanguardEntry) (holding, error) {
	base, err := v.sc.SubAccount(e.accountID)
	if err != nil {
		return holding{}, err
	}
	h := holding{cash: accounts.Join(base, "Cash")}
	h.position = h.cash
	if e.ticker != "" {
		h.position = accounts.Join(base, tickerComponent(e.ticker))
	}
	return h, nil
}

// base is the shape of a position change funded from the review account.
func (v vanguard) base(e vanguardEntry, h holding) synth.Shape {
	return synth.Shape{
		Kind:      synth.Double,
		Payee:     vanguardPayee,
		Narration: fmt.Sprintf("%s - %s - %s", e.txnType, e.ticker, e.investment),
		Source:    synth.Leg{Account: v.review, Units: neg(e.principal)},
		Dest: []synth.Leg{{
			Account:  h.position,
			Units:    e.units(),
			Cost:     synth.PerUnit{Stated: e.price, Net: e.net, Quantity: e.quantity},
			CostDate: e.tradeDate,
		}},
	}
}

// shape resolves the sub-account, applies adjust to the base shape and
// flags it for review when it still draws on the review account.
func (v vanguard) shape(adjust func(e vanguardEntry, h holding, s *synth.Shape)) rules.Resolve[vanguardEntry, synth.Shape] {
	return func(e vanguardEntry) (synth.Shape, error) {
		h, err := v.holding(e)
		if err != nil {
			return synth.Shape{}, err
		}
		s := v.base(e, h)
		if adjust != nil {
			adjust(e, h, &s)
		}
		s.NeedsReview = s.Source.Account == v.review
		return s, nil
	}
}

// cashLeg moves the principal out of (or into) the sub-account's cash.
func cashLeg(e vanguardEntry, h holding) synth.Leg {
	return synth.Leg{Account: h.cash, Units: neg(e.principal)}
}

// absolute drops the sign of an optional amount and quantity so that a
// per-unit value can be derived from outgoing rows.
func absolute(e vanguardEntry) synth.PerUnit {
	p := synth.PerUnit{}
	if n, ok := e.net.Get(); ok {
		p.Net = model.Some(n.Abs())
	}
	if q, ok := e.quantity.Get(); ok {
		p.Quantity = model.Some(q.Abs())
	}
	return p
}

func gainNarration(e vanguardEntry, longTermCode string) string {
	if e.code == longTermCode {
		return "Gain (LT)"
	}
	return "Gain (ST)"
}

// NewVanguard builds a source for a Vanguard transaction export. The file is
// either JSONL or a JSON document whose records_path selects the records.
func NewVanguard(sc config.SourceConfig, env Env) (Source, error) {
	if err := sc.RequireAccounts(vanguardAccounts...); err != nil {
		return nil, err
	}
	if len(sc.SubAccounts) == 0 {
		return nil, &config.ConfigurationError{Source: sc.Name, Key: "sub_accounts", Reason: "at least one mapping is required"}
	}
	keys, err := sc.RequireKeyFields(vanguardFields, vanguardKey)
	if err != nil {
		return nil, err
	}
	v := vanguard{sc: sc, review: env.Review}
	acct := sc.Accounts
	code := func(e vanguardEntry) string { return e.code }

	fromCash := v.shape(func(_ vanguardEntry, h holding, s *synth.Shape) { s.Source.Account = h.cash })
	reinvest := func(account string) rules.Resolve[vanguardEntry, synth.Shape] {
		return v.shape(func(_ vanguardEntry, _ holding, s *synth.Shape) { s.Source.Account = account })
	}
	type rule = rules.Rule[vanguardEntry, synth.Shape]

	table := rules.NewTable[vanguardEntry, synth.Shape](v.shape(nil),
		rule{Name: "buy", When: rules.In(code, "5005", "7066", "7001", "BUY"), Then: fromCash},
		rule{Name: "transfer", When: rules.In(code, "9558", "9555"), Then: fromCash},
		rule{Name: "direct-transfer", When: rules.In(code, "DTRF"), Then: v.shape(func(e vanguardEntry, h holding, s *synth.Shape) {
			if e.investment == "CASH" {
				s.Source.Units = e.principal
				s.Dest = []synth.Leg{cashLeg(e, h)}
				return
			}
			s.Source.Units = neg(e.units())
		})},
		rule{Name: "write-off", When: rules.In(code, "WOFF"), Then: v.shape(func(e vanguardEntry, h holding, s *synth.Shape) {
			s.Source.Units = e.principal
			s.Dest = []synth.Leg{cashLeg(e, h)}
		})},
		rule{Name: "reinvest-gain-st", When: rules.In(code, "8037"), Then: reinvest(acct["gain_st"])},
		rule{Name: "reinvest-gain-lt", When: rules.In(code, "8035"), Then: reinvest(acct["gain_lt"])},
		rule{Name: "reinvest-dividend", When: rules.In(code, "5010", "8015", "8112"), Then: reinvest(acct["dividend"])},
		rule{Name: "rollover", When: rules.In(code, "ROLL"), Then: v.shape(func(e vanguardEntry, h holding, s *synth.Shape) {
			s.Source = synth.Leg{Account: acct["rollover"], Units: e.principal}
			s.Dest = []synth.Leg{cashLeg(e, h)}
		})},
		rule{Name: "gain-to-cash", When: rules.In(code, "SCAP", "LCAP"), Then: v.shape(func(e vanguardEntry, _ holding, s *synth.Shape) {
			gain := acct["gain_st"]
			if e.code == "LCAP" {
				gain = acct["gain_lt"]
			}
			s.Dest = []synth.Leg{{Account: gain, Units: e.principal}}
			s.Narration = gainNarration(e, "LCAP")
		})},
		rule{Name: "gain-reinvest", When: rules.In(code, "RLCP", "RSCP"), Then: v.shape(func(e vanguardEntry, _ holding, s *synth.Shape) {
			s.Narration = gainNarration(e, "RLCP")
		})},
		rule{Name: "dividend", When: rules.In(code, "DIV"), Then: v.shape(func(e vanguardEntry, _ holding, s *synth.Shape) {
			s.Dest = []synth.Leg{{Account: acct["dividend"], Units: e.principal}}
			s.Narration = "Dividend"
		})},
		rule{Name: "dividend-reinvest", When: rules.In(code, "RDIV", "RDDV"), Then: v.shape(func(_ vanguardEntry, _ holding, s *synth.Shape) {
			s.Narration = "Dividend"
		})},
		rule{Name: "conversion-out", When: rules.In(code, "CNVO"), Then: v.shape(func(e vanguardEntry, _ holding, s *synth.Shape) {
			s.Dest[0].Cost = synth.PerUnit{}
			s.Dest[0].CostDate = model.None[time.Time]()
			s.Dest[0].Price = absolute(e)
		})},
		rule{Name: "conversion-in", When: rules.In(code, "CNVI"), Then: v.shape(func(e vanguardEntry, _ holding, s *synth.Shape) {
			s.Dest[0].Cost = absolute(e)
		})},
		rule{Name: "sell-exchange", When: rules.In(code, "SELE"), Then: v.shape(func(e vanguardEntry, _ holding, s *synth.Shape) {
			s.Dest[0].Cost = synth.PerUnit{}
			s.Dest[0].CostDate = model.None[time.Time]()
			s.Dest[0].Price = synth.PerUnit{Stated: e.price}
		})},
	)

	return &adapter[vanguardEntry]{
		name:   sc.Name,
		kind:   KindVanguard,
		prefix: KindVanguard,
		keys:   keys,
		status: env.Status,
		table:  table,
		load: func() ([]vanguardEntry, error) {
			ext, read := ".jsonl", record.ReadLines
			if sc.RecordsPath != "" {
				ext = ".json"
				read = func(p string) ([]record.Raw, error) { return record.ReadDocument(p, sc.RecordsPath) }
			}
			paths, err := Inputs(env.Root, sc, ext)
			if err != nil {
				return nil, err
			}
			return loadFiles(paths, read, decodeVanguard(env.Currency), bySequence, env.Status)
		},
	}, nil
}

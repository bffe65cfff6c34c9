package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction flags.
const (
	FlagOK     = "*"
	FlagReview = "!"
)

// Directive is a dated ledger entry: a Transaction or a Balance.
type Directive interface {
	EntryDate() time.Time
	EntryMeta() Meta
}

// Cost is the per-unit acquisition price of a position-changing posting.
type Cost struct {
	Number   decimal.Decimal
	Currency string
	Date     Opt[time.Time]
}

// Posting is one signed leg of a transaction.
type Posting struct {
	Account string
	Units   Amount
	Cost    Opt[Cost]
	Price   Opt[Amount]
	Meta    Meta
}

// Transaction is a synthesized ledger transaction. It is not mutated after synthesis.
type Transaction struct {
	Date      time.Time
	Flag      string
	Payee     string
	Narration string
	Tags      []string
	Links     []string
	Meta      Meta
	Postings  []Posting
}

func (t Transaction) EntryDate() time.Time { return t.Date }
func (t Transaction) EntryMeta() Meta      { return t.Meta }

// Balance asserts an account's balance at the start of Date.
type Balance struct {
	Date    time.Time
	Account string
	Amount  Amount
	Meta    Meta
}

func (b Balance) EntryDate() time.Time { return b.Date }
func (b Balance) EntryMeta() Meta      { return b.Meta }

// Provenance locates the raw input a value came from. Line is 0 for whole-document inputs.
type Provenance struct {
	Path string
	Line int
	Type string // media type, e.g. application/json
}

// ImportResult is the unit handed to the staging collector.
type ImportResult struct {
	Date    time.Time
	Info    Provenance
	Entries []Directive
}

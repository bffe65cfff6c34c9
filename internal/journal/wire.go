package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgersynth/internal/model"
)

// Directive types on the wire.
const (
	TypeTransaction = "transaction"
	TypeBalance     = "balance"
)

const maxLine = 4 << 20

// Numbers are carried as decimal text so they round-trip exactly.
type amountJSON struct {
	Number    string `json:"number"`
	Currency  string `json:"currency"`
	Commodity bool   `json:"commodity,omitempty"`
}

type costJSON struct {
	Number   string `json:"number"`
	Currency string `json:"currency"`
	Date     string `json:"date,omitempty"`
}

type metaJSON struct {
	Key   string         `json:"key"`
	Value string         `json:"value"`
	Kind  model.MetaKind `json:"kind,omitempty"`
}

type postingJSON struct {
	Account string      `json:"account"`
	Units   amountJSON  `json:"units"`
	Cost    *costJSON   `json:"cost,omitempty"`
	Price   *amountJSON `json:"price,omitempty"`
	Meta    []metaJSON  `json:"meta,omitempty"`
}

type directiveJSON struct {
	Type      string        `json:"type"`
	Date      string        `json:"date"`
	Flag      string        `json:"flag,omitempty"`
	Payee     string        `json:"payee,omitempty"`
	Narration string        `json:"narration,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Links     []string      `json:"links,omitempty"`
	Account   string        `json:"account,omitempty"`
	Amount    *amountJSON   `json:"amount,omitempty"`
	Meta      []metaJSON    `json:"meta,omitempty"`
	Postings  []postingJSON `json:"postings,omitempty"`
}

type provenanceJSON struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
	Type string `json:"type,omitempty"`
}

type resultJSON struct {
	Date    string          `json:"date"`
	Info    provenanceJSON  `json:"info"`
	Entries []directiveJSON `json:"entries"`
}

// MarshalDirective encodes a directive as one JSON object.
func MarshalDirective(d model.Directive) ([]byte, error) {
	dj, err := toDirectiveJSON(d)
	if err != nil {
		return nil, err
	}
	return json.Marshal(dj)
}

// UnmarshalDirective decodes one JSON object produced by MarshalDirective.
func UnmarshalDirective(data []byte) (model.Directive, error) {
	var dj directiveJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return nil, err
	}
	return fromDirectiveJSON(dj)
}

// MarshalResult encodes an import result as one JSON object.
func MarshalResult(r model.ImportResult) ([]byte, error) {
	rj := resultJSON{
		Date: r.Date.Format(model.DateFormat),
		Info: provenanceJSON{Path: r.Info.Path, Line: r.Info.Line, Type: r.Info.Type},
	}
	for _, d := range r.Entries {
		dj, err := toDirectiveJSON(d)
		if err != nil {
			return nil, err
		}
		rj.Entries = append(rj.Entries, dj)
	}
	return json.Marshal(rj)
}

// UnmarshalResult decodes one JSON object produced by MarshalResult.
func UnmarshalResult(data []byte) (model.ImportResult, error) {
	var rj resultJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return model.ImportResult{}, err
	}
	date, err := parseDate(rj.Date)
	if err != nil {
		return model.ImportResult{}, err
	}
	r := model.ImportResult{
		Date: date,
		Info: model.Provenance{Path: rj.Info.Path, Line: rj.Info.Line, Type: rj.Info.Type},
	}
	for _, dj := range rj.Entries {
		d, err := fromDirectiveJSON(dj)
		if err != nil {
			return model.ImportResult{}, err
		}
		r.Entries = append(r.Entries, d)
	}
	return r, nil
}

// ReadDirectives reads a JSONL ledger. Blank lines are skipped.
func ReadDirectives(r io.Reader) ([]model.Directive, error) {
	var out []model.Directive
	err := scanLines(r, func(line []byte) error {
		d, err := UnmarshalDirective(line)
		if err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	return out, err
}

// WriteDirectives writes one directive per line.
func WriteDirectives(w io.Writer, ds []model.Directive) error {
	for i, d := range ds {
		data, err := MarshalDirective(d)
		if err != nil {
			return fmt.Errorf("encoding directive %d: %w", i, err)
		}
		if err := writeLine(w, data); err != nil {
			return err
		}
	}
	return nil
}

// ReadResults reads a JSONL file of import results.
func ReadResults(r io.Reader) ([]model.ImportResult, error) {
	var out []model.ImportResult
	err := scanLines(r, func(line []byte) error {
		res, err := UnmarshalResult(line)
		if err != nil {
			return err
		}
		out = append(out, res)
		return nil
	})
	return out, err
}

// WriteResults writes one import result per line.
func WriteResults(w io.Writer, rs []model.ImportResult) error {
	for i, r := range rs {
		data, err := MarshalResult(r)
		if err != nil {
			return fmt.Errorf("encoding result %d: %w", i, err)
		}
		if err := writeLine(w, data); err != nil {
			return err
		}
	}
	return nil
}

func scanLines(r io.Reader, fn func([]byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		if err := fn(b); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

func writeLine(w io.Writer, data []byte) error {
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}

func toDirectiveJSON(d model.Directive) (directiveJSON, error) {
	switch d := d.(type) {
	case model.Transaction:
		dj := directiveJSON{
			Type:      TypeTransaction,
			Date:      d.Date.Format(model.DateFormat),
			Flag:      d.Flag,
			Payee:     d.Payee,
			Narration: d.Narration,
			Tags:      d.Tags,
			Links:     d.Links,
			Meta:      toMetaJSON(d.Meta),
		}
		for _, p := range d.Postings {
			dj.Postings = append(dj.Postings, toPostingJSON(p))
		}
		return dj, nil
	case model.Balance:
		amt := toAmountJSON(d.Amount)
		return directiveJSON{
			Type:    TypeBalance,
			Date:    d.Date.Format(model.DateFormat),
			Account: d.Account,
			Amount:  &amt,
			Meta:    toMetaJSON(d.Meta),
		}, nil
	}
	return directiveJSON{}, fmt.Errorf("unsupported directive %T", d)
}

func fromDirectiveJSON(dj directiveJSON) (model.Directive, error) {
	date, err := parseDate(dj.Date)
	if err != nil {
		return nil, err
	}
	switch dj.Type {
	case TypeTransaction:
		txn := model.Transaction{
			Date:      date,
			Flag:      dj.Flag,
			Payee:     dj.Payee,
			Narration: dj.Narration,
			Tags:      dj.Tags,
			Links:     dj.Links,
			Meta:      fromMetaJSON(dj.Meta),
		}
		for i, pj := range dj.Postings {
			p, err := fromPostingJSON(pj)
			if err != nil {
				return nil, fmt.Errorf("posting %d: %w", i, err)
			}
			txn.Postings = append(txn.Postings, p)
		}
		return txn, nil
	case TypeBalance:
		if dj.Amount == nil {
			return nil, fmt.Errorf("balance %s: missing amount", dj.Account)
		}
		amt, err := fromAmountJSON(*dj.Amount)
		if err != nil {
			return nil, err
		}
		return model.Balance{Date: date, Account: dj.Account, Amount: amt, Meta: fromMetaJSON(dj.Meta)}, nil
	}
	return nil, fmt.Errorf("unknown directive type %q", dj.Type)
}

func toPostingJSON(p model.Posting) postingJSON {
	pj := postingJSON{
		Account: p.Account,
		Units:   toAmountJSON(p.Units),
		Meta:    toMetaJSON(p.Meta),
	}
	if c, ok := p.Cost.Get(); ok {
		cj := costJSON{Number: c.Number.String(), Currency: c.Currency}
		if d, ok := c.Date.Get(); ok {
			cj.Date = d.Format(model.DateFormat)
		}
		pj.Cost = &cj
	}
	if pr, ok := p.Price.Get(); ok {
		aj := toAmountJSON(pr)
		pj.Price = &aj
	}
	return pj
}

func fromPostingJSON(pj postingJSON) (model.Posting, error) {
	units, err := fromAmountJSON(pj.Units)
	if err != nil {
		return model.Posting{}, err
	}
	p := model.Posting{Account: pj.Account, Units: units, Meta: fromMetaJSON(pj.Meta)}
	if pj.Cost != nil {
		n, err := decimal.NewFromString(pj.Cost.Number)
		if err != nil {
			return model.Posting{}, fmt.Errorf("parsing cost %q: %w", pj.Cost.Number, err)
		}
		c := model.Cost{Number: n, Currency: pj.Cost.Currency}
		if pj.Cost.Date != "" {
			d, err := parseDate(pj.Cost.Date)
			if err != nil {
				return model.Posting{}, err
			}
			c.Date = model.Some(d)
		}
		p.Cost = model.Some(c)
	}
	if pj.Price != nil {
		pr, err := fromAmountJSON(*pj.Price)
		if err != nil {
			return model.Posting{}, err
		}
		p.Price = model.Some(pr)
	}
	return p, nil
}

func toAmountJSON(a model.Amount) amountJSON {
	return amountJSON{Number: a.NumberString(), Currency: a.Currency, Commodity: a.Commodity}
}

func fromAmountJSON(aj amountJSON) (model.Amount, error) {
	n, err := decimal.NewFromString(aj.Number)
	if err != nil {
		return model.Amount{}, fmt.Errorf("parsing number %q: %w", aj.Number, err)
	}
	return model.Amount{Number: n, Currency: aj.Currency, Commodity: aj.Commodity}, nil
}

func toMetaJSON(m model.Meta) []metaJSON {
	if len(m) == 0 {
		return nil
	}
	out := make([]metaJSON, len(m))
	for i, e := range m {
		out[i] = metaJSON{Key: e.Key, Value: e.Value, Kind: e.Kind}
	}
	return out
}

func fromMetaJSON(ms []metaJSON) model.Meta {
	var m model.Meta
	for _, e := range ms {
		kind := e.Kind
		if kind == "" {
			kind = model.MetaString
		}
		m.Set(e.Key, e.Value, kind)
	}
	return m
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

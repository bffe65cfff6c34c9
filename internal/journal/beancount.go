package journal

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/ledgersynth/internal/model"
)

// Format renders directives in beancount syntax for human review.
func Format(w io.Writer, ds []model.Directive) error {
	for i, d := range ds {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		var err error
		switch d := d.(type) {
		case model.Transaction:
			err = formatTransaction(w, d)
		case model.Balance:
			err = formatBalance(w, d)
		default:
			err = fmt.Errorf("unsupported directive %T", d)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// FormatResults renders each result preceded by a provenance comment.
func FormatResults(w io.Writer, rs []model.ImportResult) error {
	for i, r := range rs {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "; %s\n", provenance(r.Info)); err != nil {
			return err
		}
		if err := Format(w, r.Entries); err != nil {
			return err
		}
	}
	return nil
}

func provenance(p model.Provenance) string {
	if p.Line > 0 {
		return fmt.Sprintf("%s:%d", p.Path, p.Line)
	}
	return p.Path
}

func formatTransaction(w io.Writer, t model.Transaction) error {
	var b strings.Builder
	flag := t.Flag
	if flag == "" {
		flag = model.FlagOK
	}
	fmt.Fprintf(&b, "%s %s", t.Date.Format(model.DateFormat), flag)
	if t.Payee != "" {
		fmt.Fprintf(&b, " %s", strconv.Quote(t.Payee))
	}
	fmt.Fprintf(&b, " %s", strconv.Quote(t.Narration))
	for _, tag := range t.Tags {
		b.WriteString(" #" + tag)
	}
	for _, link := range t.Links {
		b.WriteString(" ^" + link)
	}
	b.WriteString("\n")
	writeMeta(&b, t.Meta, "  ")
	for _, p := range t.Postings {
		fmt.Fprintf(&b, "  %s  %s", p.Account, p.Units)
		if c, ok := p.Cost.Get(); ok {
			cost := model.Amount{Number: c.Number, Currency: c.Currency}
			if d, ok := c.Date.Get(); ok {
				fmt.Fprintf(&b, " {%s, %s}", cost, d.Format(model.DateFormat))
			} else {
				fmt.Fprintf(&b, " {%s}", cost)
			}
		}
		if pr, ok := p.Price.Get(); ok {
			fmt.Fprintf(&b, " @ %s", pr)
		}
		b.WriteString("\n")
		writeMeta(&b, p.Meta, "    ")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func formatBalance(w io.Writer, bal model.Balance) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s balance %s  %s\n", bal.Date.Format(model.DateFormat), bal.Account, bal.Amount)
	writeMeta(&b, bal.Meta, "  ")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMeta(b *strings.Builder, m model.Meta, indent string) {
	for _, e := range m {
		fmt.Fprintf(b, "%s%s: %s\n", indent, e.Key, metaValue(e))
	}
}

func metaValue(e model.MetaEntry) string {
	switch e.Kind {
	case model.MetaNumber, model.MetaAmount, model.MetaDate:
		return e.Value
	case model.MetaBool:
		return strings.ToUpper(e.Value)
	}
	return strconv.Quote(e.Value)
}

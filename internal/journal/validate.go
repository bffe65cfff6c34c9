package journal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgersynth/internal/accounts"
	"github.com/cleared-dev/ledgersynth/internal/id"
	"github.com/cleared-dev/ledgersynth/internal/model"
)

// KeySuffix ends every metadata key that carries an ExternalKey.
const KeySuffix = "_external_key"

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	Ref         string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.Ref, e.Description)
}

// AccountChecker tests whether an account name is known.
type AccountChecker interface {
	Exists(name string) bool
}

// Validate enforces the ledger invariants on a set of directives. A nil
// AccountChecker skips the known-account check.
//
//  1. Currency amounts have at most two decimal places.
//  2. Account names are well formed, and known when a checker is given.
//  3. Every transaction, posting and balance carries an ExternalKey.
//  4. Transactions have a valid flag and at least one posting.
//  5. Dates are set.
func Validate(ds []model.Directive, known AccountChecker) []ValidationError {
	var errs []ValidationError
	add := func(inv int, ref, format string, args ...any) {
		errs = append(errs, ValidationError{Invariant: inv, Ref: ref, Description: fmt.Sprintf(format, args...)})
	}
	checkAccount := func(ref, name string) {
		if _, err := accounts.ParseName(name); err != nil {
			add(2, ref, "%v", err)
			return
		}
		if known != nil && !known.Exists(name) {
			add(2, ref, "unknown account %s", name)
		}
	}
	checkMoney := func(ref, what string, a model.Amount) {
		if a.IsMoney() && !isCents(a.Number) {
			add(1, ref, "%s %s has more than 2 decimal places", what, a.Number)
		}
	}

	for i, d := range ds {
		ref := fmt.Sprintf("#%d %s", i+1, d.EntryDate().Format(model.DateFormat))
		if d.EntryDate().IsZero() {
			add(5, ref, "missing date")
		}
		if !hasKey(d.EntryMeta()) {
			add(3, ref, "missing external key")
		}

		switch d := d.(type) {
		case model.Transaction:
			if d.Flag != model.FlagOK && d.Flag != model.FlagReview {
				add(4, ref, "invalid flag %q", d.Flag)
			}
			if len(d.Postings) == 0 {
				add(4, ref, "transaction has no postings")
			}
			for j, p := range d.Postings {
				pref := fmt.Sprintf("%s posting %d", ref, j+1)
				checkAccount(pref, p.Account)
				checkMoney(pref, "units", p.Units)
				if c, ok := p.Cost.Get(); ok {
					checkMoney(pref, "cost", model.Amount{Number: c.Number, Currency: c.Currency})
				}
				if pr, ok := p.Price.Get(); ok {
					checkMoney(pref, "price", pr)
				}
				if !hasKey(p.Meta) {
					add(3, pref, "missing external key")
				}
			}
		case model.Balance:
			checkAccount(ref, d.Account)
			checkMoney(ref, "amount", d.Amount)
		}
	}
	return errs
}

// hasKey reports whether m carries a well-formed ExternalKey namespaced by
// the source its field names.
func hasKey(m model.Meta) bool {
	for _, e := range m {
		prefix, ok := strings.CutSuffix(e.Key, KeySuffix)
		if !ok || e.Value == "" {
			continue
		}
		if source, _, err := id.Split(e.Value); err == nil && source == prefix {
			return true
		}
	}
	return false
}

func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(model.MoneyPlaces))
}

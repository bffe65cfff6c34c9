package model

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the fixed number of decimal places for currency amounts.
const MoneyPlaces = 2

// Amount is a number of units of a currency or commodity.
// Currency amounts built with Money are always rounded to MoneyPlaces.
// Commodity is set by Units; a ticker may share its code with a currency
// (BND), so the kind is never inferred from the code.
type Amount struct {
	Number    decimal.Decimal
	Currency  string
	Commodity bool
}

// Money returns a currency amount rounded half-even to two places.
func Money(d decimal.Decimal, currency string) Amount {
	return Amount{Number: d.RoundBank(MoneyPlaces), Currency: currency}
}

// Units returns an exact amount of a commodity (shares, fund units).
func Units(d decimal.Decimal, commodity string) Amount {
	return Amount{Number: d, Currency: commodity, Commodity: true}
}

// ParseMoney parses decimal text into a rounded currency amount.
func ParseMoney(text, currency string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return Amount{}, fmt.Errorf("parsing amount %q: %w", text, err)
	}
	return Money(d, currency), nil
}

// IsCurrency reports whether code is a known ISO 4217 currency.
func IsCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}

// IsMoney reports whether the amount is denominated in a currency rather than a commodity.
func (a Amount) IsMoney() bool { return !a.Commodity }

func (a Amount) IsZero() bool     { return a.Number.IsZero() }
func (a Amount) IsPositive() bool { return a.Number.IsPositive() }
func (a Amount) IsNegative() bool { return a.Number.IsNegative() }
func (a Amount) Neg() Amount      { return a.with(a.Number.Neg()) }
func (a Amount) Abs() Amount      { return a.with(a.Number.Abs()) }

func (a Amount) with(d decimal.Decimal) Amount {
	return Amount{Number: d, Currency: a.Currency, Commodity: a.Commodity}
}

// Equal compares number, currency and kind.
func (a Amount) Equal(b Amount) bool {
	return a.Currency == b.Currency && a.Commodity == b.Commodity && a.Number.Equal(b.Number)
}

func (a Amount) Add(b Amount) Amount {
	return Amount{Number: a.Number.Add(b.Number), Currency: currency(a, b), Commodity: a.Commodity || b.Commodity}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{Number: a.Number.Sub(b.Number), Currency: currency(a, b), Commodity: a.Commodity || b.Commodity}
}

// currency treats "" as a wildcard so decimal zero values can seed sums.
func currency(a, b Amount) string {
	if a.Currency == "" {
		return b.Currency
	}
	if b.Currency == "" {
		return a.Currency
	}
	if a.Currency != b.Currency {
		panic("currency mismatch: " + a.Currency + " != " + b.Currency)
	}
	return a.Currency
}

// NumberString renders the number only: fixed two places for money, exact
// otherwise. Money carrying extra precision is rendered exactly so that it
// is never hidden.
func (a Amount) NumberString() string {
	if a.IsMoney() && a.Number.Equal(a.Number.Round(MoneyPlaces)) {
		return a.Number.StringFixed(MoneyPlaces)
	}
	return a.Number.String()
}

// String renders "123.10 USD".
func (a Amount) String() string {
	return a.NumberString() + " " + a.Currency
}

package accounts

import (
	"fmt"
	"strings"
	"unicode"
)

// Type is the root category of a ledger account.
type Type string

const (
	TypeAssets      Type = "Assets"
	TypeLiabilities Type = "Liabilities"
	TypeEquity      Type = "Equity"
	TypeIncome      Type = "Income"
	TypeExpenses    Type = "Expenses"
)

var rootTypes = []Type{TypeAssets, TypeLiabilities, TypeEquity, TypeIncome, TypeExpenses}

// Account is a ledger account name that should exist, and the source that needs it.
type Account struct {
	Name   string
	Type   Type
	Source string
}

// ParseName validates a colon-separated account name such as
// "Assets:Vanguard:Cash" and returns its root type.
func ParseName(name string) (Type, error) {
	parts := strings.Split(name, ":")
	if len(parts) < 2 {
		return "", fmt.Errorf("account %q: expected <Root>:<Component>[:...]", name)
	}
	var typ Type
	for _, t := range rootTypes {
		if string(t) == parts[0] {
			typ = t
		}
	}
	if typ == "" {
		return "", fmt.Errorf("account %q: unknown root %q", name, parts[0])
	}
	for _, p := range parts[1:] {
		if err := checkComponent(p); err != nil {
			return "", fmt.Errorf("account %q: %w", name, err)
		}
	}
	return typ, nil
}

// Join builds an account name from components.
func Join(parts ...string) string {
	return strings.Join(parts, ":")
}

func checkComponent(c string) error {
	if c == "" {
		return fmt.Errorf("empty component")
	}
	for i, r := range c {
		switch {
		case i == 0 && !(unicode.IsUpper(r) || unicode.IsDigit(r)):
			return fmt.Errorf("component %q must start with a capital letter or digit", c)
		case !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-'):
			return fmt.Errorf("component %q: invalid character %q", c, r)
		}
	}
	return nil
}

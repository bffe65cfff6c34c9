// Package rules dispatches entries to output shapes through an ordered table.
//
// Rules are evaluated top-down and the first match wins. An entry that no
// rule matches is resolved by the table's fallback, so nothing is dropped.
package rules

import (
	"fmt"
	"slices"
	"strings"
)

// FallbackName is reported in a Match when no rule applied.
const FallbackName = "fallback"

// Pred is a predicate over an entry.
type Pred[E any] func(E) bool

// Resolve builds the output for an entry. Errors are reserved for
// configuration problems such as an unmapped account identifier.
type Resolve[E, S any] func(E) (S, error)

// Rule pairs a predicate with the shape it selects.
type Rule[E, S any] struct {
	Name string
	When Pred[E]
	Then Resolve[E, S]
}

// Match is the result of classifying one entry.
type Match[S any] struct {
	Rule     string
	Shape    S
	Fallback bool
}

// Table is an ordered, immutable rule list.
type Table[E, S any] struct {
	rules    []Rule[E, S]
	fallback Resolve[E, S]
}

// NewTable builds a table. It panics on unnamed, incomplete or duplicate
// rules, which are programming errors in a source definition.
func NewTable[E, S any](fallback Resolve[E, S], rules ...Rule[E, S]) *Table[E, S] {
	if fallback == nil {
		panic("rules: nil fallback")
	}
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.Name == "" || r.When == nil || r.Then == nil {
			panic(fmt.Sprintf("rules: incomplete rule at position %d", i))
		}
		if seen[r.Name] || r.Name == FallbackName {
			panic("rules: duplicate rule name " + r.Name)
		}
		seen[r.Name] = true
	}
	return &Table[E, S]{rules: slices.Clone(rules), fallback: fallback}
}

// Classify returns the shape selected by the first matching rule.
func (t *Table[E, S]) Classify(e E) (Match[S], error) {
	for _, r := range t.rules {
		if !r.When(e) {
			continue
		}
		s, err := r.Then(e)
		if err != nil {
			return Match[S]{}, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		return Match[S]{Rule: r.Name, Shape: s}, nil
	}
	s, err := t.fallback(e)
	if err != nil {
		return Match[S]{}, fmt.Errorf("rule %s: %w", FallbackName, err)
	}
	return Match[S]{Rule: FallbackName, Shape: s, Fallback: true}, nil
}

// Names lists rule names in evaluation order.
func (t *Table[E, S]) Names() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.Name
	}
	return names
}

// In matches when field(e) equals one of values.
func In[E any](field func(E) string, values ...string) Pred[E] {
	return func(e E) bool { return slices.Contains(values, field(e)) }
}

// Contains matches when field(e) contains sub, ignoring case.
func Contains[E any](field func(E) string, sub string) Pred[E] {
	sub = strings.ToUpper(sub)
	return func(e E) bool { return strings.Contains(strings.ToUpper(field(e)), sub) }
}

// All matches when every predicate matches.
func All[E any](preds ...Pred[E]) Pred[E] {
	return func(e E) bool {
		for _, p := range preds {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one predicate matches.
func Any[E any](preds ...Pred[E]) Pred[E] {
	return func(e E) bool {
		for _, p := range preds {
			if p(e) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate.
func Not[E any](p Pred[E]) Pred[E] {
	return func(e E) bool { return !p(e) }
}

// Fixed returns a resolver that always yields s.
func Fixed[E, S any](s S) Resolve[E, S] {
	return func(E) (S, error) { return s, nil }
}

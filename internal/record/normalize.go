package record

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DecodeAll converts raw records into canonical entries. The first record that
// fails to decode aborts the whole batch.
func DecodeAll[E any](raws []Raw, decode func(*Decoder) E) ([]E, error) {
	entries := make([]E, 0, len(raws))
	for _, r := range raws {
		d := NewDecoder(r)
		e := decode(d)
		if err := d.Err(); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Chronological orders entries in place: file order is reversed, then stably
// sorted by cmp. Feeds list newest-first, so equal keys end up oldest-first.
func Chronological[E any](entries []E, cmp func(a, b E) int) {
	slices.Reverse(entries)
	slices.SortStableFunc(entries, cmp)
}

func scalarText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return numberText(v)
	}
}

// numberText renders a decoded number as decimal text without passing it
// through binary floating point arithmetic.
func numberText(v any) (string, error) {
	switch x := v.(type) {
	case json.Number:
		return x.String(), nil
	case string:
		return strings.TrimSpace(x), nil
	case float64:
		// Shortest representation that round-trips: 123.1, never 123.09999.
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	default:
		return "", fmt.Errorf("expected number, got %T", v)
	}
}

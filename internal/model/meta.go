package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical rendering of calendar dates.
const DateFormat = "2006-01-02"

// MetaKind tells renderers how a metadata value is typed.
type MetaKind string

const (
	MetaString MetaKind = "string"
	MetaNumber MetaKind = "number"
	MetaAmount MetaKind = "amount"
	MetaDate   MetaKind = "date"
	MetaBool   MetaKind = "bool"
)

// MetaEntry is one key/value pair. Value is always the canonical text form.
type MetaEntry struct {
	Key   string
	Value string
	Kind  MetaKind
}

// Meta is an ordered metadata map. Keys are unique; insertion order is kept.
type Meta []MetaEntry

// Get returns the value stored under key.
func (m Meta) Get(key string) (string, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Keys returns the keys in order.
func (m Meta) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

// Set stores a value, replacing an existing entry in place.
func (m *Meta) Set(key, value string, kind MetaKind) {
	for i := range *m {
		if (*m)[i].Key == key {
			(*m)[i].Value = value
			(*m)[i].Kind = kind
			return
		}
	}
	*m = append(*m, MetaEntry{Key: key, Value: value, Kind: kind})
}

func (m *Meta) SetString(key, v string) { m.Set(key, v, MetaString) }

func (m *Meta) SetNumber(key string, d decimal.Decimal) { m.Set(key, d.String(), MetaNumber) }

func (m *Meta) SetInt(key string, n int64) { m.Set(key, strconv.FormatInt(n, 10), MetaNumber) }

func (m *Meta) SetAmount(key string, a Amount) { m.Set(key, a.String(), MetaAmount) }

func (m *Meta) SetDate(key string, t time.Time) { m.Set(key, t.Format(DateFormat), MetaDate) }

func (m *Meta) SetBool(key string, b bool) { m.Set(key, strconv.FormatBool(b), MetaBool) }

// Prefixed returns a copy with every key written as prefix_key.
func (m Meta) Prefixed(prefix string) Meta {
	out := make(Meta, len(m))
	for i, e := range m {
		e.Key = prefix + "_" + e.Key
		out[i] = e
	}
	return out
}

// Merge concatenates metadata maps; later keys overwrite earlier ones.
func Merge(ms ...Meta) Meta {
	var out Meta
	for _, m := range ms {
		for _, e := range m {
			out.Set(e.Key, e.Value, e.Kind)
		}
	}
	return out
}

package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMetaSetKeepsOrder(t *testing.T) {
	var m Meta
	m.SetString("b", "1")
	m.SetString("a", "2")
	m.SetString("b", "3")
	assert.Equal(t, []string{"b", "a"}, m.Keys())

	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestMetaTypedSetters(t *testing.T) {
	var m Meta
	m.SetDate("d", time.Date(2020, 8, 27, 0, 0, 0, 0, time.UTC))
	m.SetAmount("amt", Money(decimal.RequireFromString("123"), "USD"))
	m.SetInt("seq", 42)
	m.SetBool("pending", false)

	assert.Equal(t, MetaEntry{Key: "d", Value: "2020-08-27", Kind: MetaDate}, m[0])
	assert.Equal(t, MetaEntry{Key: "amt", Value: "123.00 USD", Kind: MetaAmount}, m[1])
	assert.Equal(t, MetaEntry{Key: "seq", Value: "42", Kind: MetaNumber}, m[2])
	assert.Equal(t, MetaEntry{Key: "pending", Value: "false", Kind: MetaBool}, m[3])
}

func TestMetaPrefixedAndMerge(t *testing.T) {
	var fields Meta
	fields.SetString("id", "X1")
	p := fields.Prefixed("wegmans")
	assert.Equal(t, []string{"wegmans_id"}, p.Keys())
	assert.Equal(t, []string{"id"}, fields.Keys(), "Prefixed must not modify the receiver")

	var key Meta
	key.SetString("wegmans_id", "X2")
	merged := Merge(p, key)
	v, _ := merged.Get("wegmans_id")
	assert.Equal(t, "X2", v)
	assert.Len(t, merged, 1)
}

func TestOpt(t *testing.T) {
	var absent Opt[int]
	assert.False(t, absent.OK())
	assert.Equal(t, 7, absent.Or(7))

	v, ok := Some(3).Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.False(t, None[string]().OK())
}

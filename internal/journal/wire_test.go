package journal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgersynth/internal/model"
)

func TestDirectives_RoundTrip(t *testing.T) {
	in := []model.Directive{sampleTransaction(), sampleBuy(), sampleBalance()}

	var buf bytes.Buffer
	require.NoError(t, WriteDirectives(&buf, in))
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	got, err := ReadDirectives(&buf)
	require.NoError(t, err)
	require.Len(t, got, 3)

	txn := got[0].(model.Transaction)
	want := sampleTransaction()
	assert.Equal(t, want.Date, txn.Date)
	assert.Equal(t, want.Payee, txn.Payee)
	assert.Equal(t, want.Meta, txn.Meta)
	require.Len(t, txn.Postings, 3)
	assert.Equal(t, "900.10 USD", txn.Postings[1].Units.String())
	assert.Equal(t, want.Postings[1].Meta, txn.Postings[1].Meta)

	buy := got[1].(model.Transaction)
	assert.Equal(t, model.FlagReview, buy.Flag)
	assert.Equal(t, []string{"brokerage"}, buy.Tags)
	assert.Equal(t, []string{"vanguard-42"}, buy.Links)
	cost, ok := buy.Postings[1].Cost.Get()
	require.True(t, ok)
	assert.True(t, cost.Number.Equal(dec("28.57")))
	assert.Equal(t, model.Some(date(2021, 3, 1)), cost.Date)
	price, ok := buy.Postings[1].Price.Get()
	require.True(t, ok)
	assert.Equal(t, "28.50 USD", price.String())
	assert.Equal(t, "3.5 VTI", buy.Postings[1].Units.String())
	assert.False(t, buy.Postings[1].Units.IsMoney())

	bal := got[2].(model.Balance)
	assert.Equal(t, "Liabilities:Mortgage", bal.Account)
	assert.Equal(t, "-150000.25 USD", bal.Amount.String())
}

func TestMarshalDirective_ExactText(t *testing.T) {
	data, err := MarshalDirective(sampleTransaction())
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"type":"transaction"`)
	assert.Contains(t, s, `"number":"900.10"`)
	assert.Contains(t, s, `"date":"2020-08-27"`)
	assert.NotContains(t, s, "900.0999")
}

func TestMarshalDirective_TickerNamedLikeCurrency(t *testing.T) {
	txn := sampleBuy()
	txn.Postings[1].Account = "Assets:Vanguard:BND"
	txn.Postings[1].Units = model.Units(dec("1.234"), "BND")

	data, err := MarshalDirective(txn)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"number":"1.234","currency":"BND","commodity":true}`)

	d, err := UnmarshalDirective(data)
	require.NoError(t, err)
	units := d.(model.Transaction).Postings[1].Units
	assert.Equal(t, "1.234 BND", units.String())
	assert.False(t, units.IsMoney())
	assert.Empty(t, Validate([]model.Directive{d}, nil))
}

func TestUnmarshalDirective_Errors(t *testing.T) {
	badInputs := []string{
		`not json`,
		`{"type":"transaction","date":"08/27/2020"}`,
		`{"type":"open","date":"2020-08-27"}`,
		`{"type":"balance","date":"2020-08-27","account":"Assets:A"}`,
		`{"type":"balance","date":"2020-08-27","account":"Assets:A","amount":{"number":"x","currency":"USD"}}`,
		`{"type":"transaction","date":"2020-08-27","postings":[{"account":"A","units":{"number":"1","currency":"USD"},"cost":{"number":"bad","currency":"USD"}}]}`,
	}
	for _, input := range badInputs {
		_, err := UnmarshalDirective([]byte(input))
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestReadDirectives_LineNumbers(t *testing.T) {
	in := "\n" + `{"type":"balance","date":"2020-08-28","account":"Assets:A","amount":{"number":"1","currency":"USD"}}` + "\n{oops}\n"
	_, err := ReadDirectives(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestMetaKindDefaultsToString(t *testing.T) {
	d, err := UnmarshalDirective([]byte(`{"type":"balance","date":"2020-08-28","account":"Assets:A","amount":{"number":"1","currency":"USD"},"meta":[{"key":"k","value":"v"}]}`))
	require.NoError(t, err)
	assert.Equal(t, model.Meta{{Key: "k", Value: "v", Kind: model.MetaString}}, d.EntryMeta())
}

func TestResults_RoundTrip(t *testing.T) {
	in := []model.ImportResult{
		{
			Date:    date(2020, 8, 27),
			Info:    model.Provenance{Path: "/data/fifththird.jsonl", Line: 3, Type: "application/json"},
			Entries: []model.Directive{sampleTransaction()},
		},
		{
			Date:    date(2020, 8, 28),
			Info:    model.Provenance{Path: "/data/fifththird.jsonl", Line: 4, Type: "application/json"},
			Entries: []model.Directive{sampleBalance(), sampleBalance()},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, in))

	got, err := ReadResults(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, in[0].Date, got[0].Date)
	assert.Equal(t, in[0].Info, got[0].Info)
	assert.Len(t, got[0].Entries, 1)
	assert.Len(t, got[1].Entries, 2)
}

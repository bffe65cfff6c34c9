package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgersynth/internal/config"
	"github.com/cleared-dev/ledgersynth/internal/journal"
	"github.com/cleared-dev/ledgersynth/internal/model"
)

func vanguardConfig(file string) config.SourceConfig {
	return config.SourceConfig{
		Name: "brokerage",
		Kind: KindVanguard,
		File: file,
		Accounts: map[string]string{
			"dividend": "Income:Vanguard:Dividend",
			"gain_st":  "Income:Vanguard:GainST",
			"gain_lt":  "Income:Vanguard:GainLT",
			"rollover": "Assets:Retirement:OldPlan",
		},
		SubAccounts: map[string]string{"12345678": "Assets:Vanguard:Brokerage"},
	}
}

func TestNewVanguard_RequiresSubAccounts(t *testing.T) {
	sc := vanguardConfig("vanguard.jsonl")
	sc.SubAccounts = nil
	env, _ := testEnv()

	_, err := NewVanguard(sc, env)
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "sub_accounts", cfgErr.Key)
}

func TestVanguard_Prepare(t *testing.T) {
	env, _ := testEnv()
	src, err := NewVanguard(vanguardConfig("vanguard.jsonl"), env)
	require.NoError(t, err)

	c, st := prepare(t, src, memLedger{})
	assert.Equal(t, Stats{Loaded: 4, Staged: 4, Review: 2}, st)
	results := c.Results()
	require.Len(t, results, 4)

	t.Run("buy at stated price", func(t *testing.T) {
		tx := onlyTxn(t, results[0])
		assert.Equal(t, model.FlagOK, tx.Flag)
		assert.Equal(t, "Buy - VTSAX - Total Stock Mkt Idx Adm", tx.Narration)
		assert.Equal(t, []string{"Assets:Vanguard:Brokerage:Cash -1012.50 USD", "Assets:Vanguard:Brokerage:VTSAX 10 VTSAX"}, legs(tx))

		cost, ok := tx.Postings[1].Cost.Get()
		require.True(t, ok)
		assert.Equal(t, "101.25", cost.Number.StringFixed(2))
		costDate, ok := cost.Date.Get()
		require.True(t, ok)
		assert.Equal(t, day(2024, 3, 1), costDate)
	})

	t.Run("buy cost derived from net over quantity", func(t *testing.T) {
		tx := onlyTxn(t, results[1])
		cost, ok := tx.Postings[1].Cost.Get()
		require.True(t, ok)
		// 400.00 / 3.5 = 114.2857...
		assert.Equal(t, "114.29", cost.Number.String())
	})

	t.Run("dividend to cash needs review", func(t *testing.T) {
		tx := onlyTxn(t, results[2])
		assert.Equal(t, model.FlagReview, tx.Flag)
		assert.Equal(t, "Dividend", tx.Narration)
		assert.Equal(t, []string{"Expenses:FIXME -52.10 USD", "Income:Vanguard:Dividend 52.10 USD"}, legs(tx))
		assert.False(t, tx.Postings[1].Cost.OK())
	})

	t.Run("unknown code falls back", func(t *testing.T) {
		tx := onlyTxn(t, results[3])
		assert.Equal(t, model.FlagReview, tx.Flag)
		assert.Equal(t, []string{"Expenses:FIXME 150.00 USD", "Assets:Vanguard:Brokerage:VTSAX -1.25 VTSAX"}, legs(tx))
		assert.False(t, tx.Postings[1].Cost.OK())
	})

	t.Run("metadata omits zero fields", func(t *testing.T) {
		tx := onlyTxn(t, results[2])
		meta := tx.Postings[1].Meta
		_, hasQty := meta.Get("vanguard_quantity")
		_, hasFee := meta.Get("vanguard_fee")
		assert.False(t, hasQty)
		assert.False(t, hasFee)
		seq, _ := meta.Get("vanguard_sequenceNumber")
		assert.Equal(t, "3", seq)
		key, _ := meta.Get("vanguard_external_key")
		assert.Equal(t, "vanguard:12345678|3", key)
	})
}

func TestVanguard_ContainerDocument(t *testing.T) {
	sc := vanguardConfig("vanguard.json")
	sc.RecordsPath = "$.transaction"
	env, _ := testEnv()
	src, err := NewVanguard(sc, env)
	require.NoError(t, err)

	c, st := prepare(t, src, memLedger{})
	assert.Equal(t, 2, st.Staged)
	results := c.Results()
	require.Len(t, results, 2)

	// Sorted by sequence number; Line is the position in the array.
	assert.Equal(t, 2, results[0].Info.Line)
	gain := onlyTxn(t, results[0])
	assert.Equal(t, model.FlagOK, gain.Flag)
	assert.Equal(t, []string{"Income:Vanguard:GainLT -60.00 USD", "Assets:Vanguard:Brokerage:VTSAX 0.5 VTSAX"}, legs(gain))

	conv := onlyTxn(t, results[1])
	assert.Equal(t, model.FlagReview, conv.Flag)
	cost, ok := conv.Postings[1].Cost.Get()
	require.True(t, ok)
	assert.Equal(t, "450.25", cost.Number.String())
	assert.False(t, conv.Postings[1].Price.OK())
}

func TestVanguard_KnownKeySkippedDespiteChangedFields(t *testing.T) {
	env, _ := testEnv()
	src, err := NewVanguard(vanguardConfig("vanguard.jsonl"), env)
	require.NoError(t, err)
	first, _ := prepare(t, src, memLedger{})

	// The same sequence number re-fetched with a new description and amount.
	dir := t.TempDir()
	writeFile(t, dir, "v.jsonl", `{"accountId":"12345678","sequenceNumber":2,"transactionCode":"BUY","description":"Buy (corrected)","ticker":"VTSAX","quantity":3.5,"netAmount":401.15,"principleAmount":401.15,"recordDate":"2024-03-06"}`+"\n")
	env.Root = dir
	src, err = NewVanguard(vanguardConfig("v.jsonl"), env)
	require.NoError(t, err)

	c, st := prepare(t, src, memLedger(first.Directives()))
	assert.Equal(t, Stats{Loaded: 1, Skipped: 1}, st)
	assert.Empty(t, c.Results())
}

func TestVanguard_Codes(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want []string
		flag string
	}{
		{
			name: "transfer from cash",
			row:  `{"transactionCode":"9555","ticker":"VTSAX","quantity":2,"price":100,"principleAmount":200}`,
			want: []string{"Assets:Vanguard:Brokerage:Cash -200.00 USD", "Assets:Vanguard:Brokerage:VTSAX 2 VTSAX"},
			flag: model.FlagOK,
		},
		{
			name: "direct transfer of cash",
			row:  `{"transactionCode":"DTRF","investmentName":"CASH","principleAmount":500}`,
			want: []string{"Expenses:FIXME 500.00 USD", "Assets:Vanguard:Brokerage:Cash -500.00 USD"},
			flag: model.FlagReview,
		},
		{
			name: "direct transfer of shares",
			row:  `{"transactionCode":"DTRF","investmentName":"Total Stock","ticker":"VTSAX","quantity":3,"price":100}`,
			want: []string{"Expenses:FIXME -3 VTSAX", "Assets:Vanguard:Brokerage:VTSAX 3 VTSAX"},
			flag: model.FlagReview,
		},
		{
			name: "write off",
			row:  `{"transactionCode":"WOFF","principleAmount":1.5}`,
			want: []string{"Expenses:FIXME 1.50 USD", "Assets:Vanguard:Brokerage:Cash -1.50 USD"},
			flag: model.FlagReview,
		},
		{
			name: "rollover",
			row:  `{"transactionCode":"ROLL","principleAmount":10000}`,
			want: []string{"Assets:Retirement:OldPlan 10000.00 USD", "Assets:Vanguard:Brokerage:Cash -10000.00 USD"},
			flag: model.FlagOK,
		},
		{
			name: "short gain reinvested",
			row:  `{"transactionCode":"8037","ticker":"VTSAX","quantity":0.1,"price":100,"principleAmount":10}`,
			want: []string{"Income:Vanguard:GainST -10.00 USD", "Assets:Vanguard:Brokerage:VTSAX 0.1 VTSAX"},
			flag: model.FlagOK,
		},
		{
			name: "dividend reinvested",
			row:  `{"transactionCode":"8112","ticker":"VTSAX","quantity":0.2,"price":100,"principleAmount":20}`,
			want: []string{"Income:Vanguard:Dividend -20.00 USD", "Assets:Vanguard:Brokerage:VTSAX 0.2 VTSAX"},
			flag: model.FlagOK,
		},
		{
			name: "long gain to cash",
			row:  `{"transactionCode":"LCAP","ticker":"VTSAX","principleAmount":75}`,
			want: []string{"Expenses:FIXME -75.00 USD", "Income:Vanguard:GainLT 75.00 USD"},
			flag: model.FlagReview,
		},
		{
			name: "short gain to cash",
			row:  `{"transactionCode":"SCAP","ticker":"VTSAX","principleAmount":25}`,
			want: []string{"Expenses:FIXME -25.00 USD", "Income:Vanguard:GainST 25.00 USD"},
			flag: model.FlagReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := prepareVanguardRow(t, tt.row)
			assert.Equal(t, tt.want, legs(tx))
			assert.Equal(t, tt.flag, tx.Flag)
		})
	}
}

func TestVanguard_ConversionOutUsesPrice(t *testing.T) {
	tx := prepareVanguardRow(t, `{"transactionCode":"CNVO","ticker":"VTSAX","quantity":-4,"netAmount":-480.02,"principleAmount":-480.02}`)
	assert.False(t, tx.Postings[1].Cost.OK())
	price, ok := tx.Postings[1].Price.Get()
	require.True(t, ok)
	// 480.02 / 4 = 120.005, half-even to 120.00.
	assert.Equal(t, "120.00 USD", price.String())
}

func TestVanguard_SellForExchangeUsesStatedPrice(t *testing.T) {
	tx := prepareVanguardRow(t, `{"transactionCode":"SELE","ticker":"VTSAX","quantity":-2,"price":99.5,"principleAmount":-199}`)
	assert.False(t, tx.Postings[1].Cost.OK())
	price, ok := tx.Postings[1].Price.Get()
	require.True(t, ok)
	assert.Equal(t, "99.50 USD", price.String())
}

func TestVanguard_TickerNamedLikeCurrencyKeepsExactUnits(t *testing.T) {
	tx := prepareVanguardRow(t, `{"transactionCode":"BUY","ticker":"BND","quantity":1.234,"price":72.5,"principleAmount":89.47}`)
	assert.Equal(t, []string{"Assets:Vanguard:Brokerage:Cash -89.47 USD", "Assets:Vanguard:Brokerage:BND 1.234 BND"}, legs(tx))
	assert.False(t, tx.Postings[1].Units.IsMoney())
	assert.Empty(t, journal.Validate([]model.Directive{tx}, nil))
}

func TestVanguard_UnmappedAccountFailsFast(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "v.jsonl", `{"accountId":"99999999","sequenceNumber":1,"transactionCode":"BUY","recordDate":"2024-01-02"}`+"\n")
	env, _ := testEnv()
	env.Root = dir
	src, err := NewVanguard(vanguardConfig("v.jsonl"), env)
	require.NoError(t, err)

	_, err = src.Prepare(memLedger{}, stageFor(t))
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "sub_accounts", cfgErr.Key)
	assert.Contains(t, cfgErr.Reason, "99999999")
}

// prepareVanguardRow runs a single export row, filling in the identity and
// date fields.
func prepareVanguardRow(t *testing.T, row string) model.Transaction {
	t.Helper()
	prefix := `{"accountId":"12345678","sequenceNumber":1,"recordDate":"2024-01-02","tradeDate":"2024-01-02",`
	dir := t.TempDir()
	writeFile(t, dir, "v.jsonl", prefix+row[1:]+"\n")

	env, _ := testEnv()
	env.Root = dir
	src, err := NewVanguard(vanguardConfig("v.jsonl"), env)
	require.NoError(t, err)

	c, _ := prepare(t, src, memLedger{})
	require.Len(t, c.Results(), 1)
	return onlyTxn(t, c.Results()[0])
}

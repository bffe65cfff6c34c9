package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgersynth/internal/aggregate"
	"github.com/cleared-dev/ledgersynth/internal/config"
	"github.com/cleared-dev/ledgersynth/internal/model"
)

func wegmansConfig() config.SourceConfig {
	return config.SourceConfig{
		Name: "groceries",
		Kind: KindWegmans,
		Dir:  "wegmans",
		Accounts: map[string]string{
			"charge":        "Liabilities:CreditCard",
			"tax":           "Expenses:Taxes:Sales",
			"discrepancy":   "Expenses:Food:Groceries",
			"bucket_prefix": "Expenses:Groceries",
		},
		Categories: map[string]string{"Produce, Fruit": "Expenses:Food:Produce"},
	}
}

func TestWegmans_Prepare(t *testing.T) {
	env, msgs := testEnv()
	src, err := NewWegmans(wegmansConfig(), env)
	require.NoError(t, err)

	c, st := prepare(t, src, memLedger{})
	assert.Equal(t, Stats{Loaded: 3, Excluded: 1, Staged: 2}, st)
	assert.Contains(t, *msgs, "Skipping cancelled order: 1003")

	results := c.Results()
	require.Len(t, results, 2)

	t.Run("buckets without discrepancy", func(t *testing.T) {
		tx := onlyTxn(t, results[0])
		assert.Equal(t, day(2024, 4, 2), tx.Date)
		assert.Equal(t, "Wegmans", tx.Payee)
		assert.Equal(t, "Pittsford", tx.Narration)
		assert.Equal(t, model.FlagOK, tx.Flag)
		assert.Equal(t, []string{
			"Liabilities:CreditCard -100.00 USD",
			"Expenses:Taxes:Sales 8.00 USD",
			"Expenses:Groceries:" + aggregate.BucketKey("Dairy, Milk") + " 7.50 USD",
			"Expenses:Groceries:Kombucha 4.50 USD",
			"Expenses:Food:Produce 80.00 USD",
		}, legs(tx))

		dairy := tx.Postings[2].Meta
		label, _ := dairy.Get("wegmans_category")
		assert.Equal(t, "Dairy, Milk", label)
		item, _ := dairy.Get("wegmans_item_00")
		assert.Equal(t, "Dairy, Milk, Whole: Wegmans / Whole Milk | 1 @ 4.00 = 4.00", item)
		_, ok := dairy.Get("wegmans_item_01")
		assert.True(t, ok)

		produce, _ := tx.Postings[4].Meta.Get("wegmans_item_00")
		assert.Contains(t, produce, "Bosc Pears")

		lastFour, _ := tx.Postings[1].Meta.Get("wegmans_last_four")
		assert.Equal(t, "4242", lastFour)
	})

	t.Run("discrepancy posting", func(t *testing.T) {
		tx := onlyTxn(t, results[1])
		assert.Equal(t, []string{
			"Liabilities:CreditCard -101.00 USD",
			"Expenses:Taxes:Sales 8.00 USD",
			"Expenses:Food:Groceries 1.00 USD",
			"Expenses:Groceries:" + aggregate.BucketKey("Pantry, Oils") + " 92.00 USD",
		}, legs(tx))
		comment, _ := tx.Postings[2].Meta.Get("wegmans_comment")
		assert.Equal(t, "Unknown discrepancy", comment)
	})

	t.Run("reimport skips known orders", func(t *testing.T) {
		_, again := prepare(t, src, memLedger(c.Directives()))
		assert.Equal(t, Stats{Loaded: 3, Skipped: 2, Excluded: 1}, again)
	})
}

func TestWegmans_ConfiguredOverrides(t *testing.T) {
	sc := wegmansConfig()
	sc.BucketOverrides = []config.BucketOverride{{Keyword: "Milk", Bucket: "Milk"}}
	sc.BucketLevels = 1
	env, _ := testEnv()
	src, err := NewWegmans(sc, env)
	require.NoError(t, err)

	c, _ := prepare(t, src, memLedger{})
	tx := onlyTxn(t, c.Results()[0])
	assert.Equal(t, []string{
		"Liabilities:CreditCard -100.00 USD",
		"Expenses:Taxes:Sales 8.00 USD",
		"Expenses:Groceries:Milk 7.50 USD",
		"Expenses:Groceries:" + aggregate.BucketKey("Dairy") + " 4.50 USD",
		"Expenses:Groceries:" + aggregate.BucketKey("Produce") + " 80.00 USD",
	}, legs(tx))
}

func TestNewWegmans_InvalidOverrideBucket(t *testing.T) {
	sc := wegmansConfig()
	sc.BucketOverrides = []config.BucketOverride{{Keyword: "Wine", Bucket: "wine & beer"}}
	env, _ := testEnv()

	_, err := NewWegmans(sc, env)
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bucket_overrides[0]", cfgErr.Key)
}

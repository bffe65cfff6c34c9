package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgersynth/internal/model"
)

// mockAccounts implements AccountChecker for testing.
type mockAccounts map[string]bool

func (m mockAccounts) Exists(name string) bool { return m[name] }

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func usd(s string) model.Amount {
	return model.Amount{Number: dec(s), Currency: "USD"}
}

func keyMeta(key string) model.Meta {
	var m model.Meta
	m.SetString("fifththird_external_key", key)
	return m
}

func sampleTransaction() model.Transaction {
	full := keyMeta("fifththird:2020-08-27|1500.00")
	full.SetAmount("fifththird_amount", usd("1500.00"))
	full.SetDate("fifththird_post_date", date(2020, 8, 27))
	full.SetBool("fifththird_posted", true)

	return model.Transaction{
		Date:      date(2020, 8, 27),
		Flag:      model.FlagOK,
		Payee:     "Fifth Third Mortgage",
		Narration: "PAYMENT",
		Meta:      keyMeta("fifththird:2020-08-27|1500.00"),
		Postings: []model.Posting{
			{Account: "Assets:FifthThird:Payment", Units: usd("-1500.00"), Meta: keyMeta("fifththird:2020-08-27|1500.00")},
			{Account: "Liabilities:Mortgage", Units: usd("900.10"), Meta: full},
			{Account: "Expenses:Interest", Units: usd("599.90"), Meta: full},
		},
	}
}

func sampleBuy() model.Transaction {
	var m model.Meta
	m.SetString("vanguard_external_key", "vanguard:/1|42")
	m.SetInt("vanguard_sequenceNumber", 42)
	return model.Transaction{
		Date:      date(2021, 3, 2),
		Flag:      model.FlagReview,
		Payee:     "Vanguard",
		Narration: "Buy - VTI - Total Stock",
		Tags:      []string{"brokerage"},
		Links:     []string{"vanguard-42"},
		Meta:      m,
		Postings: []model.Posting{
			{Account: "Assets:Vanguard:Cash", Units: usd("-100.00"), Meta: m},
			{
				Account: "Assets:Vanguard:VTI",
				Units:   model.Units(dec("3.5"), "VTI"),
				Cost:    model.Some(model.Cost{Number: dec("28.57"), Currency: "USD", Date: model.Some(date(2021, 3, 1))}),
				Price:   model.Some(usd("28.50")),
				Meta:    m,
			},
		},
	}
}

func sampleBalance() model.Balance {
	return model.Balance{
		Date:    date(2020, 8, 28),
		Account: "Liabilities:Mortgage",
		Amount:  usd("-150000.25"),
		Meta:    keyMeta("fifththird:2020-08-27|9999"),
	}
}

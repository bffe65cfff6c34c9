package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgersynth/internal/accounts"
	"github.com/cleared-dev/ledgersynth/internal/aggregate"
	"github.com/cleared-dev/ledgersynth/internal/config"
	"github.com/cleared-dev/ledgersynth/internal/model"
	"github.com/cleared-dev/ledgersynth/internal/record"
	"github.com/cleared-dev/ledgersynth/internal/rules"
	"github.com/cleared-dev/ledgersynth/internal/synth"
)

// KindWegmans is a directory of Wegmans orders, one JSON document each.
const KindWegmans = "wegmans"

const wegmansPayee = "Wegmans"

var wegmansFields = []string{
	"id", "timestamp", "fulfillment_date", "store", "status", "last_four",
	"tax_total", "tip_total", "refund_total", "pre_discount_product_total",
	"product_total", "total",
}

var wegmansKey = []string{"id"}

var wegmansAccounts = []string{"charge", "tax", "discrepancy", "bucket_prefix"}

type wegmansEntry struct {
	origin model.Provenance
	fields model.Meta
	id     string
	date   time.Time
	status string
	store  string
	total  model.Amount
	tax    model.Amount
	items  []aggregate.Item
}

func (e wegmansEntry) Date() time.Time          { return e.date }
func (e wegmansEntry) Fields() model.Meta       { return e.fields }
func (e wegmansEntry) Origin() model.Provenance { return e.origin }

func decodeWegmans(currency string) func(*record.Decoder) wegmansEntry {
	return func(d *record.Decoder) wegmansEntry {
		totals := d.Object("final_totals")
		e := wegmansEntry{
			origin: d.Origin(),
			id:     d.String("id"),
			date:   d.Timestamp("timestamp"),
			status: d.Text("status"),
			total:  totals.Money("total", currency),
			tax:    totals.OptMoney("tax_total", currency).Or(model.Money(decimal.Zero, currency)),
		}
		if store, ok := d.OptObject("store"); ok {
			e.store = store.Text("name")
		}

		items := d.Array("items")
		if items == nil {
			items = d.Array("order_items")
		}
		for _, it := range items {
			if item, ok := decodeItem(it, currency); ok {
				e.items = append(e.items, item)
			}
		}

		var lastFour []string
		for _, p := range d.Array("payment_instruments") {
			if s := p.Text("last_four_digits"); s != "" {
				lastFour = append(lastFour, s)
			}
		}

		f := fields{}
		f.text("id", e.id)
		f.date("timestamp", model.Some(e.date))
		f.text("fulfillment_date", d.Text("fulfillment_date"))
		f.text("store", e.store)
		f.text("status", e.status)
		f.text("last_four", strings.Join(lastFour, ", "))
		f.amount("tax_total", model.Some(e.tax))
		f.amount("tip_total", totals.OptMoney("tip_total", currency))
		f.amount("refund_total", totals.OptMoney("refund_total", currency))
		f.amount("pre_discount_product_total", totals.OptMoney("pre_discount_product_total", currency))
		f.amount("product_total", totals.OptMoney("product_total", currency))
		f.amount("total", model.Some(e.total))
		e.fields = f.meta
		return e
	}
}

// decodeItem reads one line item. A removed item is replaced by its
// substitute; without one it is dropped.
func decodeItem(d *record.Decoder, currency string) (aggregate.Item, bool) {
	if d.Text("status") == "removed" {
		child, ok := d.OptObject("child_order_item")
		if !ok {
			return aggregate.Item{}, false
		}
		d = child
	}
	product := d.Object("store_product")
	var cats []string
	for _, c := range product.Array("categories") {
		cats = append(cats, c.Text("name"))
	}
	qty := d.OptDecimal("actual_quantity")
	if !qty.OK() {
		qty = d.OptDecimal("quantity")
	}
	return aggregate.Item{
		Name:       product.String("name"),
		Brand:      product.Text("brand_name"),
		Categories: cats,
		Quantity:   qty.Or(decimal.Zero),
		UnitPrice:  product.OptMoney("base_price", currency),
		SubTotal:   d.Money("sub_total", currency),
	}, true
}

func byOrderDate(a, b wegmansEntry) int {
	if c := a.date.Compare(b.date); c != 0 {
		return c
	}
	return strings.Compare(a.id, b.id)
}

type wegmans struct {
	acct       map[string]string
	categories map[string]string
	opts       aggregate.Options
}

func (w wegmans) bucketAccount(b aggregate.Bucket) string {
	if acct, ok := w.categories[b.Label]; ok {
		return acct
	}
	return accounts.Join(w.acct["bucket_prefix"], b.Key)
}

func (w wegmans) shape(e wegmansEntry) (synth.Shape, error) {
	buckets := aggregate.Group(e.items, w.opts)
	var discrepancy model.Meta
	discrepancy.SetString(KindWegmans+"_comment", "Unknown discrepancy")

	dest := []synth.Leg{
		{Account: w.acct["tax"], Units: model.Some(e.tax)},
		{Account: w.acct["discrepancy"], Units: aggregate.Discrepancy(e.total, e.tax, buckets), Meta: discrepancy},
	}
	for _, b := range buckets {
		dest = append(dest, synth.Leg{
			Account: w.bucketAccount(b),
			Units:   model.Some(b.Total),
			Meta:    b.Meta(KindWegmans),
		})
	}
	return synth.Shape{
		Kind:      synth.Aggregate,
		Payee:     wegmansPayee,
		Narration: e.store,
		Source:    synth.Leg{Account: w.acct["charge"], Units: model.Some(e.total.Neg())},
		Dest:      dest,
	}, nil
}

// NewWegmans builds a source for Wegmans order documents. Line items are
// folded into category buckets so each order has a bounded posting count.
func NewWegmans(sc config.SourceConfig, env Env) (Source, error) {
	if err := sc.RequireAccounts(wegmansAccounts...); err != nil {
		return nil, err
	}
	keys, err := sc.RequireKeyFields(wegmansFields, wegmansKey)
	if err != nil {
		return nil, err
	}
	w := wegmans{
		acct:       sc.Accounts,
		categories: sc.Categories,
		opts:       aggregate.Options{Levels: sc.BucketLevels, Overrides: aggregate.DefaultOverrides},
	}
	if len(sc.BucketOverrides) > 0 {
		w.opts.Overrides = make([]aggregate.Override, len(sc.BucketOverrides))
		for i, o := range sc.BucketOverrides {
			w.opts.Overrides[i] = aggregate.Override{Keyword: o.Keyword, Bucket: o.Bucket}
		}
	}
	for i, o := range w.opts.Overrides {
		if _, ok := w.categories[o.Bucket]; ok {
			continue
		}
		if _, err := accounts.ParseName(accounts.Join(w.acct["bucket_prefix"], o.Bucket)); err != nil {
			return nil, &config.ConfigurationError{Source: sc.Name, Key: fmt.Sprintf("bucket_overrides[%d]", i), Reason: err.Error()}
		}
	}

	return &adapter[wegmansEntry]{
		name:   sc.Name,
		kind:   KindWegmans,
		prefix: KindWegmans,
		keys:   keys,
		status: env.Status,
		table:  rules.NewTable[wegmansEntry, synth.Shape](w.shape),
		skip: func(e wegmansEntry) (string, bool) {
			if e.status == "cancelled" {
				return "Skipping cancelled order: " + e.id, true
			}
			return "", false
		},
		load: func() ([]wegmansEntry, error) {
			paths, err := Inputs(env.Root, sc, ".json")
			if err != nil {
				return nil, err
			}
			read := func(p string) ([]record.Raw, error) { return record.ReadDocument(p, sc.RecordsPath) }
			return loadFiles(paths, read, decodeWegmans(env.Currency), byOrderDate, env.Status)
		},
	}, nil
}

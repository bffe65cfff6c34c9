// Package aggregate folds an order's line items into a small number of
// category buckets so that each order yields a bounded posting count.
package aggregate

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgersynth/internal/model"
)

// DefaultLevels is how many category levels form a bucket label.
const DefaultLevels = 2

// DefaultOverrides special-cases products whose vendor category is misleading.
var DefaultOverrides = []Override{{Keyword: "Kombucha", Bucket: "Kombucha"}}

// Item is one purchased line item.
type Item struct {
	Name       string
	Brand      string
	Categories []string
	Quantity   decimal.Decimal
	UnitPrice  model.Opt[model.Amount]
	SubTotal   model.Amount
}

// Override sends every item whose name contains Keyword to Bucket.
type Override struct {
	Keyword string
	Bucket  string
}

// Options controls bucket assignment.
type Options struct {
	Levels    int
	Overrides []Override
}

func (o Options) levels() int {
	if o.Levels <= 0 {
		return DefaultLevels
	}
	return o.Levels
}

// Bucket aggregates the items sharing a key.
type Bucket struct {
	Key       string
	Label     string
	Total     model.Amount
	Summaries []string
}

// Label joins the first levels category names.
func Label(categories []string, levels int) string {
	if len(categories) > levels {
		categories = categories[:levels]
	}
	return strings.Join(categories, ", ")
}

// BucketKey is the upper-case MD5 hex digest of a label. Equal labels always
// produce equal keys, and the key is a valid ledger account component.
func BucketKey(label string) string {
	sum := md5.Sum([]byte(label))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Assign returns the bucket key and label for an item.
func (o Options) Assign(it Item) (key, label string) {
	for _, ov := range o.Overrides {
		if ov.Keyword != "" && strings.Contains(it.Name, ov.Keyword) {
			return ov.Bucket, ov.Bucket
		}
	}
	label = Label(it.Categories, o.levels())
	return BucketKey(label), label
}

// Summary renders one audit line for an item.
func Summary(it Item) string {
	unit := ""
	if u, ok := it.UnitPrice.Get(); ok {
		unit = u.NumberString()
	}
	return fmt.Sprintf("%s: %s / %s | %s @ %s = %s",
		strings.Join(it.Categories, ", "), it.Brand, it.Name,
		it.Quantity.String(), unit, it.SubTotal.NumberString())
}

// Group assigns items to buckets, returned in first-seen order.
func Group(items []Item, o Options) []Bucket {
	var buckets []Bucket
	index := make(map[string]int)
	for _, it := range items {
		key, label := o.Assign(it)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key, Label: label})
		}
		b := &buckets[i]
		b.Total = b.Total.Add(it.SubTotal)
		b.Summaries = append(b.Summaries, Summary(it))
	}
	return buckets
}

// ItemTotal sums bucket totals.
func ItemTotal(buckets []Bucket) model.Amount {
	var total model.Amount
	for _, b := range buckets {
		total = total.Add(b.Total)
	}
	return total
}

// Discrepancy returns charge - (items + tax) when it is non-zero.
func Discrepancy(charge, tax model.Amount, buckets []Bucket) model.Opt[model.Amount] {
	residual := charge.Sub(ItemTotal(buckets).Add(tax))
	if residual.IsZero() {
		return model.None[model.Amount]()
	}
	return model.Some(residual)
}

// Meta renders the bucket label and per-item summaries under prefix.
func (b Bucket) Meta(prefix string) model.Meta {
	var m model.Meta
	m.SetString(prefix+"_category", b.Label)
	for i, s := range b.Summaries {
		m.SetString(fmt.Sprintf("%s_item_%02d", prefix, i), s)
	}
	return m
}

package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgersynth/internal/model"
)

// ISODate is the layout of plain calendar dates in JSON exports.
const ISODate = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	ISODate,
}

// Decoder reads typed fields out of a Raw record. The first failure is kept
// and reported by Err; later calls return zero values.
type Decoder struct {
	fields map[string]any
	origin model.Provenance
	path   string // dotted prefix for nested objects
	state  *decodeState
}

// decodeState is shared by a decoder and its nested decoders.
type decodeState struct {
	err *MalformedInputError
}

// NewDecoder returns a Decoder over r.
func NewDecoder(r Raw) *Decoder {
	return &Decoder{fields: r.Fields, origin: r.Origin, state: &decodeState{}}
}

// Err returns the first decoding failure as a *MalformedInputError, or nil.
func (d *Decoder) Err() error {
	if d.state.err == nil {
		return nil
	}
	return d.state.err
}

// Origin returns the provenance of the record being decoded.
func (d *Decoder) Origin() model.Provenance { return d.origin }

func (d *Decoder) fail(name string, err error) {
	if d.state.err != nil {
		return
	}
	d.state.err = &MalformedInputError{Path: d.origin.Path, Line: d.origin.Line, Field: d.path + name, Err: err}
}

func (d *Decoder) failed() bool { return d.state.err != nil }

// lookup treats JSON null and empty strings as absent.
func (d *Decoder) lookup(name string) (any, bool) {
	if d.failed() || d.fields == nil {
		return nil, false
	}
	v, ok := d.fields[name]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

// Has reports whether name is present and non-empty.
func (d *Decoder) Has(name string) bool {
	_, ok := d.lookup(name)
	return ok
}

// Text returns an optional scalar field rendered as text, "" when absent.
func (d *Decoder) Text(name string) string {
	v, ok := d.lookup(name)
	if !ok {
		return ""
	}
	s, err := scalarText(v)
	if err != nil {
		d.fail(name, err)
		return ""
	}
	return s
}

// String returns a required scalar field rendered as text.
func (d *Decoder) String(name string) string {
	if !d.Has(name) {
		d.fail(name, ErrMissing)
		return ""
	}
	return d.Text(name)
}

// Bool returns an optional boolean, false when absent.
func (d *Decoder) Bool(name string) bool {
	v, ok := d.lookup(name)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			d.fail(name, err)
		}
		return parsed
	default:
		d.fail(name, fmt.Errorf("expected boolean, got %T", v))
		return false
	}
}

// OptDate returns an optional date in the given layout.
func (d *Decoder) OptDate(name, layout string) model.Opt[time.Time] {
	v, ok := d.lookup(name)
	if !ok {
		return model.None[time.Time]()
	}
	s, isStr := v.(string)
	if !isStr {
		d.fail(name, fmt.Errorf("expected date string, got %T", v))
		return model.None[time.Time]()
	}
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		d.fail(name, fmt.Errorf("invalid date %q: %w", s, err))
		return model.None[time.Time]()
	}
	return model.Some(t)
}

// Date returns a required date in the given layout.
func (d *Decoder) Date(name, layout string) time.Time {
	t, ok := d.OptDate(name, layout).Get()
	if !ok && !d.failed() {
		d.fail(name, ErrMissing)
	}
	return t
}

// Timestamp returns the calendar date of a required ISO-8601 timestamp, taken
// in the timestamp's own offset.
func (d *Decoder) Timestamp(name string) time.Time {
	v, ok := d.lookup(name)
	if !ok {
		d.fail(name, ErrMissing)
		return time.Time{}
	}
	s, isStr := v.(string)
	if !isStr {
		d.fail(name, fmt.Errorf("expected timestamp string, got %T", v))
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	d.fail(name, fmt.Errorf("invalid timestamp %q", s))
	return time.Time{}
}

// OptDecimal returns an optional exact number.
func (d *Decoder) OptDecimal(name string) model.Opt[decimal.Decimal] {
	v, ok := d.lookup(name)
	if !ok {
		return model.None[decimal.Decimal]()
	}
	text, err := numberText(v)
	if err != nil {
		d.fail(name, err)
		return model.None[decimal.Decimal]()
	}
	n, err := decimal.NewFromString(text)
	if err != nil {
		d.fail(name, fmt.Errorf("invalid number %q: %w", text, err))
		return model.None[decimal.Decimal]()
	}
	return model.Some(n)
}

// Decimal returns a required exact number.
func (d *Decoder) Decimal(name string) decimal.Decimal {
	n, ok := d.OptDecimal(name).Get()
	if !ok && !d.failed() {
		d.fail(name, ErrMissing)
	}
	return n
}

// OptMoney returns an optional currency amount rounded to two places.
func (d *Decoder) OptMoney(name, currency string) model.Opt[model.Amount] {
	n, ok := d.OptDecimal(name).Get()
	if !ok {
		return model.None[model.Amount]()
	}
	return model.Some(model.Money(n, currency))
}

// Money returns a required currency amount rounded to two places.
func (d *Decoder) Money(name, currency string) model.Amount {
	return model.Money(d.Decimal(name), currency)
}

// Int returns a required integer.
func (d *Decoder) Int(name string) int64 {
	n := d.Decimal(name)
	if d.failed() {
		return 0
	}
	if !n.IsInteger() {
		d.fail(name, fmt.Errorf("expected integer, got %s", n))
		return 0
	}
	return n.IntPart()
}

// OptObject returns a decoder over a nested object.
func (d *Decoder) OptObject(name string) (*Decoder, bool) {
	v, ok := d.lookup(name)
	if !ok {
		return nil, false
	}
	obj, isObj := v.(map[string]any)
	if !isObj {
		d.fail(name, fmt.Errorf("expected object, got %T", v))
		return nil, false
	}
	return d.child(name, obj), true
}

// Object returns a decoder over a required nested object. On failure the
// returned decoder is empty and every read from it yields zero values.
func (d *Decoder) Object(name string) *Decoder {
	sub, ok := d.OptObject(name)
	if !ok {
		if !d.failed() {
			d.fail(name, ErrMissing)
		}
		return d.child(name, nil)
	}
	return sub
}

// Array returns decoders over the objects of an optional array field.
func (d *Decoder) Array(name string) []*Decoder {
	v, ok := d.lookup(name)
	if !ok {
		return nil
	}
	list, isList := v.([]any)
	if !isList {
		d.fail(name, fmt.Errorf("expected array, got %T", v))
		return nil
	}
	out := make([]*Decoder, 0, len(list))
	for i, elem := range list {
		elemName := fmt.Sprintf("%s[%d]", name, i)
		obj, isObj := elem.(map[string]any)
		if !isObj {
			d.fail(elemName, fmt.Errorf("expected object, got %T", elem))
			return nil
		}
		out = append(out, d.child(elemName, obj))
	}
	return out
}

// child shares the parent's state so nested failures surface on the parent.
func (d *Decoder) child(name string, obj map[string]any) *Decoder {
	return &Decoder{fields: obj, origin: d.origin, path: d.path + name + ".", state: d.state}
}

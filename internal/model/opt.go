package model

// Opt holds a value that may be absent. The zero Opt is absent.
type Opt[T any] struct {
	v  T
	ok bool
}

// Some returns a present Opt.
func Some[T any](v T) Opt[T] { return Opt[T]{v: v, ok: true} }

// None returns an absent Opt.
func None[T any]() Opt[T] { return Opt[T]{} }

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) { return o.v, o.ok }

// OK reports whether the value is present.
func (o Opt[T]) OK() bool { return o.ok }

// Or returns the value, or def when absent.
func (o Opt[T]) Or(def T) T {
	if !o.ok {
		return def
	}
	return o.v
}

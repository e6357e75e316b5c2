package observe

import "reflect"

// Observable marks a type as participating in observation: it exposes
// the Registrar its accessors route reads and writes through. Observed
// entities must be reference types (pointers to structs) with stable
// identity for the lifetime of any pending observation; value copies
// would split the notification domain.
type Observable interface {
	Registrar() *Registrar
}

// Base is an embeddable Observable implementation. Embedding it gives a
// struct its own private Registrar:
//
//	type User struct {
//	    observe.Base
//	    name string
//	}
//
// Types that want to share one notification domain across several
// instances implement Observable themselves and return the shared
// Registrar instead.
type Base struct {
	registrar Registrar
}

// Registrar returns the registrar owned by this instance.
func (b *Base) Registrar() *Registrar {
	return &b.registrar
}

// RegistrarOf returns the Registrar of v, or ErrNotObservable if v does
// not implement Observable.
func RegistrarOf(v any) (*Registrar, error) {
	o, ok := v.(Observable)
	if !ok {
		return nil, ErrNotObservable
	}
	return o.Registrar(), nil
}

// TagName is the struct tag consumed by accessor generators targeting
// this package. The engine itself never reads struct tags.
const TagName = "observe"

// tagIgnore marks a field as excluded from tracking.
const tagIgnore = "-"

// IsIgnored reports whether a struct field is excluded from tracking via
// the `observe:"-"` tag. This is part of the generator contract and has
// no runtime behavior of its own.
func IsIgnored(tag reflect.StructTag) bool {
	return tag.Get(TagName) == tagIgnore
}

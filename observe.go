// Package observe provides the public API for the observe tracking engine.
//
// This is the recommended import for most applications:
//
//	import "github.com/observe-go/observe"
//
// Usage:
//
//	type Counter struct {
//	    observe.Base
//	    value int
//	}
//
//	var counterValue = observe.KeyFor[Counter]("value")
//
//	total := observe.WithTracking(func() int {
//	    return c.Value()
//	}, func() {
//	    // fires once, on the first mutation of c.value
//	})
//
// The engine lives in pkg/observe; this package re-exports its surface.
// Observability bindings (Prometheus, OpenTelemetry, zap) live in
// pkg/instrument.
package observe

import (
	"reflect"

	coreobserve "github.com/observe-go/observe/pkg/observe"
)

// Registrar is the per-object hub recording accesses and delivering
// one-shot mutation notifications. See pkg/observe.Registrar.
type Registrar = coreobserve.Registrar

// PropertyKey identifies one property on one owning type.
type PropertyKey = coreobserve.PropertyKey

// Tracking is the cancellable handle for one armed tracking scope.
type Tracking = coreobserve.Tracking

// Observable marks a type as participating in observation.
type Observable = coreobserve.Observable

// Base is an embeddable Observable implementation.
type Base = coreobserve.Base

// Instrumentation receives engine lifecycle events.
type Instrumentation = coreobserve.Instrumentation

// ErrNotObservable is returned by RegistrarOf for non-observable values.
var ErrNotObservable = coreobserve.ErrNotObservable

// TagName is the struct tag consumed by accessor generators.
const TagName = coreobserve.TagName

// KeyFor returns the PropertyKey for the named property of owning type T.
func KeyFor[T any](name string) PropertyKey {
	return coreobserve.KeyFor[T](name)
}

// WithTracking runs apply, records every tracked property it reads, and
// arms onChange as a one-shot callback on all of them.
func WithTracking[R any](apply func() R, onChange func()) R {
	return coreobserve.WithTracking(apply, onChange)
}

// StartTracking is WithTracking for callers that need the cancellable
// handle.
func StartTracking(apply func(), onChange func()) *Tracking {
	return coreobserve.StartTracking(apply, onChange)
}

// Mutate is Registrar.WithMutation for mutation bodies that return a
// value.
func Mutate[R any](r *Registrar, key PropertyKey, body func() R) R {
	return coreobserve.Mutate(r, key, body)
}

// Untracked runs fn with access recording suppressed on the calling
// goroutine.
func Untracked(fn func()) {
	coreobserve.Untracked(fn)
}

// NewRegistrar returns a standalone Registrar.
func NewRegistrar() *Registrar {
	return coreobserve.NewRegistrar()
}

// RegistrarOf returns the Registrar of v, or ErrNotObservable.
func RegistrarOf(v any) (*Registrar, error) {
	return coreobserve.RegistrarOf(v)
}

// SetInstrumentation installs a process-wide instrumentation sink.
func SetInstrumentation(sink Instrumentation) {
	coreobserve.SetInstrumentation(sink)
}

// IsIgnored reports whether a struct field carries the `observe:"-"` tag.
func IsIgnored(tag reflect.StructTag) bool {
	return coreobserve.IsIgnored(tag)
}

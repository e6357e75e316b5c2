// Package observe provides the runtime tracking engine for fine-grained
// change observation of mutable object graphs.
//
// A caller runs a read block under WithTracking. Every tracked property
// read inside the block is recorded automatically, and the first
// subsequent mutation of any recorded property fires a one-shot onChange
// callback. There is no manual subscribe/unsubscribe bookkeeping.
//
// # Core Types
//
// Registrar is the per-object hub that records accesses and delivers
// mutation notifications. Observed types embed Base (which carries a
// Registrar) and route property accessors through it:
//
//	type Counter struct {
//	    observe.Base
//	    value int
//	}
//
//	var counterValue = observe.KeyFor[Counter]("value")
//
//	func (c *Counter) Value() int {
//	    c.Registrar().Access(counterValue)
//	    return c.value
//	}
//
//	func (c *Counter) SetValue(v int) {
//	    c.Registrar().WithMutation(counterValue, func() {
//	        c.value = v
//	    })
//	}
//
// PropertyKey identifies one property on one owning type. Keys are
// comparable and are typically declared once per property, either by hand
// or by an accessor generator targeting this package.
//
// # Tracking
//
// WithTracking runs a read block, records which properties it reads, and
// arms a one-shot callback against all of them:
//
//	total := observe.WithTracking(func() int {
//	    return c.Value() + d.Value()
//	}, func() {
//	    // fires once, on the first mutation of c.value or d.value
//	})
//
// The callback fires at most once per call to WithTracking no matter how
// many objects or properties the read block touched. To react to every
// change, re-arm from inside the callback.
//
// StartTracking is the handle-returning form; the returned Tracking can
// be cancelled before it fires. Untracked suppresses recording for reads
// that should not become dependencies.
//
// # Goroutine Safety
//
// All operations are safe for concurrent use. Access recording is
// goroutine-confined and lock-free; only registry mutation inside a
// Registrar takes a lock, and callbacks are always invoked with that lock
// released. A mutation that races with an in-progress registration on
// another goroutine may be missed; callers needing guaranteed delivery
// must register before the value can change, which the read-then-register
// order of WithTracking provides on a single goroutine.
package observe

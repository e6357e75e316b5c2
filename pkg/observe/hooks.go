package observe

import "sync/atomic"

// Instrumentation receives engine lifecycle events. Implementations live
// outside the core (see pkg/instrument for Prometheus, OpenTelemetry and
// zap bindings). All methods may be called concurrently and must not
// block: they run on the mutating or tracking goroutine.
//
// Property reads are deliberately not reported; Access is the hot path
// and stays free of instrumentation.
type Instrumentation interface {
	// TrackingStarted reports a scope that finished registering, with the
	// number of registrars and distinct (registrar, key) pairs it armed.
	TrackingStarted(registrars, keys int)

	// TrackingFired reports a scope whose onChange was invoked.
	TrackingFired()

	// TrackingCancelled reports a scope cancelled before firing.
	TrackingCancelled()

	// MutationDelivered reports a mutation that claimed at least one
	// observation on the given key.
	MutationDelivered(key PropertyKey, observers int)
}

// instrHolder wraps the sink so a nil interface and an unset pointer are
// distinguishable through the atomic.
type instrHolder struct {
	sink Instrumentation
}

var instrumentation atomic.Pointer[instrHolder]

// SetInstrumentation installs a process-wide instrumentation sink.
// Passing nil removes it. Intended to be called once at startup; combine
// multiple sinks with instrument.Combined before installing.
func SetInstrumentation(sink Instrumentation) {
	if sink == nil {
		instrumentation.Store(nil)
		return
	}
	instrumentation.Store(&instrHolder{sink: sink})
}

// currentInstrumentation returns the installed sink, or nil.
func currentInstrumentation() Instrumentation {
	h := instrumentation.Load()
	if h == nil {
		return nil
	}
	return h.sink
}

// Package instrument provides observability bindings for the observe
// engine: a Prometheus collector, an OpenTelemetry tracing wrapper, and a
// zap-based debug logger. All of them plug into the engine through the
// observe.Instrumentation hook.
//
// Install a sink once at startup:
//
//	observe.SetInstrumentation(instrument.Prometheus(
//	    instrument.WithNamespace("myapp"),
//	))
//
// Combine multiple sinks:
//
//	observe.SetInstrumentation(instrument.Combined(
//	    instrument.Prometheus(),
//	    instrument.NewLogger(logger),
//	))
package instrument

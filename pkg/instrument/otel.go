package instrument

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/observe-go/observe/pkg/observe"
)

// Default tracer name for observe instrumentation.
const defaultTracerName = "observe"

// OTelConfig configures the OpenTelemetry tracing wrapper.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "observe").
	TracerName string

	// AttributeExtractor provides custom attributes for each tracked
	// scope. Called once per traced StartTracking call.
	AttributeExtractor func() []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry tracing wrapper.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func() []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracer traces tracking scopes through OpenTelemetry.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before tracing scopes:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
type Tracer struct {
	config OTelConfig
}

// OpenTelemetry creates a tracing wrapper for tracking scopes.
//
// Each traced scope produces:
//   - a span covering the read block and observation registration, with
//     the scope name as an attribute
//   - on firing, a short span linked to the registration span
//
// Example:
//
//	tracer := instrument.OpenTelemetry(instrument.WithTracerName("my-app"))
//	tracking := tracer.StartTracking(ctx, "profile-card", func() {
//	    _ = user.Name()
//	}, func() {
//	    refresh()
//	})
func OpenTelemetry(opts ...OTelOption) *Tracer {
	config := OTelConfig{
		TracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return &Tracer{config: config}
}

// StartTracking runs apply under observe.StartTracking with a span around
// the read block and registration, and a linked span when the scope
// fires. The returned handle behaves exactly like observe.StartTracking's.
func (t *Tracer) StartTracking(ctx context.Context, name string, apply func(), onChange func()) *observe.Tracking {
	attrs := []attribute.KeyValue{
		attribute.String("observe.scope", name),
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor()...)
	}

	spanCtx, span := t.config.tracer.Start(ctx, "observe.tracking",
		trace.WithAttributes(attrs...),
	)

	defer func() {
		if r := recover(); r != nil {
			span.RecordError(fmt.Errorf("panic: %v", r))
			span.SetStatus(codes.Error, "panic in tracked read block")
			span.End()
			panic(r)
		}
		span.End()
	}()

	link := trace.LinkFromContext(spanCtx)
	return observe.StartTracking(apply, func() {
		_, fireSpan := t.config.tracer.Start(context.Background(), "observe.fire",
			trace.WithLinks(link),
			trace.WithAttributes(attribute.String("observe.scope", name)),
		)
		defer fireSpan.End()
		onChange()
	})
}

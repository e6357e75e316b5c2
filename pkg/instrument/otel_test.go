package instrument

import (
	"context"
	"testing"
)

// The global tracer provider defaults to a no-op; these tests exercise
// the wrapper's control flow, not exported spans.

func TestTracerStartTracking(t *testing.T) {
	tracer := OpenTelemetry(WithTracerName("instrument-test"))

	m := &meter{}
	fires := 0

	tracking := tracer.StartTracking(context.Background(), "meter-read", func() {
		_ = m.Value()
	}, func() {
		fires++
	})
	if tracking == nil {
		t.Fatal("expected a tracking handle")
	}

	m.SetValue(1)
	if fires != 1 {
		t.Errorf("expected traced scope to fire once, got %d", fires)
	}

	m.SetValue(2)
	if fires != 1 {
		t.Errorf("one-shot violated under tracing wrapper, got %d", fires)
	}
}

func TestTracerStartTrackingPanicPropagates(t *testing.T) {
	tracer := OpenTelemetry()

	defer func() {
		if recover() == nil {
			t.Fatal("expected read block panic to propagate")
		}
	}()
	tracer.StartTracking(context.Background(), "panics", func() {
		panic("read block failure")
	}, func() {})
}

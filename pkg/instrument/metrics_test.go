package instrument

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/observe-go/observe/pkg/observe"
)

func resetGlobalMetricsForTest() {
	globalMetricsMu.Lock()
	globalMetrics = nil
	globalMetricsMu.Unlock()
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

// meter is a tracked fixture routed through the package under test.
type meter struct {
	observe.Base
	value int
}

var meterValue = observe.KeyFor[meter]("value")

func (m *meter) Value() int {
	m.Registrar().Access(meterValue)
	return m.value
}

func (m *meter) SetValue(v int) {
	m.Registrar().WithMutation(meterValue, func() {
		m.value = v
	})
}

func TestPrometheusSink(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	sink := Prometheus(WithRegistry(reg))
	observe.SetInstrumentation(sink)
	defer observe.SetInstrumentation(nil)

	m := &meter{}

	observe.WithTracking(func() int {
		return m.Value()
	}, func() {})

	if got := metricCounterValue(t, sink.trackingsStarted); got != 1 {
		t.Errorf("trackings_started_total=%v, want 1", got)
	}
	if got := metricGaugeValue(t, sink.trackingsActive); got != 1 {
		t.Errorf("trackings_active=%v, want 1", got)
	}
	if got := metricCounterValue(t, sink.observationsArmed); got != 1 {
		t.Errorf("observations_armed_total=%v, want 1", got)
	}

	m.SetValue(1)

	if got := metricCounterValue(t, sink.trackingsFired); got != 1 {
		t.Errorf("trackings_fired_total=%v, want 1", got)
	}
	if got := metricGaugeValue(t, sink.trackingsActive); got != 0 {
		t.Errorf("trackings_active=%v after fire, want 0", got)
	}
	if got := metricCounterValue(t, sink.mutationsDelivered.WithLabelValues("meter.value")); got != 1 {
		t.Errorf("mutations_delivered_total(meter.value)=%v, want 1", got)
	}
	if got := metricCounterValue(t, sink.observersNotified); got != 1 {
		t.Errorf("observers_notified_total=%v, want 1", got)
	}

	// Second mutation claims nothing; the delivery counter stays put.
	m.SetValue(2)
	if got := metricCounterValue(t, sink.mutationsDelivered.WithLabelValues("meter.value")); got != 1 {
		t.Errorf("mutations_delivered_total(meter.value)=%v after one-shot, want 1", got)
	}
}

func TestPrometheusSinkCancellation(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	sink := Prometheus(WithRegistry(reg))
	observe.SetInstrumentation(sink)
	defer observe.SetInstrumentation(nil)

	m := &meter{}
	tracking := observe.StartTracking(func() {
		_ = m.Value()
	}, func() {})
	tracking.Cancel()

	if got := metricCounterValue(t, sink.trackingsCancelled); got != 1 {
		t.Errorf("trackings_cancelled_total=%v, want 1", got)
	}
	if got := metricGaugeValue(t, sink.trackingsActive); got != 0 {
		t.Errorf("trackings_active=%v after cancel, want 0", got)
	}
}

func TestPrometheusSingleton(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	first := Prometheus(WithRegistry(reg))
	second := Prometheus(WithRegistry(prometheus.NewRegistry()))
	if first != second {
		t.Error("Prometheus() should return the singleton on repeated calls")
	}
	if GetMetrics() != first {
		t.Error("GetMetrics() should return the initialized singleton")
	}
}

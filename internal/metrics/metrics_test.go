package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRecordAlertIncrementsBySeverity(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())
	m.RecordAlert("HIGH")
	m.RecordAlert("HIGH")
	m.RecordAlert("LOW")

	high, err := m.AlertsTotal.GetMetricWithLabelValues("HIGH")
	if err != nil {
		t.Fatalf("get metric: %v", err)
	}
	if got := counterValue(t, high); got != 2 {
		t.Errorf("expected 2 HIGH alerts recorded, got %v", got)
	}
}

func TestRecordBlockIncrementsByTrigger(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())
	m.RecordBlock("auto")

	auto, err := m.BlocksCreated.GetMetricWithLabelValues("auto")
	if err != nil {
		t.Fatalf("get metric: %v", err)
	}
	if got := counterValue(t, auto); got != 1 {
		t.Errorf("expected 1 auto block recorded, got %v", got)
	}
}

func TestNewWithRegistererAvoidsGlobalCollisions(t *testing.T) {
	// Constructing two independent Metrics instances against separate
	// registries must not panic with AlreadyRegisteredError.
	NewWithRegisterer(prometheus.NewRegistry())
	NewWithRegisterer(prometheus.NewRegistry())
}

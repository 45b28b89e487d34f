package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAPIMetrics_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewAPIMetricsWithRegisterer(reg)

	metrics.ObserveRequest("create_purchase", 201, 40*time.Millisecond)
	metrics.ObserveRequest("create_purchase", 500, 10*time.Millisecond)
	metrics.ObserveRequest("list_categories", 0, time.Second)

	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("create_purchase", "201")); got != 1 {
		t.Errorf("expected 1 successful purchase, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("create_purchase", "500")); got != 1 {
		t.Errorf("expected 1 failed purchase, got %f", got)
	}
	if got := testutil.CollectAndCount(metrics.duration); got != 2 {
		t.Errorf("expected 2 duration series, got %d", got)
	}
}

func TestAPIMetrics_RecordForcedLogout(t *testing.T) {
	metrics := NewAPIMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordForcedLogout()

	if got := testutil.ToFloat64(metrics.logouts); got != 1 {
		t.Errorf("expected 1 forced logout, got %f", got)
	}
}

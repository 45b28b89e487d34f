package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutboxMetrics_RecordPublish(t *testing.T) {
	metrics := NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordPublish("sent")
	metrics.RecordPublish("sent")
	metrics.RecordPublish("retry_error")

	if got := testutil.ToFloat64(metrics.publishAttempts.WithLabelValues("sent")); got != 2 {
		t.Errorf("expected 2 sent attempts, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.publishAttempts.WithLabelValues("retry_error")); got != 1 {
		t.Errorf("expected 1 retry error, got %f", got)
	}
}

func TestOutboxMetrics_SetBacklog(t *testing.T) {
	metrics := NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.SetBacklog(4, 3*time.Second)
	if got := testutil.ToFloat64(metrics.pendingRecords); got != 4 {
		t.Errorf("expected 4 pending, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.oldestPendingAge); got != 3 {
		t.Errorf("expected age 3s, got %f", got)
	}

	metrics.SetBacklog(0, -time.Second)
	if got := testutil.ToFloat64(metrics.oldestPendingAge); got != 0 {
		t.Errorf("expected age clamped to 0, got %f", got)
	}
}

func TestOutboxMetrics_RecordCleanup(t *testing.T) {
	metrics := NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordCleanup(3, nil)
	metrics.RecordCleanup(2, nil)
	metrics.RecordCleanup(7, errors.New("boom"))

	if got := testutil.ToFloat64(metrics.cleanupDeleted); got != 5 {
		t.Errorf("expected 5 deleted, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.cleanupRuns.WithLabelValues("ok")); got != 2 {
		t.Errorf("expected 2 ok runs, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.cleanupRuns.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 failed run, got %f", got)
	}
}

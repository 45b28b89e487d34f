package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics содержит метрики вызовов удалённого API магазина.
type APIMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	logouts  prometheus.Counter
}

// NewAPIMetrics создаёт метрики в DefaultRegisterer.
func NewAPIMetrics() *APIMetrics {
	return NewAPIMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewAPIMetricsWithRegisterer создаёт метрики в заданном реестре.
func NewAPIMetricsWithRegisterer(registerer prometheus.Registerer) *APIMetrics {
	return &APIMetrics{
		requests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pos_api_requests_total",
			Help: "Store API requests grouped by operation and status code (0 for transport errors)",
		}, []string{"operation", "code"}),
		duration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "pos_api_request_duration_seconds",
			Help:    "Store API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		logouts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_api_forced_logouts_total",
			Help: "Sessions torn down because the store API answered 401",
		}),
	}
}

// ObserveRequest записывает результат и длительность запроса.
func (m *APIMetrics) ObserveRequest(operation string, statusCode int, duration time.Duration) {
	m.requests.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordForcedLogout увеличивает счётчик выходов по 401.
func (m *APIMetrics) RecordForcedLogout() {
	m.logouts.Inc()
}

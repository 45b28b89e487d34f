package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики корзины и оформления продажи.
type CheckoutMetrics struct {
	// Счётчики оформления
	salesStarted   prometheus.Counter
	salesCompleted prometheus.Counter
	salesFailed    prometheus.Counter
	salesRejected  prometheus.Counter

	// Время отправки продажи на сервер
	saleDuration prometheus.Histogram

	// Изменения корзины по операциям и результату
	cartMutations *prometheus.CounterVec

	catalogRefreshes *prometheus.CounterVec

	// Gauge для продаж в полёте (0 или 1 на кассу)
	inFlightSales prometheus.Gauge
}

// NewCheckoutMetrics создаёт метрики в DefaultRegisterer.
func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCheckoutMetricsWithRegisterer создаёт метрики в заданном реестре (удобно для тестов).
func NewCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	return &CheckoutMetrics{
		salesStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_sales_started_total",
			Help: "Total number of sale submissions started",
		}),
		salesCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_sales_completed_total",
			Help: "Total number of sales committed by the store API",
		}),
		salesFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_sales_failed_total",
			Help: "Total number of sale submissions rejected by the store API or transport",
		}),
		salesRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_sales_rejected_total",
			Help: "Total number of sales rejected locally before submission",
		}),
		saleDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "pos_sale_submit_duration_seconds",
			Help:    "Duration of sale submission in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
		cartMutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pos_cart_mutations_total",
			Help: "Cart mutations grouped by operation and result",
		}, []string{"operation", "result"}),
		catalogRefreshes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pos_catalog_refreshes_total",
			Help: "Catalog resynchronizations grouped by result",
		}, []string{"result"}),
		inFlightSales: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "pos_sales_in_flight",
			Help: "Number of sale submissions currently awaiting the store API",
		}),
	}
}

// RecordSaleStarted увеличивает счётчик начатых продаж и gauge продаж в полёте.
func (m *CheckoutMetrics) RecordSaleStarted() {
	m.salesStarted.Inc()
	m.inFlightSales.Inc()
}

// RecordSaleFinished уменьшает gauge продаж в полёте и записывает длительность.
func (m *CheckoutMetrics) RecordSaleFinished(duration time.Duration) {
	m.inFlightSales.Dec()
	m.saleDuration.Observe(duration.Seconds())
}

// RecordSaleCompleted увеличивает счётчик подтверждённых продаж.
func (m *CheckoutMetrics) RecordSaleCompleted() {
	m.salesCompleted.Inc()
}

// RecordSaleFailed увеличивает счётчик продаж, отклонённых сервером.
func (m *CheckoutMetrics) RecordSaleFailed() {
	m.salesFailed.Inc()
}

// RecordSaleRejected увеличивает счётчик продаж, отклонённых локальной проверкой.
func (m *CheckoutMetrics) RecordSaleRejected() {
	m.salesRejected.Inc()
}

// RecordCartMutation фиксирует операцию над корзиной.
func (m *CheckoutMetrics) RecordCartMutation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.cartMutations.WithLabelValues(operation, result).Inc()
}

// RecordCatalogRefresh фиксирует результат ресинхронизации каталога.
func (m *CheckoutMetrics) RecordCatalogRefresh(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.catalogRefreshes.WithLabelValues(result).Inc()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/cafepos/pkg/money"
)

// SalesMetrics tracks sale lifecycle transitions and tenders.
type SalesMetrics struct {
	created        prometheus.Counter
	completed      prometheus.Counter
	voided         *prometheus.CounterVec
	payments       *prometheus.CounterVec
	paymentAmounts *prometheus.HistogramVec
}

// NewSalesMetrics registers the sale metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewSalesMetrics(reg prometheus.Registerer) *SalesMetrics {
	if reg == nil {
		return &SalesMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sales_created_total",
		Help: "Draft sales opened.",
	})
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sales_completed_total",
		Help: "Sales completed after full payment.",
	})
	voided := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_voided_total",
		Help: "Sales voided, by the status they were voided from.",
	}, []string{"from_status"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Payments recorded, by method.",
	}, []string{"method"})
	paymentAmounts := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_amount_cents",
		Help:    "Tendered payment amounts in minor units.",
		Buckets: prometheus.ExponentialBuckets(100, 4, 8),
	}, []string{"method"})
	reg.MustRegister(created, completed, voided, payments, paymentAmounts)
	return &SalesMetrics{
		created:        created,
		completed:      completed,
		voided:         voided,
		payments:       payments,
		paymentAmounts: paymentAmounts,
	}
}

func (m *SalesMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func (m *SalesMetrics) IncCompleted() {
	if m == nil || m.completed == nil {
		return
	}
	m.completed.Inc()
}

// IncVoided counts a void keyed by the status the sale held before it.
func (m *SalesMetrics) IncVoided(fromStatus string) {
	if m == nil || m.voided == nil {
		return
	}
	m.voided.WithLabelValues(normalizeLabel(fromStatus)).Inc()
}

// ObservePayment counts the tender and records its amount.
func (m *SalesMetrics) ObservePayment(method string, amount money.Cents) {
	if m == nil || m.payments == nil {
		return
	}
	method = normalizeLabel(method)
	m.payments.WithLabelValues(method).Inc()
	m.paymentAmounts.WithLabelValues(method).Observe(float64(amount.Int64()))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the devnet server collectors.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	transactions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerflow",
				Subsystem: "devnet",
				Name:      "requests_total",
				Help:      "Total number of devnet API requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ledgerflow",
				Subsystem: "devnet",
				Name:      "request_duration_seconds",
				Help:      "Devnet API request duration in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "route"},
		),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerflow",
				Subsystem: "devnet",
				Name:      "transactions_total",
				Help:      "Submitted transactions by kind and resulting status",
			},
			[]string{"kind", "status"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.transactions)
	return m
}

// ObserveTransaction counts a submitted transaction.
func (m *Metrics) ObserveTransaction(kind string, status string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(kind, status).Inc()
}

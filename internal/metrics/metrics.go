// Package metrics holds the Prometheus collectors shared by the HTTP
// middleware and the domain services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, path and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	InvoicesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invoices_created_total",
			Help: "Invoices persisted since process start",
		},
	)

	PaymentsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Payments recorded, by method",
		},
		[]string{"method"},
	)

	AllocationRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_allocation_rejections_total",
			Help: "Payment submissions rejected by allocation validation",
		},
	)

	OnlinePaymentsCaptured = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "online_payments_captured_total",
			Help: "Razorpay payments captured and applied to the ledger",
		},
	)
)

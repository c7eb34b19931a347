package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// OrdersTotal counts order lifecycle events (created, advanced, delivered, cancelled)
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_orders_total",
			Help: "Order lifecycle events",
		},
		[]string{"event"},
	)

	StockMovementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_stock_movements_total",
			Help: "Stock ledger movements by kind",
		},
		[]string{"kind"},
	)

	OversellTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delivery_oversell_total",
			Help: "Sales that left a product with negative stock",
		},
	)

	HandoffTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_handoff_tokens_total",
			Help: "Driver handoff tokens issued and decoded",
		},
		[]string{"result"},
	)

	SnapshotSaveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "delivery_snapshot_save_duration_seconds",
			Help:    "Time spent persisting the workspace snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)
)

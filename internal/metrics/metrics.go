package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookOutcomes counts reconciliation outcomes per terminal state of
	// the webhook state machine.
	WebhookOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_webhook_outcomes_total",
		Help: "Webhook reconciliation outcomes",
	}, []string{"outcome"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_request_duration_seconds",
		Help:    "Checkout initiation latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Orders created in the commerce backend",
	})

	// StuckClaims is set by the auditor to the number of ledger entries
	// claimed but not processed past the configured threshold.
	StuckClaims = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "checkout_stuck_claims",
		Help: "Ledger entries claimed but never marked processed",
	})
)

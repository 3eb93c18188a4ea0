package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SettlementsTotal counts settlement attempts by outcome:
	// created, duplicate, failed.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tessera_settlements_total",
		Help: "Settlement attempts by outcome",
	}, []string{"result"})

	// ScansTotal counts gate verifications by outcome: valid, used, invalid.
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tessera_scans_total",
		Help: "Ticket scans by outcome",
	}, []string{"status"})

	// RefundsTotal counts refund attempts by outcome: success, failed.
	RefundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tessera_refunds_total",
		Help: "Refund attempts by outcome",
	}, []string{"result"})

	// TicketCodeRetries counts order inserts retried after a code collision.
	TicketCodeRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tessera_ticket_code_retries_total",
		Help: "Order inserts retried due to ticket code collisions",
	})

	// HTTPRequestDuration times requests per route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tessera_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

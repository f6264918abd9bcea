package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guide_orders_created_total",
		Help: "Orders created at the payment gateway.",
	})

	Confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guide_payment_confirmations_total",
		Help: "Payment confirmation attempts by result.",
	}, []string{"result"})

	GrantsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guide_grants_issued_total",
		Help: "Download grants minted.",
	})

	Downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guide_downloads_total",
		Help: "Download attempts by outcome.",
	}, []string{"outcome"})

	SweptEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guide_swept_entries_total",
		Help: "Expired entries removed by the sweeper.",
	}, []string{"store"})

	gatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "guide_gateway_request_duration_seconds",
		Help:    "Payment gateway call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})
)

// ObserveGateway records the latency of one gateway call.
func ObserveGateway(operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	gatewayLatency.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}

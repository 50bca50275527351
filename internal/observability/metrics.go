package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestCount tracks total API requests by endpoint/method/status.
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adserve_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestLatency is request latency in seconds per endpoint/method.
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adserve_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// NoAdCount tracks decision requests returning a null decision.
	NoAdCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adserve_no_ad_total",
			Help: "Total decision requests with no matching ad",
		},
	)

	// DecisionCount tracks decision requests by matched campaign type.
	DecisionCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adserve_decisions_total",
			Help: "Total decisions made, labelled by campaign type",
		},
		[]string{"campaign_type"},
	)

	// BillingEventCount tracks view/click proxy outcomes by X-Adserver-Reason.
	BillingEventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adserve_billing_events_total",
			Help: "Total view/click proxy events, labelled by reason",
		},
		[]string{"event", "reason"},
	)

	// RateLimitHits tracks ratelimit-denied events per event type.
	RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adserve_ratelimit_hits_total",
			Help: "Total rate limit hits per event type",
		},
		[]string{"event_type"},
	)

	// PacingWeightGauge reports the most recently computed weighted
	// clicks-needed value for a flight, for pacing observability.
	PacingWeightGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adserve_pacing_weighted_clicks_needed",
			Help: "Most recent weighted_clicks_needed value per flight",
		},
		[]string{"flight_slug"},
	)

	// RollupHeartbeatAge is the gauge for the age in seconds of the rollup
	// worker's last heartbeat. No code in this module sets its value.
	RollupHeartbeatAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "adserve_rollup_heartbeat_age_seconds",
			Help: "Age of the rollup worker's last heartbeat in seconds",
		},
	)

	// RefundCount tracks offer refunds.
	RefundCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adserve_refunds_total",
			Help: "Total offer refunds applied",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		NoAdCount,
		DecisionCount,
		BillingEventCount,
		RateLimitHits,
		PacingWeightGauge,
		RollupHeartbeatAge,
		RefundCount,
	)
}

// IncrementRequests records one request against (endpoint, method, status).
func IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

// IncrementBillingEvent records one view/click proxy outcome.
func IncrementBillingEvent(event, reason string) {
	BillingEventCount.WithLabelValues(event, reason).Inc()
}

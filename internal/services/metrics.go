package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// roastsTotal counts roast requests by template and terminal outcome:
	// ok, degraded, invalid, blocked, fetch_failed, upstream_failed.
	roastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roast_requests_total",
			Help: "Roast requests by template and outcome.",
		},
		[]string{"template", "outcome"},
	)

	// roastPersistFailures counts background roast writes that failed.
	roastPersistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "roast_persist_failures_total",
			Help: "Roast records that could not be written to the store.",
		},
	)

	// paymentOrders counts order requests by outcome: created, replayed, failed.
	paymentOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_total",
			Help: "Payment order requests by outcome.",
		},
		[]string{"outcome"},
	)

	// eventsRecorded counts analytics events written to the store. The event
	// type is client supplied and is not used as a label.
	eventsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_events_recorded_total",
			Help: "Analytics events written to the store.",
		},
	)
)

func init() {
	prometheus.MustRegister(roastsTotal, roastPersistFailures, paymentOrders, eventsRecorded)
}

func templateLabel(upgrade bool) string {
	if upgrade {
		return "upgraded"
	}
	return "standard"
}

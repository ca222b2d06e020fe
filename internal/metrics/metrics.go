package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitravels_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exitravels_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Live feed metrics
	SnapshotsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitravels_snapshots_received_total",
			Help: "Collection snapshots received from the document store",
		},
		[]string{"collection"},
	)

	SubscriptionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitravels_subscription_failures_total",
			Help: "Live subscriptions that ended with an error",
		},
		[]string{"collection"},
	)

	ActiveRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exitravels_records",
			Help: "Records in the last snapshot by lifecycle",
		},
		[]string{"collection", "lifecycle"},
	)

	// Business metrics
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitravels_commands_total",
			Help: "Admin commands issued against the document store",
		},
		[]string{"op", "result"}, // result: "ok" or "error"
	)

	ArrivalsNotified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitravels_arrivals_notified_total",
			Help: "New-record notifications fired",
		},
		[]string{"collection"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitravels_notification_failures_total",
			Help: "Notification deliveries that failed",
		},
		[]string{"sink"},
	)

	CSVExports = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exitravels_csv_exports_total",
			Help: "CSV exports produced",
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exitravels_login_attempts_total",
			Help: "Admin sign-in attempts",
		},
		[]string{"result"},
	)
)

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

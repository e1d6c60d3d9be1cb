// Package metrics defines the Prometheus metrics for notification dispatch
// and mail configuration changes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch result label values.
const (
	ResultSent              = "sent"
	ResultDeliveryFailed    = "delivery_failed"
	ResultConfigUnavailable = "config_unavailable"
	ResultRejected          = "rejected"
)

var (
	DispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alertmail_dispatch_total",
		Help: "Total number of notification dispatch attempts by result",
	}, []string{"result"})
	DispatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "alertmail_dispatch_duration_seconds",
		Help:    "Time spent rendering and delivering a notification",
		Buckets: prometheus.DefBuckets,
	})
	MailConfigUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alertmail_mail_config_updates_total",
		Help: "Total number of mail configuration replacements pushed to listeners",
	})
	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alertmail_events_dropped_total",
		Help: "Events the in-process bus dropped instead of delivering, by reason",
	}, []string{"reason"})
)

// Event drop reasons.
const (
	DropBufferFull = "buffer_full"
	DropClosed     = "closed"
)

func init() {
	prometheus.MustRegister(DispatchTotal)
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(MailConfigUpdates)
	prometheus.MustRegister(EventsDropped)
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ABOUTME: Prometheus counters for the notification pipeline, labeled by tracker.

package notify

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts pipeline outcomes per tracker.
type Metrics struct {
	delivered      *prometheus.CounterVec
	suppressed     *prometheus.CounterVec
	duplicates     *prometheus.CounterVec
	lookupFailures *prometheus.CounterVec
}

// NewMetrics creates the pipeline counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jbossbot_notifications_delivered_total",
			Help: "Notifications delivered to a target.",
		}, []string{"tracker"}),
		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jbossbot_notifications_suppressed_total",
			Help: "Notifications suppressed by the dedupe window.",
		}, []string{"tracker"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jbossbot_dispatch_duplicates_total",
			Help: "Fingerprints rejected by the recursion guard within one dispatch.",
		}, []string{"tracker"}),
		lookupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jbossbot_lookup_failures_total",
			Help: "External tracker lookups that failed or returned nothing.",
		}, []string{"tracker"}),
	}
	reg.MustRegister(m.delivered, m.suppressed, m.duplicates, m.lookupFailures)
	return m
}

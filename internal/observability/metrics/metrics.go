// Package metrics defines the Prometheus instruments for the booking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sarah"

// Metrics holds the service's Prometheus collectors. A nil *Metrics is safe
// to call, so tests and tools can skip registration.
type Metrics struct {
	BookingsTotal    *prometheus.CounterVec
	WebhooksTotal    *prometheus.CounterVec
	PlatformErrors   *prometheus.CounterVec
	AvailabilityMode *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		BookingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by terminal status.",
		}, []string{"status"}),
		WebhooksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "webhooks_total",
			Help:      "Inbound webhook events by endpoint.",
		}, []string{"endpoint"}),
		PlatformErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "servicetitan",
			Name:      "errors_total",
			Help:      "Non-2xx responses from the field-service API by endpoint.",
		}, []string{"endpoint"}),
		AvailabilityMode: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "availability",
			Name:      "resolutions_total",
			Help:      "Availability resolutions by mode (live or degraded).",
		}, []string{"mode"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "status"}),
	}
}

// RecordBooking counts a booking attempt's terminal status.
func (m *Metrics) RecordBooking(status string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(status).Inc()
}

// RecordWebhook counts an inbound webhook event.
func (m *Metrics) RecordWebhook(endpoint string) {
	if m == nil {
		return
	}
	m.WebhooksTotal.WithLabelValues(endpoint).Inc()
}

// RecordPlatformError counts an upstream API failure.
func (m *Metrics) RecordPlatformError(endpoint string) {
	if m == nil {
		return
	}
	m.PlatformErrors.WithLabelValues(endpoint).Inc()
}

// RecordAvailability counts an availability resolution by mode.
func (m *Metrics) RecordAvailability(degraded bool) {
	if m == nil {
		return
	}
	mode := "live"
	if degraded {
		mode = "degraded"
	}
	m.AvailabilityMode.WithLabelValues(mode).Inc()
}

// ObserveRequest records handler latency.
func (m *Metrics) ObserveRequest(path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(path, status).Observe(seconds)
}

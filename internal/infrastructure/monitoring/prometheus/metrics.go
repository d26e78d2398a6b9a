package prometheus

import (
	"strconv"
	"time"
)

// ComplianceMetrics holds every metric the engine records.
type ComplianceMetrics struct {
	SweepsTotal               CounterVec
	SweepDuration             HistogramVec
	AlertTransitionsTotal     CounterVec
	NotificationsTotal        CounterVec
	ComplianceScore           GaugeVec
	EntityCalculationErrors   CounterVec
	HTTPRequestsTotal         CounterVec
	HTTPRequestDuration       HistogramVec
	DeliveryQueueProcessTotal CounterVec
}

var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultSweepDurationBuckets = []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300}
)

// NewComplianceMetrics registers the engine metrics on collector.
func NewComplianceMetrics(c MetricsCollector) *ComplianceMetrics {
	return &ComplianceMetrics{
		SweepsTotal:               c.RegisterCounter("sweeps_total", "Organization sweeps by result", "result"),
		SweepDuration:             c.RegisterHistogram("sweep_duration_seconds", "Organization sweep duration", DefaultSweepDurationBuckets),
		AlertTransitionsTotal:     c.RegisterCounter("alerts_transitions_total", "Alert transitions applied", "kind"),
		NotificationsTotal:        c.RegisterCounter("notifications_total", "Notification jobs by channel and outcome", "channel", "status"),
		ComplianceScore:           c.RegisterGauge("compliance_score", "Latest compliance score per organization", "organization"),
		EntityCalculationErrors:   c.RegisterCounter("entity_calculation_errors_total", "Entities whose due date could not be computed", "kind"),
		HTTPRequestsTotal:         c.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code"),
		HTTPRequestDuration:       c.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path"),
		DeliveryQueueProcessTotal: c.RegisterCounter("delivery_queue_messages_total", "Delivery queue records by outcome", "outcome"),
	}
}

// NewNopMetrics returns metrics that record nothing.
func NewNopMetrics() *ComplianceMetrics {
	return &ComplianceMetrics{
		SweepsTotal:               noopCounterVec{},
		SweepDuration:             noopHistogramVec{},
		AlertTransitionsTotal:     noopCounterVec{},
		NotificationsTotal:        noopCounterVec{},
		ComplianceScore:           noopGaugeVec{},
		EntityCalculationErrors:   noopCounterVec{},
		HTTPRequestsTotal:         noopCounterVec{},
		HTTPRequestDuration:       noopHistogramVec{},
		DeliveryQueueProcessTotal: noopCounterVec{},
	}
}

// RecordSweep records one organization sweep. result is ok, overlap,
// timeout or error.
func (m *ComplianceMetrics) RecordSweep(result string, d time.Duration) {
	m.SweepsTotal.WithLabelValues(result).Inc()
	m.SweepDuration.WithLabelValues().Observe(d.Seconds())
}

func (m *ComplianceMetrics) RecordTransition(kind string) {
	m.AlertTransitionsTotal.WithLabelValues(kind).Inc()
}

func (m *ComplianceMetrics) RecordNotification(channel, status string) {
	m.NotificationsTotal.WithLabelValues(channel, status).Inc()
}

func (m *ComplianceMetrics) SetScore(organizationID string, total int) {
	m.ComplianceScore.WithLabelValues(organizationID).Set(float64(total))
}

func (m *ComplianceMetrics) RecordCalculationError(kind string) {
	m.EntityCalculationErrors.WithLabelValues(kind).Inc()
}

func (m *ComplianceMetrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *ComplianceMetrics) RecordQueueMessage(outcome string) {
	m.DeliveryQueueProcessTotal.WithLabelValues(outcome).Inc()
}

//Personal.AI order the ending

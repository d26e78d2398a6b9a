package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComplianceMetrics_Record(t *testing.T) {
	c := newTestCollector(t)
	m := NewComplianceMetrics(c)

	m.RecordSweep("ok", 2*time.Second)
	m.RecordSweep("overlap", 0)
	m.RecordTransition("created")
	m.RecordTransition("created")
	m.RecordNotification("email", "sent")
	m.SetScore("org-1", 85)
	m.RecordCalculationError("medical_examination")
	m.RecordHTTPRequest("GET", "/api/v1/organizations/:orgID/compliance", 200, 15*time.Millisecond)
	m.RecordQueueMessage("delivered")

	out := scrape(t, c)
	assert.Contains(t, out, `sentinel_sweeps_total{result="ok"} 1`)
	assert.Contains(t, out, `sentinel_sweeps_total{result="overlap"} 1`)
	assert.Contains(t, out, `sentinel_sweep_duration_seconds_count 2`)
	assert.Contains(t, out, `sentinel_alerts_transitions_total{kind="created"} 2`)
	assert.Contains(t, out, `sentinel_notifications_total{channel="email",status="sent"} 1`)
	assert.Contains(t, out, `sentinel_compliance_score{organization="org-1"} 85`)
	assert.Contains(t, out, `sentinel_entity_calculation_errors_total{kind="medical_examination"} 1`)
	assert.Contains(t, out, `sentinel_http_requests_total{method="GET",path="/api/v1/organizations/:orgID/compliance",status_code="200"} 1`)
	assert.Contains(t, out, `sentinel_delivery_queue_messages_total{outcome="delivered"} 1`)
}

func TestNopMetrics(t *testing.T) {
	m := NewNopMetrics()
	assert.NotPanics(t, func() {
		m.RecordSweep("ok", time.Second)
		m.RecordTransition("resolved")
		m.RecordNotification("sms", "failed")
		m.SetScore("o", 1)
		m.RecordCalculationError("k")
		m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
		m.RecordQueueMessage("x")
	})
}

//Personal.AI order the ending

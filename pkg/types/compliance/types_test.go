package compliance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_Ordering(t *testing.T) {
	assert.True(t, SeverityExpired.AtLeast(SeverityUrgent))
	assert.True(t, SeverityWarning.AtLeast(SeverityWarning))
	assert.False(t, SeverityInfo.AtLeast(SeverityAttention))
	assert.False(t, Severity("critical").IsValid())
}

func TestAlertStatus_IsLive(t *testing.T) {
	assert.True(t, AlertActive.IsLive())
	assert.True(t, AlertAcknowledged.IsLive())
	assert.False(t, AlertDismissed.IsLive())
	assert.False(t, AlertResolved.IsLive())
	assert.False(t, AlertStatus("open").IsValid())
}

func TestAlertFilter_Validate(t *testing.T) {
	assert.NoError(t, AlertFilter{}.Validate())
	assert.NoError(t, AlertFilter{Statuses: []AlertStatus{AlertActive}, MinSeverity: SeverityWarning, Kind: KindEquipmentCheck, PageSize: 50}.Validate())
	assert.Error(t, AlertFilter{Statuses: []AlertStatus{"open"}}.Validate())
	assert.Error(t, AlertFilter{MinSeverity: "severe"}.Validate())
	assert.Error(t, AlertFilter{Kind: "vehicle"}.Validate())
	assert.Error(t, AlertFilter{PageSize: 501}.Validate())
}

func TestAlert_DecodesServerPayload(t *testing.T) {
	payload := `{
		"id": "al-1",
		"organization_id": "org-1",
		"entity_ref": {"kind": "medical_examination", "id": "m-7"},
		"severity": "urgent",
		"status": "active",
		"title": "Periodic medical examination",
		"due_date": "2026-11-01T00:00:00Z",
		"notified_severity": "warning",
		"version": 3
	}`
	var a Alert
	require.NoError(t, json.Unmarshal([]byte(payload), &a))
	assert.Equal(t, "medical_examination:m-7", a.Ref.String())
	assert.Equal(t, SeverityUrgent, a.Severity)
	require.NotNil(t, a.NotifiedSeverity)
	assert.Equal(t, SeverityWarning, *a.NotifiedSeverity)
	require.NotNil(t, a.DueDate)
	assert.Equal(t, 2026, a.DueDate.Year())
}

//Personal.AI order the ending

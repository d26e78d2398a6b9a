package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ComplianceSentinel/pkg/types/compliance"
)

func complianceFilter() compliance.AlertFilter {
	return compliance.AlertFilter{
		Statuses:    []compliance.AlertStatus{compliance.AlertActive, compliance.AlertAcknowledged},
		MinSeverity: compliance.SeverityWarning,
		Kind:        compliance.KindEquipmentCheck,
		Page:        2,
		PageSize:    10,
	}
}

func TestCompliance_Score(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/organizations/org-1/score", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"success":true,"data":{
			"organization_id":"org-1","total":82,"scored":true,
			"categories":[{"category":"medical","score":70,"entities":4,"unscheduled":1}]}}`)
	})

	s, err := c.Compliance().Score(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 82, s.Total)
	assert.True(t, s.Scored)
	require.Len(t, s.Categories, 1)
	assert.Equal(t, 1, s.Categories[0].Unscheduled)
}

func TestCompliance_Overview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/organizations/org-1/overview", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"success":true,"data":{
			"score":{"organization_id":"org-1","total":0,"scored":false},
			"active_alerts":[{"id":"a1","severity":"expired","status":"active","entity_ref":{"kind":"legal_obligation","id":"l1"}}],
			"unscheduled":[{"kind":"training_assignment","id":"t9"}]}}`)
	})

	ov, err := c.Compliance().Overview(context.Background(), "org-1")
	require.NoError(t, err)
	assert.False(t, ov.Score.Scored)
	require.Len(t, ov.ActiveAlerts, 1)
	assert.Equal(t, compliance.SeverityExpired, ov.ActiveAlerts[0].Severity)
	assert.Equal(t, "training_assignment:t9", ov.Unscheduled[0].String())
}

func TestCompliance_ListAlerts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "active,acknowledged", q.Get("status"))
		assert.Equal(t, "warning", q.Get("min_severity"))
		assert.Equal(t, "equipment_check", q.Get("kind"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("page_size"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":"a1","severity":"urgent","status":"active"}],
			"pagination":{"page":2,"page_size":10,"total":11}}`)
	})

	page, err := c.Compliance().ListAlerts(context.Background(), "org-1", complianceFilter())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(11), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PageSize)
}

func TestCompliance_ListAlerts_InvalidFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid filters must not reach the server")
	})
	_, err := c.Compliance().ListAlerts(context.Background(), "org-1", compliance.AlertFilter{MinSeverity: "severe"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCompliance_Transitions(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "ops-7", r.Header.Get("X-Actor-ID"))
		paths = append(paths, r.URL.Path)
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":"a1","status":"acknowledged","closed_by":"ops-7"}}`)
	})
	cc := c.Compliance()
	ctx := context.Background()

	a, err := cc.Acknowledge(ctx, "org-1", "a1", "ops-7")
	require.NoError(t, err)
	assert.Equal(t, compliance.AlertAcknowledged, a.Status)
	_, err = cc.Dismiss(ctx, "org-1", "a1", "ops-7")
	require.NoError(t, err)
	_, err = cc.Resolve(ctx, "org-1", "a1", "ops-7")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/v1/organizations/org-1/alerts/a1/acknowledge",
		"/api/v1/organizations/org-1/alerts/a1/dismiss",
		"/api/v1/organizations/org-1/alerts/a1/resolve",
	}, paths)
}

func TestCompliance_TransitionRequiresActor(t *testing.T) {
	c, err := NewClient("http://localhost:1")
	require.NoError(t, err)
	_, err = c.Compliance().Resolve(context.Background(), "org-1", "a1", " ")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = c.Compliance().GetAlert(context.Background(), "org-1", "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCompliance_GetAlert_PathEscaping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/organizations/org%2F1/alerts/a1", r.URL.EscapedPath())
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":"a1"}}`)
	})
	a, err := c.Compliance().GetAlert(context.Background(), "org/1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
}

func TestCompliance_ListNotifications(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "a1", q.Get("alert_id"))
		assert.Equal(t, "failed", q.Get("status"))
		assert.Equal(t, "sms", q.Get("channel"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":"j1","channel":"sms","status":"failed","attempt":5,"last_error":"gateway returned 400"}],
			"pagination":{"page":1,"page_size":20,"total":1}}`)
	})

	page, err := c.Compliance().ListNotifications(context.Background(), "org-1", compliance.NotificationFilter{
		AlertID: "a1", Statuses: []string{"failed"}, Channel: "sms",
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 5, page.Items[0].Attempt)
	assert.Equal(t, int64(1), page.Total)
}

func TestCompliance_Sweep(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/organizations/org-1/sweeps", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("force"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"organization_id":"org-1","checked":12,"alerts_created":2,"score":64}}`)
	})

	sum, err := c.Compliance().Sweep(context.Background(), "org-1", true)
	require.NoError(t, err)
	assert.Equal(t, 12, sum.Checked)
	require.NotNil(t, sum.Score)
	assert.Equal(t, 64, *sum.Score)
}

func TestCompliance_SweepOverlap(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"success":false,"error":{"code":"SWEEP_001","message":"sweep already in progress"}}`)
	})
	_, err := c.Compliance().Sweep(context.Background(), "org-1", false)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())
}

func TestCompliance_DownloadRegister(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/organizations/org-1/register", r.URL.Path)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="register-org-1.xlsx"`)
		w.Write([]byte("PK\x03\x04"))
	})

	reg, err := c.Compliance().DownloadRegister(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, "register-org-1.xlsx", reg.FileName)
	assert.Equal(t, []byte("PK\x03\x04"), reg.Data)
	assert.Contains(t, reg.ContentType, "spreadsheetml")
}

func TestCompliance_UploadRegister(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/organizations/org-1/register/uploads", r.URL.Path)
		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"location":"compliance-exports/org-1/register.xlsx"}}`)
	})

	loc, err := c.Compliance().UploadRegister(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, "compliance-exports/org-1/register.xlsx", loc)
}

//Personal.AI order the ending

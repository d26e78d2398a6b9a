package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ComplianceSentinel/internal/testutil"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/organizations/:orgID/score", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/fail", func(c *gin.Context) { c.String(http.StatusInternalServerError, "boom") })
	r.GET("/bad", func(c *gin.Context) { c.String(http.StatusBadRequest, "bad") })
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(20 * time.Millisecond)
		c.String(http.StatusOK, "slow")
	})
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "alive") })
	return r
}

func serve(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_Generated(t *testing.T) {
	w := serve(newEngine(RequestID()), "/organizations/org-1/score", nil)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRequestID_Propagated(t *testing.T) {
	w := serve(newEngine(RequestID()), "/organizations/org-1/score", map[string]string{RequestIDHeader: "req-42"})
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestRequestLogging_Levels(t *testing.T) {
	logger := testutil.NewMockLogger()
	r := newEngine(RequestID(), RequestLogging(logger, LoggingConfig{SlowThreshold: 10 * time.Millisecond}))

	serve(r, "/organizations/org-1/score", nil)
	serve(r, "/fail", nil)
	serve(r, "/bad", nil)
	serve(r, "/slow", nil)

	assert.True(t, logger.HasMessage("info", "HTTP request completed"))
	assert.True(t, logger.HasMessage("error", "HTTP request completed with server error"))
	assert.True(t, logger.HasMessage("warn", "HTTP request completed with client error"))
	assert.True(t, logger.HasMessage("warn", "HTTP request completed (slow)"))
	org, ok := logger.FieldValue("HTTP request completed", "organization_id")
	require.True(t, ok)
	assert.Equal(t, "org-1", org)
}

func TestRequestLogging_SkipPaths(t *testing.T) {
	logger := testutil.NewMockLogger()
	r := newEngine(RequestLogging(logger, DefaultLoggingConfig()))

	serve(r, "/healthz", nil)

	assert.Empty(t, logger.GetMessages())
}

func TestRecovery(t *testing.T) {
	logger := testutil.NewMockLogger()
	r := newEngine(RequestID(), Recovery(logger))

	w := serve(r, "/panic", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.True(t, logger.HasMessage("error", "panic recovered"))
}

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "sentinel"}, testutil.NewMockLogger())
	require.NoError(t, err)
	r := newEngine(Metrics(prometheus.NewComplianceMetrics(collector)))

	serve(r, "/organizations/org-1/score", nil)
	serve(r, "/organizations/org-2/score", nil)
	serve(r, "/nowhere", nil)

	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `path="/organizations/:orgID/score",status_code="200"} 2`)
	assert.Contains(t, string(body), `path="unmatched"`)
	assert.NotContains(t, string(body), "org-1")
}

//Personal.AI order the ending
